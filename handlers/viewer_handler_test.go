package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"profile-viewer/config"
	"profile-viewer/handlers"
	"profile-viewer/middleware"
	"profile-viewer/models"
	"profile-viewer/render"
	"profile-viewer/store"
	"profile-viewer/viewer"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSession = "5f0c1a52-2f43-4c1b-9a49-5a0b6c1d2e3f"

type brokenStore struct{}

func (brokenStore) Load(context.Context, string) (models.QueryState, bool, error) {
	return models.QueryState{}, false, errors.New("valkey unavailable")
}

func (brokenStore) Save(context.Context, string, models.QueryState) error {
	return errors.New("valkey unavailable")
}

// supersedingStore replaces every settle write with an empty submission that
// arrived while the query ran.
type supersedingStore struct {
	*store.MemoryStore
}

func (s supersedingStore) Save(ctx context.Context, sessionID string, state models.QueryState) error {
	if !state.Loading && state.Error == "" {
		state = models.QueryState{Error: viewer.Message(viewer.ErrEmptyInput), Generation: state.Generation + 1}
	}
	return s.MemoryStore.Save(ctx, sessionID, state)
}

func newTestHandler(t *testing.T, states viewer.StateStore) (*handlers.ViewerHandler, *viewer.Manager) {
	t.Helper()
	page, err := render.NewHTML()
	require.NoError(t, err)
	manager := viewer.NewManager(viewer.NewResolver(0), states)
	t.Cleanup(manager.Close)
	return handlers.NewViewerHandler(config.Config{}, manager, page), manager
}

func withSession(req *http.Request) *http.Request {
	return req.WithContext(middleware.ContextWithSession(req.Context(), testSession))
}

func formRequest(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return withSession(req)
}

func executeRequest(handler middleware.AppHandler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	middleware.ErrorHandler(handler).ServeHTTP(rec, req)
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) viewer.View {
	t.Helper()
	var view viewer.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	return view
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload["error"]
}

func TestPageHandlerRendersIdlePage(t *testing.T) {
	h, _ := newTestHandler(t, store.NewMemoryStore(time.Minute))

	rec := executeRequest(h.PageHandler, withSession(httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), "Search Profile")
}

func TestPageHandlerRequiresSession(t *testing.T) {
	h, _ := newTestHandler(t, store.NewMemoryStore(time.Minute))

	rec := executeRequest(h.PageHandler, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPageHandlerStoreFailure(t *testing.T) {
	h, _ := newTestHandler(t, brokenStore{})

	rec := executeRequest(h.PageHandler, withSession(httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Could not load session", decodeError(t, rec))
}

func TestSearchFormRedirectsAndSettles(t *testing.T) {
	h, manager := newTestHandler(t, store.NewMemoryStore(time.Minute))

	rec := executeRequest(h.SearchFormHandler, formRequest("/search", url.Values{"username": {" Travel_Explorer "}}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	manager.Wait()
	rec = executeRequest(h.PageHandler, withSession(httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Contains(t, rec.Body.String(), "@travel_explorer")
	assert.Contains(t, rec.Body.String(), "28.9K")
}

func TestSearchFormEmptyInputShowsErrorImmediately(t *testing.T) {
	h, _ := newTestHandler(t, store.NewMemoryStore(time.Minute))

	rec := executeRequest(h.SearchFormHandler, formRequest("/search", url.Values{"username": {"   "}}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = executeRequest(h.PageHandler, withSession(httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Contains(t, rec.Body.String(), "Please enter a username")
}

func TestFillHandlerSetsInputOnly(t *testing.T) {
	h, manager := newTestHandler(t, store.NewMemoryStore(time.Minute))

	rec := executeRequest(h.FillHandler, formRequest("/fill", url.Values{"username": {"private_user"}}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	state, err := manager.State(context.Background(), testSession)
	require.NoError(t, err)
	assert.Equal(t, "private_user", state.Input)
	assert.False(t, state.Loading)
	assert.Nil(t, state.Record)
	assert.Empty(t, state.Error)

	rec = executeRequest(h.FillHandler, formRequest("/fill", url.Values{"username": {"someone"}}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Unknown demo username", decodeError(t, rec))
}

func TestSearchAPIFound(t *testing.T) {
	h, _ := newTestHandler(t, store.NewMemoryStore(time.Minute))

	req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/search", bytes.NewBufferString(`{"username":"TECH_ENTHUSIAST"}`)))
	rec := executeRequest(h.SearchAPIHandler, req)
	require.Equal(t, http.StatusOK, rec.Code)

	view := decodeView(t, rec)
	assert.Equal(t, viewer.ViewResultPublic, view.Kind)
	assert.Equal(t, "TECH_ENTHUSIAST", view.Input)
	require.NotNil(t, view.Profile)
	assert.Equal(t, "tech_enthusiast", view.Profile.Username)
	assert.True(t, view.Profile.IsVerified)
}

func TestSearchAPIPrivate(t *testing.T) {
	h, _ := newTestHandler(t, store.NewMemoryStore(time.Minute))

	req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/search", bytes.NewBufferString(`{"username":"private_user"}`)))
	rec := executeRequest(h.SearchAPIHandler, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "stats")
	assert.NotContains(t, rec.Body.String(), "biography")
	assert.Equal(t, viewer.ViewResultPrivate, decodeView(t, rec).Kind)
}

func TestSearchAPIErrors(t *testing.T) {
	h, _ := newTestHandler(t, store.NewMemoryStore(time.Minute))

	tests := []struct {
		body    string
		status  int
		message string
	}{
		{`{"username":"  "}`, http.StatusBadRequest, "Please enter a username"},
		{`{"username":"ghost"}`, http.StatusNotFound, "User not found. Try: tech_enthusiast, travel_explorer, or private_user"},
		{`not-json`, http.StatusBadRequest, "Invalid request payload"},
	}

	for _, tt := range tests {
		req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/search", bytes.NewBufferString(tt.body)))
		rec := executeRequest(h.SearchAPIHandler, req)
		assert.Equal(t, tt.status, rec.Code, tt.body)
		assert.Equal(t, tt.message, decodeError(t, rec), tt.body)
	}
}

func TestSearchAPIStatusFollowsSettledError(t *testing.T) {
	h, _ := newTestHandler(t, supersedingStore{store.NewMemoryStore(time.Minute)})

	req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/search", bytes.NewBufferString(`{"username":"tech_enthusiast"}`)))
	rec := executeRequest(h.SearchAPIHandler, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please enter a username", decodeError(t, rec))
}

func TestSessionHandlerReflectsState(t *testing.T) {
	h, manager := newTestHandler(t, store.NewMemoryStore(time.Minute))
	_, err := manager.Fill(context.Background(), testSession, "travel_explorer")
	require.NoError(t, err)

	rec := executeRequest(h.SessionHandler, withSession(httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeView(t, rec)
	assert.Equal(t, viewer.ViewIdle, view.Kind)
	assert.Equal(t, "travel_explorer", view.Input)
	assert.Equal(t, []string{"tech_enthusiast", "travel_explorer", "private_user"}, view.DemoUsernames)
}

func TestProfileHandler(t *testing.T) {
	h, _ := newTestHandler(t, brokenStore{})

	router := mux.NewRouter()
	router.Handle("/api/v1/profiles/{username}", middleware.ErrorHandler(h.ProfileHandler))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/profiles/Travel_Explorer", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeView(t, rec)
	assert.Equal(t, viewer.ViewResultPublic, view.Kind)
	assert.Equal(t, "Emma Johnson", view.Profile.FullName)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/profiles/ghost", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/profiles/%20", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please enter a username", decodeError(t, rec))
}

func TestDemoUsernamesAndHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	handlers.DemoUsernamesHandler(rec, httptest.NewRequest(http.MethodGet, "/api/v1/demo-usernames", nil))
	var payload map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, []string{"tech_enthusiast", "travel_explorer", "private_user"}, payload["usernames"])

	rec = httptest.NewRecorder()
	handlers.HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
