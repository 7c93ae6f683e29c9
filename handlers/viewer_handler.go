package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"profile-viewer/catalog"
	"profile-viewer/config"
	"profile-viewer/middleware"
	"profile-viewer/models"
	"profile-viewer/render"
	"profile-viewer/viewer"

	"github.com/gorilla/mux"
)

type JSONResponse map[string]interface{}

type ViewerHandler struct {
	cfg     config.Config
	manager *viewer.Manager
	page    *render.HTML
}

type searchRequest struct {
	Username string `json:"username"`
}

func NewViewerHandler(cfg config.Config, manager *viewer.Manager, page *render.HTML) *ViewerHandler {
	return &ViewerHandler{cfg: cfg, manager: manager, page: page}
}

func (h *ViewerHandler) PageHandler(w http.ResponseWriter, r *http.Request) error {
	sessionID, err := requireSession(r)
	if err != nil {
		return err
	}

	state, err := h.manager.State(r.Context(), sessionID)
	if err != nil {
		return middleware.NewAppError(http.StatusInternalServerError, "Could not load session", err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.page.Render(w, viewer.Select(state)); err != nil {
		return middleware.NewAppError(http.StatusInternalServerError, "Could not render page", err)
	}
	return nil
}

func (h *ViewerHandler) SearchFormHandler(w http.ResponseWriter, r *http.Request) error {
	sessionID, err := requireSession(r)
	if err != nil {
		return err
	}
	if err := r.ParseForm(); err != nil {
		return middleware.NewAppError(http.StatusBadRequest, "Invalid form", err)
	}

	if _, err := h.manager.Submit(r.Context(), sessionID, r.PostForm.Get("username")); err != nil {
		return middleware.NewAppError(http.StatusInternalServerError, "Could not start search", err)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
	return nil
}

func (h *ViewerHandler) FillHandler(w http.ResponseWriter, r *http.Request) error {
	sessionID, err := requireSession(r)
	if err != nil {
		return err
	}
	if err := r.ParseForm(); err != nil {
		return middleware.NewAppError(http.StatusBadRequest, "Invalid form", err)
	}

	if _, err := h.manager.Fill(r.Context(), sessionID, r.PostForm.Get("username")); err != nil {
		if errors.Is(err, viewer.ErrUnknownDemoKey) {
			return middleware.NewAppError(http.StatusBadRequest, "Unknown demo username", err)
		}
		return middleware.NewAppError(http.StatusInternalServerError, "Could not update session", err)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
	return nil
}

func (h *ViewerHandler) SearchAPIHandler(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/json")
	sessionID, err := requireSession(r)
	if err != nil {
		return err
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return middleware.NewAppError(http.StatusBadRequest, "Invalid request payload", err)
	}

	state, err := h.manager.Search(r.Context(), sessionID, req.Username)
	if err != nil {
		return middleware.NewAppError(http.StatusInternalServerError, "Could not complete search", err)
	}
	if state.Error != "" {
		if state.Error == viewer.Message(viewer.ErrEmptyInput) {
			return middleware.NewAppError(http.StatusBadRequest, state.Error, viewer.ErrEmptyInput)
		}
		return middleware.NewAppError(http.StatusNotFound, state.Error, viewer.ErrNotFound)
	}

	json.NewEncoder(w).Encode(viewer.Select(state))
	return nil
}

func (h *ViewerHandler) ProfileHandler(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/json")
	username := mux.Vars(r)["username"]

	outcome := h.manager.Resolver().Resolve(r.Context(), username)
	switch {
	case outcome.Err == nil:
	case errors.Is(outcome.Err, viewer.ErrEmptyInput):
		return middleware.NewAppError(http.StatusBadRequest, viewer.Message(outcome.Err), outcome.Err)
	case errors.Is(outcome.Err, viewer.ErrNotFound):
		return middleware.NewAppError(http.StatusNotFound, viewer.Message(outcome.Err), outcome.Err)
	default:
		return middleware.NewAppError(http.StatusServiceUnavailable, "Lookup cancelled", outcome.Err)
	}

	json.NewEncoder(w).Encode(viewer.Select(models.QueryState{Input: username, Record: outcome.Record}))
	return nil
}

func (h *ViewerHandler) SessionHandler(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/json")
	sessionID, err := requireSession(r)
	if err != nil {
		return err
	}

	state, err := h.manager.State(r.Context(), sessionID)
	if err != nil {
		return middleware.NewAppError(http.StatusInternalServerError, "Could not load session", err)
	}

	json.NewEncoder(w).Encode(viewer.Select(state))
	return nil
}

func DemoUsernamesHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(JSONResponse{"usernames": catalog.Keys()})
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(JSONResponse{"status": "ok"})
}

func requireSession(r *http.Request) (string, error) {
	sessionID, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		return "", middleware.NewAppError(http.StatusInternalServerError, "Session unavailable", errors.New("request has no session id"))
	}
	return sessionID, nil
}
