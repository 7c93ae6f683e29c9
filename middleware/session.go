package middleware

import (
	"context"
	"net/http"

	"profile-viewer/config"

	"github.com/google/uuid"
)

type contextKey string

const sessionIDKey contextKey = "sessionID"

func Session(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := sessionFromRequest(r, cfg.Session.CookieName)
			if sessionID == "" {
				sessionID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.Session.CookieName,
					Value:    sessionID,
					Path:     cfg.Cookie.Path,
					Domain:   cfg.Cookie.Domain,
					MaxAge:   int(cfg.Session.TTL.Seconds()),
					HttpOnly: true,
					Secure:   cfg.Cookie.Secure,
					SameSite: cfg.Cookie.SameSite,
				})
			}

			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), sessionID)))
		})
	}
}

func SessionFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok && id != ""
}

func ContextWithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// sessionFromRequest accepts only well-formed ids so a forged cookie cannot
// pick arbitrary store keys.
func sessionFromRequest(r *http.Request, cookieName string) string {
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return ""
	}
	return cookie.Value
}
