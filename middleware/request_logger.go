package middleware

import (
	"net/http"
	"strconv"
	"time"

	"profile-viewer/telemetry"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics := httpsnoop.CaptureMetrics(next, w, r)
		duration := metrics.Duration
		if duration == 0 {
			duration = time.Since(start)
		}

		route := routeTemplate(r)
		telemetry.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(metrics.Code)).Inc()

		telemetry.Logger(r.Context()).Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("route", route),
			zap.Int("status", metrics.Code),
			zap.Duration("duration", duration),
			zap.Int64("bytes", metrics.Written),
		)
	})
}

// routeTemplate keeps metric labels bounded: /api/v1/profiles/{username}
// rather than one label per username.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
