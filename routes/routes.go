package routes

import (
	"time"

	"profile-viewer/config"
	"profile-viewer/handlers"
	"profile-viewer/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

const limiterIdle = 10 * time.Minute

func SetupRoutes(cfg config.Config, viewerHandler *handlers.ViewerHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestLogger)

	limiters := middleware.NewLimiters(rate.Limit(cfg.RateLimit.SearchesPerSecond), cfg.RateLimit.Burst, limiterIdle)
	limited := middleware.RateLimit(limiters)

	router.Handle("/api/v1/profiles/{username}", limited(middleware.ErrorHandler(viewerHandler.ProfileHandler))).Methods("GET")
	router.HandleFunc("/api/v1/demo-usernames", handlers.DemoUsernamesHandler).Methods("GET")
	router.HandleFunc("/api/v1/health", handlers.HealthHandler).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// must stay last: an unmatched subrouter leaves ErrNotFound on the match
	pages := router.NewRoute().Subrouter()
	pages.Use(middleware.Session(cfg))
	pages.Handle("/", middleware.ErrorHandler(viewerHandler.PageHandler)).Methods("GET")
	pages.Handle("/search", limited(middleware.ErrorHandler(viewerHandler.SearchFormHandler))).Methods("POST")
	pages.Handle("/fill", middleware.ErrorHandler(viewerHandler.FillHandler)).Methods("POST")
	pages.Handle("/api/v1/search", limited(middleware.ErrorHandler(viewerHandler.SearchAPIHandler))).Methods("POST")
	pages.Handle("/api/v1/session", middleware.ErrorHandler(viewerHandler.SessionHandler)).Methods("GET")

	return router
}
