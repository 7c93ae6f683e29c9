package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"profile-viewer/config"
	"profile-viewer/handlers"
	"profile-viewer/render"
	"profile-viewer/routes"
	"profile-viewer/secretmanager"
	"profile-viewer/store"
	"profile-viewer/telemetry"
	"profile-viewer/viewer"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

var (
	loadEnv        = godotenv.Load
	loadConfig     = config.Load
	initLogger     = telemetry.InitLogger
	initTelemetry  = telemetry.Init
	newValkeyStore = store.NewValkeyStore
	setupRoutes    = routes.SetupRoutes
	getSecret      = secretmanager.GetSecret
	serve          = serveUntilSignal
	logFatal       = func(err error) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
)

const shutdownTimeout = 10 * time.Second

func loadProdSecrets() error {
	secretJSON, err := getSecret("prod/valkey")
	if err != nil {
		telemetry.Logger(context.Background()).Warn("Valkey secret unavailable; using in-memory session state", zap.Error(err))
		return nil
	}

	secrets := make(map[string]string)
	if err := json.Unmarshal([]byte(secretJSON), &secrets); err != nil {
		return fmt.Errorf("error parsing Valkey secret JSON: %w", err)
	}
	for key, value := range secrets {
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("error setting %s: %w", key, err)
		}
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		logFatal(err)
	}
}

func run() error {
	envErr := loadEnv()
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "dev"
	}

	if appEnv == "prod" {
		if err := loadProdSecrets(); err != nil {
			return err
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, err := initLogger(cfg.Telemetry.ServiceName, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger error: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	if envErr != nil {
		logger.Info("No .env file found; using system environment variables")
	}
	logger.Info("Environment", zap.String("app_env", cfg.AppEnv))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := initTelemetry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("telemetry error: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Error("telemetry shutdown failed", zap.Error(err))
		}
	}()

	states, err := newStateStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer states.Close()

	manager := viewer.NewManager(viewer.NewResolver(cfg.Lookup.Latency), states)
	defer manager.Close()

	page, err := render.NewHTML()
	if err != nil {
		return fmt.Errorf("template error: %w", err)
	}

	viewerHandler := handlers.NewViewerHandler(cfg, manager, page)
	router := setupRoutes(cfg, viewerHandler)

	corsOpts := []gorillaHandlers.CORSOption{
		gorillaHandlers.AllowedOrigins(cfg.CORS.AllowedOrigins),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "X-Requested-With"}),
		gorillaHandlers.AllowCredentials(),
	}
	handler := otelhttp.NewHandler(gorillaHandlers.CORS(corsOpts...)(router), cfg.Telemetry.ServiceName)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("Starting server",
		zap.String("port", port),
		zap.String("app_env", cfg.AppEnv),
		zap.Duration("lookup_latency", cfg.Lookup.Latency),
		zap.String("cors", strings.Join(cfg.CORS.AllowedOrigins, ",")),
	)
	return serve(ctx, srv)
}

func newStateStore(ctx context.Context, cfg config.Config) (store.StateStore, error) {
	if cfg.Valkey.Addr == "" {
		memory := store.NewMemoryStore(cfg.Session.TTL)
		go memory.RunSweeper(ctx, time.Minute)
		return memory, nil
	}

	valkeyStore, err := newValkeyStore(cfg.Valkey, cfg.Session.TTL)
	if err != nil {
		return nil, fmt.Errorf("valkey connection error: %w", err)
	}
	return valkeyStore, nil
}

func serveUntilSignal(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	telemetry.Logger(ctx).Info("received signal, shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
