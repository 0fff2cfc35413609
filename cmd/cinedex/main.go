package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cinedex/cinedex/internal/config"
	logpkg "github.com/cinedex/cinedex/internal/logger"
	"github.com/cinedex/cinedex/internal/metrics"
	"github.com/cinedex/cinedex/internal/repository/catalog"
	chiTransport "github.com/cinedex/cinedex/internal/transport/chi"
	"github.com/cinedex/cinedex/internal/transport/tmdb"
	"github.com/cinedex/cinedex/internal/usecase/ingest"
	"github.com/cinedex/cinedex/internal/usecase/query"
	"github.com/cinedex/cinedex/internal/version"
)

func main() {
	// .env is optional; the real environment wins over it.
	_ = godotenv.Load()

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve":
		runServe(cfg, env, logger)
	case "fetch":
		runFetch(cfg, logger)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\nusage: cinedex [serve|fetch]\n", cmd)
		os.Exit(2)
	}
}

// runFetch pulls popular movies from TMDB and writes the catalog file.
func runFetch(cfg config.Config, logger *zap.Logger) {
	logger.Info("Starting cinedex fetch",
		zap.String("version", version.Version),
		zap.Int("count", cfg.Fetch.Count),
		zap.String("catalog", cfg.Catalog.Path),
		zap.String("on_error", cfg.Fetch.OnError),
	)

	policy, err := ingest.PolicyFromString(cfg.Fetch.OnError)
	if err != nil {
		logger.Fatal("Invalid fetch policy", zap.Error(err))
	}

	// Register fetch metrics explicitly (no init())
	metrics.RegisterFetchMetrics()

	client := tmdb.NewClient(&tmdb.Config{
		APIToken:       cfg.TMDB.APIToken,
		BaseURL:        cfg.TMDB.BaseURL,
		Language:       cfg.TMDB.Language,
		RequestsPerSec: cfg.TMDB.RequestsPerSec,
		CacheSize:      cfg.TMDB.CacheSize,
		CacheTTL:       time.Duration(cfg.TMDB.CacheTTLSec) * time.Second,
		Logger:         logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := ingest.New(client, catalog.NewStore(), logger).WithPolicy(policy)
	summary, err := svc.Run(ctx, cfg.Fetch.Count, cfg.Catalog.Path)
	if err != nil {
		logger.Fatal("Fetch failed", zap.Error(err))
	}

	logger.Info("Catalog written",
		zap.Int("fetched", summary.Fetched),
		zap.Int("skipped", summary.Skipped),
		zap.String("path", cfg.Catalog.Path),
	)
}

// runServe loads the catalog and starts the query API.
func runServe(cfg config.Config, env string, logger *zap.Logger) {
	logger.Info("Starting cinedex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("catalog", cfg.Catalog.Path),
	)

	records, err := catalog.NewStore().Load(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal("Failed to load catalog", zap.Error(err))
	}
	logger.Info("Catalog loaded", zap.Int("movies", len(records)))

	// Query engine — composition root installs the built-in algorithms.
	queries := query.New(records, logger)
	query.RegisterBuiltins(queries)

	server := chiTransport.NewServer(queries, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
