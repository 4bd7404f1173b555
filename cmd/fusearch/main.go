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
	"go.uber.org/zap"

	"github.com/kuaixun/fusearch/internal/config"
	"github.com/kuaixun/fusearch/internal/domain"
	logpkg "github.com/kuaixun/fusearch/internal/logger"
	"github.com/kuaixun/fusearch/internal/metrics"
	"github.com/kuaixun/fusearch/internal/milvus"
	"github.com/kuaixun/fusearch/internal/redis"
	"github.com/kuaixun/fusearch/internal/repository/embcache"
	"github.com/kuaixun/fusearch/internal/transport/bgem3"
	"github.com/kuaixun/fusearch/internal/transport/httpapi"
	conceptuc "github.com/kuaixun/fusearch/internal/usecase/concept"
	ingestuc "github.com/kuaixun/fusearch/internal/usecase/ingest"
	jobuc "github.com/kuaixun/fusearch/internal/usecase/job"
	searchuc "github.com/kuaixun/fusearch/internal/usecase/search"
	"github.com/kuaixun/fusearch/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting fusearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("milvus_addr", cfg.Milvus.Address),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterHTTPMetrics()

	ctx := context.Background()

	store, err := milvus.NewStore(cfg.Milvus, logger)
	if err != nil {
		logger.Fatal("Failed to create milvus store", zap.Error(err))
	}
	defer func() { _ = store.Close(ctx) }()

	conceptSchema := domain.ConceptSchema(cfg.Concept.Collection, cfg.Embedding.Dimensions)
	jobSchema := domain.JobRequirementSchema(cfg.Job.Collection, cfg.Embedding.Dimensions)

	if err := bootstrap(ctx, store, cfg, conceptSchema, jobSchema); err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	logger.Info("Storage initialized",
		zap.String("concept_collection", cfg.Concept.Collection),
		zap.String("job_collection", cfg.Job.Collection),
	)

	embClient, err := bgem3.NewClient(bgem3.Config{
		Endpoint:   cfg.Embedding.Endpoint,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create embedding client", zap.Error(err))
	}

	var embedder domain.Embedder = embClient
	if cfg.Embedding.Cache.Enabled {
		kv, err := redis.NewStore(cfg.Embedding.Cache.Redis)
		if err != nil {
			logger.Fatal("Failed to create embedding cache store", zap.Error(err))
		}
		defer kv.Close()
		if err := kv.Ping(ctx); err != nil {
			logger.Fatal("Embedding cache not reachable", zap.Error(err))
		}
		embedder = embcache.New(embClient, kv, metrics.EmbeddingCacheTotal, logger)
		logger.Info("Embedding cache enabled", zap.Strings("addrs", cfg.Embedding.Cache.Redis.Addrs))
	}

	searchSvc := searchuc.New(store, embedder)
	ingestSvc := ingestuc.New(store, embedder, logger)
	conceptSvc := conceptuc.New(searchSvc, cfg.Concept.Database, cfg.Concept.Collection)
	jobSvc := jobuc.New(searchSvc, ingestSvc, jobSchema, cfg.Job.Database, cfg.Job.BatchSize)

	server := httpapi.NewServer(conceptSvc, jobSvc, jobSvc, map[string]httpapi.HealthChecker{
		"milvus":    store.Ping,
		"embedding": embClient.HealthCheck,
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Register(r)

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

// bootstrap ensures every database and collection the services depend on
// exists before traffic is accepted.
func bootstrap(ctx context.Context, store *milvus.Store, cfg config.Config, schemas ...domain.Schema) error {
	databases := []string{cfg.Concept.Database}
	if cfg.Job.Database != cfg.Concept.Database {
		databases = append(databases, cfg.Job.Database)
	}
	for _, db := range databases {
		if err := store.EnsureDatabase(ctx, db); err != nil {
			return fmt.Errorf("ensure database %s: %w", db, err)
		}
	}

	dbBySchema := map[string]string{
		cfg.Concept.Collection: cfg.Concept.Database,
		cfg.Job.Collection:     cfg.Job.Database,
	}
	for _, schema := range schemas {
		if err := store.EnsureCollection(ctx, dbBySchema[schema.Name], schema); err != nil {
			return fmt.Errorf("ensure collection %s: %w", schema.Name, err)
		}
	}
	return nil
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
					_ = json.NewEncoder(w).Encode(map[string]any{
						"code":    http.StatusInternalServerError,
						"message": "internal error",
						"data":    nil,
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

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
