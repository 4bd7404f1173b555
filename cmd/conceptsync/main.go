// Command conceptsync keeps the concept collection in sync with the upstream
// concept feed: a full wipe-and-reingest once a day, or a single run with -once.
package main

import (
	"context"
	"errors"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kuaixun/fusearch/internal/config"
	"github.com/kuaixun/fusearch/internal/domain"
	logpkg "github.com/kuaixun/fusearch/internal/logger"
	"github.com/kuaixun/fusearch/internal/metrics"
	"github.com/kuaixun/fusearch/internal/milvus"
	"github.com/kuaixun/fusearch/internal/redis"
	"github.com/kuaixun/fusearch/internal/repository/embcache"
	"github.com/kuaixun/fusearch/internal/transport/bgem3"
	"github.com/kuaixun/fusearch/internal/transport/conceptfeed"
	conceptuc "github.com/kuaixun/fusearch/internal/usecase/concept"
	ingestuc "github.com/kuaixun/fusearch/internal/usecase/ingest"
	"github.com/kuaixun/fusearch/internal/version"
)

func main() {
	once := flag.Bool("once", false, "run a single refresh and exit")
	flag.Parse()

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

	logger.Info("Starting concept sync",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Bool("once", *once),
		zap.Int("refresh_hour", cfg.Concept.RefreshHour),
	)

	metrics.RegisterEmbeddingMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := milvus.NewStore(cfg.Milvus, logger)
	if err != nil {
		logger.Fatal("Failed to create milvus store", zap.Error(err))
	}
	defer func() { _ = store.Close(context.Background()) }()

	schema := domain.ConceptSchema(cfg.Concept.Collection, cfg.Embedding.Dimensions)
	if err := store.EnsureDatabase(ctx, cfg.Concept.Database); err != nil {
		logger.Fatal("Failed to ensure database", zap.Error(err))
	}
	if err := store.EnsureCollection(ctx, cfg.Concept.Database, schema); err != nil {
		logger.Fatal("Failed to ensure collection", zap.Error(err))
	}

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
		embedder = embcache.New(embClient, kv, metrics.EmbeddingCacheTotal, logger)
	}

	feed, err := conceptfeed.NewClient(conceptfeed.Config{
		Endpoint: cfg.Concept.Feed.Endpoint,
		Token:    cfg.Concept.Feed.Token,
		Timeout:  time.Duration(cfg.Concept.Feed.TimeoutSec) * time.Second,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create concept feed client", zap.Error(err))
	}

	ingestSvc := ingestuc.New(store, embedder, logger)
	refresher := conceptuc.NewRefresher(
		feed, ingestSvc, schema,
		cfg.Concept.Database, cfg.Concept.RefreshHour, cfg.Concept.BatchSize, logger,
	)

	if *once {
		if err := refresher.Refresh(ctx); err != nil {
			logger.Fatal("Refresh failed", zap.Error(err))
		}
		logger.Info("Refresh complete")
		return
	}

	if err := refresher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("Refresh loop stopped", zap.Error(err))
	}
	logger.Info("Concept sync stopped")
}
