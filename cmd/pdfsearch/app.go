package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfsearch/internal/config"
	dbRedis "github.com/kailas-cloud/pdfsearch/internal/db/redis"
	"github.com/kailas-cloud/pdfsearch/internal/domain"
	logpkg "github.com/kailas-cloud/pdfsearch/internal/logger"
	"github.com/kailas-cloud/pdfsearch/internal/metrics"
	documentrepo "github.com/kailas-cloud/pdfsearch/internal/repository/document"
	"github.com/kailas-cloud/pdfsearch/internal/repository/embcache"
	indexrepo "github.com/kailas-cloud/pdfsearch/internal/repository/index"
	searchrepo "github.com/kailas-cloud/pdfsearch/internal/repository/search"
	openaiEmb "github.com/kailas-cloud/pdfsearch/internal/transport/openai"
	"github.com/kailas-cloud/pdfsearch/internal/transport/placeholder"
	documentuc "github.com/kailas-cloud/pdfsearch/internal/usecase/document"
	embeddinguc "github.com/kailas-cloud/pdfsearch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/pdfsearch/internal/usecase/health"
	"github.com/kailas-cloud/pdfsearch/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/pdfsearch/internal/usecase/search"
)

type rootOptions struct {
	configPath string
}

// runtimeEnv is what every subcommand needs before touching the store.
type runtimeEnv struct {
	env    string
	cfg    config.Config
	logger *zap.Logger
}

func loadRuntime(opts *rootOptions) (*runtimeEnv, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err //nolint:wrapcheck // already wrapped by config
	}
	env := config.GetEnv()

	var (
		cfg config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	logpkg.SetDefault(logger)
	return &runtimeEnv{env: env, cfg: cfg, logger: logger}, nil
}

func connectStore(ctx context.Context, rt *runtimeEnv) (*dbRedis.Store, error) {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    rt.cfg.Database.Addrs,
		Password: rt.cfg.Database.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}
	if err := store.WaitForReady(ctx, rt.cfg.Database.ReadyTimeout()); err != nil {
		store.Close()
		return nil, fmt.Errorf("store not ready: %w", err)
	}
	rt.logger.Info("Connected to store", zap.Strings("addrs", rt.cfg.Database.Addrs))
	return store, nil
}

// app is the composition root shared by serve and ingest.
type app struct {
	store     *dbRedis.Store
	index     *indexrepo.Repo
	search    *searchuc.Service
	documents *documentuc.Service
	health    *healthuc.Service
	pipeline  *ingest.Pipeline
}

func newApp(ctx context.Context, rt *runtimeEnv) (*app, error) {
	store, err := connectStore(ctx, rt)
	if err != nil {
		return nil, err
	}

	metrics.Register()

	cfg := rt.cfg
	instrumented, err := buildEmbedder(&cfg, store, rt.logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	queryEmbedder := domain.NewInstructionEmbedder(instrumented, cfg.Embedding.QueryInstruction)
	docEmbedder, ok := domain.NewInstructionEmbedder(instrumented, cfg.Embedding.DocumentInstruction).(embeddinguc.Provider)
	if !ok {
		store.Close()
		return nil, errors.New("document embedder does not accept images")
	}
	rt.logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cache", cfg.Embedding.Cache),
	)

	index, err := newIndexRepo(store, &cfg.Search)
	if err != nil {
		store.Close()
		return nil, err
	}
	docPrefix := documentrepo.KeyPrefix(cfg.Search.KeyPrefix)
	docRepo := documentrepo.New(store, docPrefix)

	fusion, err := searchuc.ParseFusion(cfg.Search.Fusion)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("search fusion: %w", err)
	}
	searchSvc := searchuc.New(searchrepo.New(store, cfg.Search.IndexName, docPrefix), queryEmbedder,
		searchuc.Options{
			Fusion:       fusion,
			VectorWeight: cfg.Search.VectorWeight,
			Candidates:   cfg.Search.VectorCandidates,
			Timeout:      cfg.Search.Timeout(),
		})

	pipeline, err := ingest.NewPipeline(docRepo, embeddinguc.NewDispatcher(docEmbedder),
		ingest.WithPoolSize(cfg.Ingest.Workers),
		ingest.WithBatchSize(cfg.Ingest.BatchSize),
		ingest.WithRetry(cfg.Ingest.MaxRetries, cfg.Ingest.RetryBaseDelay()),
		ingest.WithRequestTimeout(cfg.Ingest.RequestTimeout()),
		ingest.WithLogger(rt.logger),
	)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create pipeline: %w", err)
	}

	return &app{
		store:     store,
		index:     index,
		search:    searchSvc,
		documents: documentuc.New(docRepo),
		health:    healthuc.New(store, index, instrumented),
		pipeline:  pipeline,
	}, nil
}

func (a *app) Close() {
	a.pipeline.Release()
	a.store.Close()
}

// buildEmbedder assembles the decorator chain: provider -> cached -> instrumented.
// Instruction prefixes are applied per role by the caller, outside the cache.
func buildEmbedder(
	cfg *config.Config,
	store *dbRedis.Store,
	logger *zap.Logger,
) (*embeddinguc.InstrumentedEmbedder, error) {
	var base domain.Embedder
	switch cfg.Embedding.Provider {
	case config.ProviderOpenAI:
		base = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   cfg.Embedding.Provider,
			Logger:     logger,
		})
	case config.ProviderPlaceholder:
		p, err := placeholder.New(cfg.Embedding.Dimensions)
		if err != nil {
			return nil, fmt.Errorf("placeholder embedder: %w", err)
		}
		base = p
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}

	embedder := base
	if cfg.Embedding.Cache {
		embedder = embcache.New(base, store, embcache.Options{
			KeyPrefix: cfg.Search.KeyPrefix,
			Model:     cfg.Embedding.Provider + "/" + cfg.Embedding.Model,
			TTL:       cfg.Embedding.CacheTTL(),
		}, metrics.EmbeddingCacheTotal, logger)
	}

	return embeddinguc.NewInstrumentedEmbedder(
		embedder, cfg.Embedding.Provider, cfg.Embedding.Model,
		cfg.Embedding.Dimensions, cfg.Embedding.Timeout(), logger,
	), nil
}
