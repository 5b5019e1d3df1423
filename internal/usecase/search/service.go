package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/pdfsearch/internal/domain"
	"github.com/kailas-cloud/pdfsearch/internal/domain/search/query"
	"github.com/kailas-cloud/pdfsearch/internal/domain/search/request"
	"github.com/kailas-cloud/pdfsearch/internal/domain/search/result"
	"github.com/kailas-cloud/pdfsearch/internal/logger"
	"github.com/kailas-cloud/pdfsearch/internal/metrics"
)

// DefaultTimeout bounds one search including query embedding.
const DefaultTimeout = 30 * time.Second

// Options tunes blending and latency bounds.
type Options struct {
	Fusion       Fusion
	VectorWeight float64 // weighted fusion only, in [0,1]
	Candidates   int     // per-clause over-fetch floor
	Timeout      time.Duration
}

// Response is one ranked page of hits.
type Response struct {
	Hits []result.Result
	Took time.Duration
}

// Service runs hybrid keyword + vector search with deterministic blending.
type Service struct {
	repo    Repository
	embed   Embedder
	builder *query.Builder
	opts    Options
}

// New creates a search service.
func New(repo Repository, embed Embedder, opts Options) *Service {
	if opts.Fusion == "" {
		opts.Fusion = FusionWeighted
	}
	if opts.VectorWeight < 0 || opts.VectorWeight > 1 {
		opts.VectorWeight = 0.5
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Service{
		repo:    repo,
		embed:   embed,
		builder: query.NewBuilder(opts.Candidates),
		opts:    opts,
	}
}

// Search executes req. The lexical clause and the embed-then-vector clause run
// concurrently; any clause failure fails the whole request.
func (s *Service) Search(ctx context.Context, req *request.Request) (Response, error) {
	start := time.Now()
	modeLabel := string(req.Mode())

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	hits, err := s.search(ctx, req)
	took := time.Since(start)
	metrics.SearchDuration.WithLabelValues(modeLabel).Observe(took.Seconds())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(modeLabel, "error").Inc()
		return Response{}, classify(err)
	}
	metrics.SearchRequestsTotal.WithLabelValues(modeLabel, "ok").Inc()

	logger.FromContext(ctx).Debug("Search completed",
		zap.String("mode", modeLabel),
		zap.Bool("blank", req.IsBlank()),
		zap.Int("k", req.K()),
		zap.Int("hits", len(hits)),
		zap.Duration("took", took),
	)

	return Response{Hits: hits, Took: took}, nil
}

func (s *Service) search(ctx context.Context, req *request.Request) ([]result.Result, error) {
	plan := s.builder.Build(req, nil)

	if !s.builder.NeedsEmbedding(req) {
		lex, err := s.repo.Lexical(ctx, &plan)
		if err != nil {
			return nil, fmt.Errorf("lexical clause: %w", err)
		}
		return lexicalOnly(lex, plan.Size), nil
	}

	var lex, vec []result.Result
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		lex, err = s.repo.Lexical(gctx, &plan)
		if err != nil {
			return fmt.Errorf("lexical clause: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		emb, err := s.embed.Embed(gctx, req.Query())
		if err != nil {
			return fmt.Errorf("vectorize query: %w", err)
		}
		domain.UsageFromContext(gctx).AddTokens(emb.TotalTokens)
		vplan := s.builder.Build(req, emb.Embedding)
		vec, err = s.repo.Vector(gctx, &vplan)
		if err != nil {
			return fmt.Errorf("vector clause: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // clause errors are wrapped above
	}

	if s.opts.Fusion == FusionRRF {
		return fuseRRF(lex, vec, plan.Size), nil
	}
	return fuseWeighted(lex, vec, s.opts.VectorWeight, plan.Size), nil
}

// classify turns timeouts and unclassified store failures into retryable
// upstream errors. Interactive search never retries internally.
func classify(err error) error {
	switch {
	case errors.Is(err, domain.ErrUpstreamUnavailable),
		errors.Is(err, domain.ErrEmbeddingProviderError),
		errors.Is(err, domain.ErrVectorDimMismatch),
		errors.Is(err, domain.ErrInvalidRequest):
		return err
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}
}
