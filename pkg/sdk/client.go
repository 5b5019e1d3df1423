package pdfsearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfsearch/internal/db"
	dbRedis "github.com/kailas-cloud/pdfsearch/internal/db/redis"
	"github.com/kailas-cloud/pdfsearch/internal/domain"
	dombatch "github.com/kailas-cloud/pdfsearch/internal/domain/batch"
	domdoc "github.com/kailas-cloud/pdfsearch/internal/domain/document"
	"github.com/kailas-cloud/pdfsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/pdfsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/pdfsearch/internal/domain/search/request"
	"github.com/kailas-cloud/pdfsearch/internal/domain/search/result"
	documentrepo "github.com/kailas-cloud/pdfsearch/internal/repository/document"
	indexrepo "github.com/kailas-cloud/pdfsearch/internal/repository/index"
	searchrepo "github.com/kailas-cloud/pdfsearch/internal/repository/search"
	"github.com/kailas-cloud/pdfsearch/internal/transport/placeholder"
	documentuc "github.com/kailas-cloud/pdfsearch/internal/usecase/document"
	embeddinguc "github.com/kailas-cloud/pdfsearch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/pdfsearch/internal/usecase/health"
	"github.com/kailas-cloud/pdfsearch/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/pdfsearch/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, swapped for fakes in tests.
type searchUseCase interface {
	Search(ctx context.Context, req *request.Request) (searchuc.Response, error)
}

type ingestUseCase interface {
	Ingest(ctx context.Context, src ingest.Source) (dombatch.Summary, error)
	IngestRecords(ctx context.Context, raws []map[string]any) dombatch.Summary
	Release()
}

type documentUseCase interface {
	Get(ctx context.Context, id string) (domdoc.Document, error)
	Delete(ctx context.Context, id string) error
}

type indexManager interface {
	Create(ctx context.Context) error
	Drop(ctx context.Context) error
}

// Client is the pdfsearch SDK entry point.
type Client struct {
	store     db.Store
	index     indexManager
	searchSvc searchUseCase
	ingestSvc ingestUseCase
	docSvc    documentUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client and connects to Redis.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultClientConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("pdfsearch: redis address required (use WithRedis)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("pdfsearch: create redis store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("pdfsearch: database not ready: %w", err)
	}

	c, err := wireClient(store, cfg, obs)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	fusion, err := searchuc.ParseFusion(cfg.fusion)
	if err != nil {
		return nil, fmt.Errorf("pdfsearch: %w", err)
	}

	algo, err := indexrepo.ParseAlgorithm(cfg.vectorAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("pdfsearch: %w", err)
	}
	docPrefix := documentrepo.KeyPrefix(cfg.keyPrefix)
	index := indexrepo.New(store, cfg.indexName, docPrefix, cfg.vectorDimensions).WithAlgorithm(algo)
	if cfg.hnswM > 0 || cfg.hnswEFConstruct > 0 {
		index = index.WithHNSW(indexrepo.HNSWConfig{
			M:           cfg.hnswM,
			EFConstruct: cfg.hnswEFConstruct,
		})
	}
	docRepo := documentrepo.New(store, docPrefix)

	searchSvc := searchuc.New(searchrepo.New(store, cfg.indexName, docPrefix), embedder, searchuc.Options{
		Fusion:       fusion,
		VectorWeight: cfg.vectorWeight,
	})

	ingestOpts := []ingest.Option{ingest.WithBatchSize(cfg.batchSize)}
	if cfg.workers > 0 {
		ingestOpts = append(ingestOpts, ingest.WithPoolSize(cfg.workers))
	}
	pipeline, err := ingest.NewPipeline(docRepo, embeddinguc.NewDispatcher(embedder), ingestOpts...)
	if err != nil {
		return nil, fmt.Errorf("pdfsearch: %w", err)
	}

	return &Client{
		store:     store,
		index:     index,
		searchSvc: searchSvc,
		ingestSvc: pipeline,
		docSvc:    documentuc.New(docRepo),
		healthSvc: healthuc.New(store, index, embedder),
		obs:       obs,
	}, nil
}

// newEmbedder wraps the configured provider, or the placeholder, with the
// dimension check shared by the server.
func newEmbedder(cfg *clientConfig) (*embeddinguc.InstrumentedEmbedder, error) {
	var inner domain.Embedder
	name := "custom"
	if cfg.embedder != nil {
		inner = &embedderAdapter{inner: cfg.embedder}
	} else {
		p, err := placeholder.New(cfg.vectorDimensions)
		if err != nil {
			return nil, fmt.Errorf("pdfsearch: %w", err)
		}
		inner = p
		name = placeholder.ProviderName
	}
	return embeddinguc.NewInstrumentedEmbedder(inner, name, name, cfg.vectorDimensions, 0, zap.NewNop()), nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.ingestSvc != nil {
		c.ingestSvc.Release()
	}
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	sp := c.obs.begin("ping")
	defer func() { sp.end(err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// EnsureIndex creates the search index unless it already exists.
func (c *Client) EnsureIndex(ctx context.Context) (err error) {
	sp := c.obs.begin("ensure_index")
	defer func() { sp.end(err) }()

	if err = c.index.Create(ctx); err != nil && !errors.Is(err, domain.ErrIndexExists) {
		return fmt.Errorf("ensure index: %w", err)
	}
	return nil
}

// DropIndex removes the search index. Stored documents are kept.
func (c *Client) DropIndex(ctx context.Context) (err error) {
	sp := c.obs.begin("drop_index")
	defer func() { sp.end(err) }()

	if err = c.index.Drop(ctx); err != nil {
		return fmt.Errorf("drop index: %w", err)
	}
	return nil
}

// Search runs a hybrid keyword and vector search.
func (c *Client) Search(ctx context.Context, sr SearchRequest) (resp SearchResponse, err error) {
	sp := c.obs.begin("search")
	defer func() { sp.end(err) }()

	req, err := toInternalRequest(sr)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("search: %w: %w", domain.ErrInvalidRequest, err)
	}
	out, err := c.searchSvc.Search(ctx, &req)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("search: %w", err)
	}

	hits := make([]Hit, len(out.Hits))
	for i := range out.Hits {
		hits[i] = fromInternalResult(&out.Hits[i])
	}
	sp.set("hits", len(hits))
	return SearchResponse{Hits: hits, TookMs: out.Took.Milliseconds()}, nil
}

// Index normalizes, embeds and stores records shaped like the PDF parser's
// output. Invalid records are reported per record; they never fail the call.
func (c *Client) Index(ctx context.Context, records []map[string]any) IndexResult {
	sp := c.obs.begin("index")
	res := fromSummary(c.ingestSvc.IngestRecords(ctx, records))
	sp.records(res.Indexed, len(res.Failures))
	sp.end(firstFailure(res))
	return res
}

// IngestJSONL streams newline-delimited JSON records from r into the index.
func (c *Client) IngestJSONL(ctx context.Context, r io.Reader) (res IndexResult, err error) {
	sp := c.obs.begin("ingest")
	defer func() { sp.end(err) }()

	summary, err := c.ingestSvc.Ingest(ctx, ingest.NewJSONLSource(r))
	res = fromSummary(summary)
	sp.records(res.Indexed, len(res.Failures))
	if err != nil {
		return res, fmt.Errorf("ingest: %w", err)
	}
	return res, nil
}

// GetDocument returns the stored block for an identity.
func (c *Client) GetDocument(ctx context.Context, id string) (doc Document, err error) {
	sp := c.obs.begin("get_document")
	defer func() { sp.end(err) }()

	d, err := c.docSvc.Get(ctx, id)
	if err != nil {
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	return fromInternalDocument(id, &d), nil
}

// DeleteDocument removes the stored block for an identity.
func (c *Client) DeleteDocument(ctx context.Context, id string) (err error) {
	sp := c.obs.begin("delete_document")
	defer func() { sp.end(err) }()

	if err = c.docSvc.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

func toInternalRequest(sr SearchRequest) (request.Request, error) {
	var conds []filter.Condition
	if id := strings.TrimSpace(sr.PDFID); id != "" {
		c, err := filter.NewMatch("pdf_id", id)
		if err != nil {
			return request.Request{}, fmt.Errorf("pdf_id: %w", err)
		}
		conds = append(conds, c)
	}
	filters, err := filter.NewExpression(conds...)
	if err != nil {
		return request.Request{}, fmt.Errorf("filters: %w", err)
	}

	k := sr.K
	if k == 0 {
		k = request.DefaultK
	}
	req, err := request.New(sr.Query, mode.FromUseVector(!sr.KeywordOnly), filters, k, request.MaxK)
	if err != nil {
		return request.Request{}, fmt.Errorf("build request: %w", err)
	}
	return req, nil
}

func fromInternalResult(r *result.Result) Hit {
	d := r.Document()
	return Hit{
		ID:        r.ID(),
		Score:     r.Score(),
		PDFID:     d.PDFID,
		Page:      d.Page,
		Type:      string(d.Type),
		Text:      d.Text,
		TableText: d.TableText,
		BBox:      d.BBox,
		Metadata:  d.Metadata,
	}
}

func fromInternalDocument(id string, d *domdoc.Document) Document {
	return Document{
		ID:        id,
		PDFID:     d.PDFID,
		Page:      d.Page,
		Type:      string(d.Type),
		Text:      d.Text,
		TableText: d.TableText,
		BBox:      d.BBox,
		Metadata:  d.Metadata,
	}
}

func fromSummary(s dombatch.Summary) IndexResult {
	res := IndexResult{Indexed: s.Indexed}
	for _, f := range s.Failures {
		res.Failures = append(res.Failures, IndexFailure{
			Index: f.Index(),
			PDFID: f.PDFID(),
			Err:   f.Err(),
		})
	}
	return res
}

func firstFailure(r IndexResult) error {
	if len(r.Failures) == 0 {
		return nil
	}
	return r.Failures[0].Err
}

// embedderAdapter wraps the public Embedder to satisfy the internal contracts.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
	}
	return toInternalEmbedding(r), nil
}

func (a *embedderAdapter) EmbedImage(ctx context.Context, image []byte) (domain.EmbeddingResult, error) {
	ie, ok := a.inner.(ImageEmbedder)
	if !ok {
		return domain.EmbeddingResult{}, domain.ErrImageEmbeddingUnsupported
	}
	r, err := ie.EmbedImage(ctx, image)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
	}
	return toInternalEmbedding(r), nil
}

func toInternalEmbedding(r EmbeddingResult) domain.EmbeddingResult {
	vec := make([]float32, len(r.Embedding))
	copy(vec, r.Embedding)
	return domain.EmbeddingResult{
		Embedding:    domain.NormalizeL2(vec),
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}
}
