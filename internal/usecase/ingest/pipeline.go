// Package ingest turns loosely-typed parser records into embedded documents
// and bulk-upserts them under stable identities.
package ingest

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfsearch/internal/domain"
	dombatch "github.com/kailas-cloud/pdfsearch/internal/domain/batch"
	"github.com/kailas-cloud/pdfsearch/internal/domain/document"
	"github.com/kailas-cloud/pdfsearch/internal/metrics"
)

// Pipeline defaults.
const (
	DefaultBatchSize      = 256
	DefaultMaxRetries     = 3
	DefaultRetryBaseDelay = 200 * time.Millisecond
	DefaultRequestTimeout = 120 * time.Second
)

// Pipeline normalizes, embeds and bulk-writes records. Embedding fans out on
// a worker pool; writes are batched and retried with exponential backoff.
type Pipeline struct {
	docs           DocumentWriter
	embed          DocumentEmbedder
	pool           *ants.Pool
	batchSize      int
	maxRetries     int
	retryBaseDelay time.Duration
	requestTimeout time.Duration
	logger         *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the embedding worker count.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		size = max(size, 1)
		pool, err := ants.NewPool(size)
		if err != nil {
			return fmt.Errorf("create pool: %w", err)
		}
		if p.pool != nil {
			p.pool.Release()
		}
		p.pool = pool
		return nil
	}
}

// WithBatchSize sets how many records are written per bulk request.
func WithBatchSize(n int) Option {
	return func(p *Pipeline) error {
		if n > 0 {
			p.batchSize = n
		}
		return nil
	}
}

// WithRetry sets bulk-write retry attempts and the first backoff delay.
func WithRetry(maxRetries int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxRetries >= 0 {
			p.maxRetries = maxRetries
		}
		if baseDelay > 0 {
			p.retryBaseDelay = baseDelay
		}
		return nil
	}
}

// WithRequestTimeout bounds each bulk write.
func WithRequestTimeout(d time.Duration) Option {
	return func(p *Pipeline) error {
		if d > 0 {
			p.requestTimeout = d
		}
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) error {
		if logger != nil {
			p.logger = logger
		}
		return nil
	}
}

// NewPipeline creates an ingestion pipeline. Call Release when done.
func NewPipeline(docs DocumentWriter, embed DocumentEmbedder, opts ...Option) (*Pipeline, error) {
	if docs == nil || embed == nil {
		return nil, errors.New("ingest: document writer and embedder are required")
	}

	pool, err := ants.NewPool(max(runtime.NumCPU()/2, 1))
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	p := &Pipeline{
		docs:           docs,
		embed:          embed,
		pool:           pool,
		batchSize:      DefaultBatchSize,
		maxRetries:     DefaultMaxRetries,
		retryBaseDelay: DefaultRetryBaseDelay,
		requestTimeout: DefaultRequestTimeout,
		logger:         zap.NewNop(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	return p, nil
}

// Release stops the worker pool.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// Ingest drains src. Bad records are reported in the summary and never abort
// the run; only a source failure or cancellation returns an error, together
// with the summary of everything processed before it.
func (p *Pipeline) Ingest(ctx context.Context, src Source) (dombatch.Summary, error) {
	var (
		all    []dombatch.Result
		chunk  = make([]pending, 0, p.batchSize)
		offset int
	)

	flush := func() {
		if len(chunk) == 0 {
			return
		}
		all = append(all, p.process(ctx, chunk)...)
		chunk = chunk[:0]
	}

	for {
		if err := ctx.Err(); err != nil {
			flush()
			return p.summarize(all), fmt.Errorf("ingest: %w", err)
		}

		raw, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !errors.Is(err, domain.ErrInvalidRecord) {
			flush()
			return p.summarize(all), fmt.Errorf("read record %d: %w", offset, err)
		}

		chunk = append(chunk, pending{index: offset, raw: raw, err: err})
		offset++
		if len(chunk) == p.batchSize {
			flush()
		}
	}

	flush()
	return p.summarize(all), nil
}

// IngestRecords runs already-decoded records through the pipeline. Records
// a cancelled context kept it from reaching are reported as failures.
func (p *Pipeline) IngestRecords(ctx context.Context, raws []map[string]any) dombatch.Summary {
	s, err := p.Ingest(ctx, NewSliceSource(raws))
	if err == nil {
		return s
	}
	reached := s.Indexed + len(s.Failures)
	for i := reached; i < len(raws); i++ {
		pdfID, _ := raws[i]["pdf_id"].(string)
		s.Failures = append(s.Failures, dombatch.NewError(i, pdfID, err))
	}
	metrics.IngestRecordsTotal.WithLabelValues("failed").Add(float64(len(raws) - reached))
	return s
}

// pending is one record between the source and the store.
type pending struct {
	index int
	raw   map[string]any
	err   error

	doc   document.Document
	image []byte
}

// process normalizes, embeds and writes one chunk. Results are aligned with chunk.
func (p *Pipeline) process(ctx context.Context, chunk []pending) []dombatch.Result {
	results := make([]dombatch.Result, len(chunk))
	ready := make([]bool, len(chunk))

	for i := range chunk {
		if err := prepare(&chunk[i]); err != nil {
			results[i] = dombatch.NewError(chunk[i].index, chunk[i].doc.PDFID, err)
			continue
		}
		ready[i] = true
	}

	p.embedAll(ctx, chunk, ready, results)

	docs := make([]document.Document, 0, len(chunk))
	slots := make([]int, 0, len(chunk))
	for i := range chunk {
		if ready[i] {
			docs = append(docs, chunk[i].doc)
			slots = append(slots, i)
		}
	}
	if len(docs) == 0 {
		return results
	}

	errs := p.write(ctx, docs)
	for j, i := range slots {
		it := &chunk[i]
		if errs[j] != nil {
			results[i] = dombatch.NewError(it.index, it.doc.PDFID, fmt.Errorf("upsert: %w", errs[j]))
			continue
		}
		results[i] = dombatch.NewOK(it.index, it.doc.ID(), it.doc.PDFID)
	}
	return results
}

// prepare parses and normalizes a raw record, keeping its image payload aside.
func prepare(it *pending) error {
	if it.err != nil {
		return it.err
	}

	rec := document.ParseRecord(it.raw)
	it.doc = document.Normalize(rec)
	if it.doc.PDFID == "" {
		return fmt.Errorf("%w: missing pdf_id", domain.ErrInvalidRecord)
	}

	if rec.ImageB64 != "" && it.doc.Text == "" {
		img, err := decodeImage(rec.ImageB64)
		if err != nil {
			return fmt.Errorf("%w: image_b64: %w", domain.ErrInvalidRecord, err)
		}
		it.image = img
	}
	return nil
}

// decodeImage accepts plain base64 and data URLs.
func decodeImage(s string) ([]byte, error) {
	if i := strings.Index(s, ";base64,"); i >= 0 && strings.HasPrefix(s, "data:") {
		s = s[i+len(";base64,"):]
	}
	b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return b, nil
}

// embedAll embeds every ready record on the pool and waits for all of them.
func (p *Pipeline) embedAll(ctx context.Context, chunk []pending, ready []bool, results []dombatch.Result) {
	var wg sync.WaitGroup
	errs := make([]error, len(chunk))

	for i := range chunk {
		if !ready[i] {
			continue
		}
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			it := &chunk[i]
			vec, err := p.embed.EmbedDocument(ctx, &it.doc, it.image)
			if err != nil {
				errs[i] = fmt.Errorf("embed: %w", err)
				return
			}
			it.doc.Vector = vec
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = fmt.Errorf("submit embedding: %w", submitErr)
		}
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			ready[i] = false
			results[i] = dombatch.NewError(chunk[i].index, chunk[i].doc.PDFID, err)
		}
		chunk[i].image = nil
	}
}

// write upserts docs, retrying only the documents that failed.
func (p *Pipeline) write(ctx context.Context, docs []document.Document) []error {
	errs := make([]error, len(docs))
	todo := make([]int, len(docs))
	for i := range todo {
		todo[i] = i
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.retryBaseDelay
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.maxRetries)), ctx)

	attempt := 0
	op := func() error {
		if attempt > 0 {
			metrics.IngestBatchRetriesTotal.Inc()
		}
		attempt++

		batch := make([]document.Document, len(todo))
		for j, i := range todo {
			batch[j] = docs[i]
		}

		rctx, cancel := context.WithTimeout(ctx, p.requestTimeout)
		defer cancel()
		batchErrs := p.docs.UpsertBatch(rctx, batch)

		failed := make([]int, 0, len(todo))
		for j, i := range todo {
			var err error
			if j < len(batchErrs) {
				err = batchErrs[j]
			}
			errs[i] = err
			if err != nil {
				failed = append(failed, i)
			}
		}
		todo = failed
		if len(todo) > 0 {
			return fmt.Errorf("%d of %d documents failed", len(todo), len(batch))
		}
		return nil
	}

	if err := backoff.Retry(op, policy); err != nil {
		p.logger.Warn("Bulk upsert gave up",
			zap.Int("attempts", attempt),
			zap.Int("failed", len(todo)),
			zap.Error(err),
		)
		if ctxErr := ctx.Err(); ctxErr != nil {
			for _, i := range todo {
				if errs[i] == nil {
					errs[i] = ctxErr
				}
			}
		}
	}
	return errs
}

func (p *Pipeline) summarize(results []dombatch.Result) dombatch.Summary {
	s := dombatch.Summarize(results)
	for _, f := range s.Failures {
		p.logger.Warn("Record not indexed",
			zap.Int("record", f.Index()),
			zap.String("pdf_id", f.PDFID()),
			zap.Error(f.Err()),
		)
	}
	metrics.IngestRecordsTotal.WithLabelValues("indexed").Add(float64(s.Indexed))
	metrics.IngestRecordsTotal.WithLabelValues("failed").Add(float64(len(s.Failures)))
	p.logger.Info("Ingestion finished",
		zap.Int("records", len(results)),
		zap.Int("indexed", s.Indexed),
		zap.Int("failed", len(s.Failures)),
	)
	return s
}
