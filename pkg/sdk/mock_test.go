package pdfsearch

import (
	"context"

	dombatch "github.com/kailas-cloud/pdfsearch/internal/domain/batch"
	domdoc "github.com/kailas-cloud/pdfsearch/internal/domain/document"
	"github.com/kailas-cloud/pdfsearch/internal/domain/search/request"
	healthuc "github.com/kailas-cloud/pdfsearch/internal/usecase/health"
	"github.com/kailas-cloud/pdfsearch/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/pdfsearch/internal/usecase/search"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, req *request.Request) (searchuc.Response, error)
}

func (m *mockSearchUC) Search(ctx context.Context, req *request.Request) (searchuc.Response, error) {
	return m.searchFn(ctx, req)
}

// --- ingestUseCase mock ---

type mockIngestUC struct {
	ingestFn  func(ctx context.Context, src ingest.Source) (dombatch.Summary, error)
	recordsFn func(ctx context.Context, raws []map[string]any) dombatch.Summary
	released  bool
}

func (m *mockIngestUC) Ingest(ctx context.Context, src ingest.Source) (dombatch.Summary, error) {
	return m.ingestFn(ctx, src)
}

func (m *mockIngestUC) IngestRecords(ctx context.Context, raws []map[string]any) dombatch.Summary {
	return m.recordsFn(ctx, raws)
}

func (m *mockIngestUC) Release() { m.released = true }

// --- documentUseCase mock ---

type mockDocumentUC struct {
	getFn    func(ctx context.Context, id string) (domdoc.Document, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockDocumentUC) Get(ctx context.Context, id string) (domdoc.Document, error) {
	return m.getFn(ctx, id)
}

func (m *mockDocumentUC) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

// --- indexManager mock ---

type mockIndex struct {
	createErr error
	dropErr   error
}

func (m *mockIndex) Create(context.Context) error { return m.createErr }
func (m *mockIndex) Drop(context.Context) error   { return m.dropErr }

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }

// --- Embedder mock ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}
