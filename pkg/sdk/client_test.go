package pdfsearch

import (
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/pdfsearch/internal/domain"
	dombatch "github.com/kailas-cloud/pdfsearch/internal/domain/batch"
	domdoc "github.com/kailas-cloud/pdfsearch/internal/domain/document"
	"github.com/kailas-cloud/pdfsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/pdfsearch/internal/domain/search/request"
	"github.com/kailas-cloud/pdfsearch/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/pdfsearch/internal/usecase/health"
	"github.com/kailas-cloud/pdfsearch/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/pdfsearch/internal/usecase/search"
)

func TestNew_NoAddress(t *testing.T) {
	_, err := New(context.Background())
	if err == nil {
		t.Fatal("expected error when no address provided")
	}
}

func TestEmbedderAdapter_Normalizes(t *testing.T) {
	raw := []float32{3, 4}
	adapter := &embedderAdapter{inner: &mockEmbedder{
		fn: func(context.Context, string) (EmbeddingResult, error) {
			return EmbeddingResult{Embedding: raw, TotalTokens: 7}, nil
		},
	}}

	res, err := adapter.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(float64(res.Embedding[0])-0.6) > 1e-6 || math.Abs(float64(res.Embedding[1])-0.8) > 1e-6 {
		t.Errorf("embedding = %v, want [0.6 0.8]", res.Embedding)
	}
	if raw[0] != 3 {
		t.Error("caller's slice was modified")
	}
	if res.TotalTokens != 7 {
		t.Errorf("TotalTokens = %d, want 7", res.TotalTokens)
	}
}

func TestEmbedderAdapter_Errors(t *testing.T) {
	adapter := &embedderAdapter{inner: &mockEmbedder{
		fn: func(context.Context, string) (EmbeddingResult, error) {
			return EmbeddingResult{}, errors.New("quota")
		},
	}}

	if _, err := adapter.Embed(context.Background(), "x"); !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Errorf("Embed err = %v, want provider error", err)
	}
	if _, err := adapter.EmbedImage(context.Background(), []byte{1}); !errors.Is(err, domain.ErrImageEmbeddingUnsupported) {
		t.Errorf("EmbedImage err = %v, want unsupported", err)
	}
}

func TestNewEmbedder(t *testing.T) {
	t.Run("placeholder by default", func(t *testing.T) {
		cfg := defaultClientConfig()
		cfg.vectorDimensions = 8
		emb, err := newEmbedder(cfg)
		if err != nil {
			t.Fatal(err)
		}
		res, err := emb.Embed(context.Background(), "revenue")
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Embedding) != 8 {
			t.Errorf("dim = %d, want 8", len(res.Embedding))
		}
	})

	t.Run("dimension drift is rejected", func(t *testing.T) {
		cfg := defaultClientConfig()
		cfg.vectorDimensions = 4
		cfg.embedder = &mockEmbedder{fn: func(context.Context, string) (EmbeddingResult, error) {
			return EmbeddingResult{Embedding: []float32{1, 0, 0}}, nil
		}}
		emb, err := newEmbedder(cfg)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := emb.Embed(context.Background(), "x"); !errors.Is(err, domain.ErrVectorDimMismatch) {
			t.Errorf("err = %v, want dim mismatch", err)
		}
	})
}

func TestClient_Search(t *testing.T) {
	page := 2
	var got request.Request
	c := &Client{searchSvc: &mockSearchUC{
		searchFn: func(_ context.Context, req *request.Request) (searchuc.Response, error) {
			got = *req
			return searchuc.Response{
				Hits: []result.Result{result.New("r1:2:aa", 0.7, domdoc.Document{
					PDFID: "r1", Page: &page, Type: domdoc.TypeText, Text: "revenue",
				})},
				Took: 5 * time.Millisecond,
			}, nil
		},
	}}

	resp, err := c.Search(context.Background(), SearchRequest{Query: "revenue", PDFID: "r1", KeywordOnly: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.K() != request.DefaultK {
		t.Errorf("k = %d, want default %d", got.K(), request.DefaultK)
	}
	if got.Mode() != mode.Keyword {
		t.Errorf("mode = %s, want keyword", got.Mode())
	}
	if must := got.Filters().Must(); len(must) != 1 || must[0].Value() != "r1" {
		t.Errorf("filters = %v", must)
	}
	if len(resp.Hits) != 1 || resp.Hits[0].ID != "r1:2:aa" || *resp.Hits[0].Page != 2 {
		t.Errorf("hits = %+v", resp.Hits)
	}
	if resp.TookMs != 5 {
		t.Errorf("TookMs = %d, want 5", resp.TookMs)
	}
}

func TestClient_Search_Invalid(t *testing.T) {
	called := false
	c := &Client{searchSvc: &mockSearchUC{
		searchFn: func(context.Context, *request.Request) (searchuc.Response, error) {
			called = true
			return searchuc.Response{}, nil
		},
	}}

	_, err := c.Search(context.Background(), SearchRequest{Query: "x", K: -1})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("err = %v, want invalid request", err)
	}
	if called {
		t.Error("search ran for an invalid request")
	}
}

func TestClient_Index(t *testing.T) {
	c := &Client{ingestSvc: &mockIngestUC{
		recordsFn: func(_ context.Context, raws []map[string]any) dombatch.Summary {
			if len(raws) != 2 {
				t.Errorf("records = %d, want 2", len(raws))
			}
			return dombatch.Summary{
				Indexed:  1,
				Failures: []dombatch.Result{dombatch.NewError(1, "r1", domain.ErrInvalidRecord)},
			}
		},
	}}

	res := c.Index(context.Background(), []map[string]any{{"pdf_id": "r1"}, {"pdf_id": "r1"}})
	if res.Indexed != 1 || len(res.Failures) != 1 {
		t.Fatalf("result = %+v", res)
	}
	f := res.Failures[0]
	if f.Index != 1 || f.PDFID != "r1" || !errors.Is(f.Err, ErrInvalidRecord) {
		t.Errorf("failure = %+v", f)
	}
}

func TestClient_IngestJSONL(t *testing.T) {
	c := &Client{ingestSvc: &mockIngestUC{
		ingestFn: func(ctx context.Context, src ingest.Source) (dombatch.Summary, error) {
			n := 0
			for {
				if _, err := src.Next(ctx); errors.Is(err, io.EOF) {
					break
				}
				n++
			}
			return dombatch.Summary{Indexed: n}, errors.New("store gone")
		},
	}}

	res, err := c.IngestJSONL(context.Background(), strings.NewReader("{\"pdf_id\":\"a\"}\n{\"pdf_id\":\"b\"}\n"))
	if err == nil {
		t.Fatal("expected error")
	}
	if res.Indexed != 2 {
		t.Errorf("partial result Indexed = %d, want 2", res.Indexed)
	}
}

func TestClient_Documents(t *testing.T) {
	c := &Client{docSvc: &mockDocumentUC{
		getFn: func(_ context.Context, id string) (domdoc.Document, error) {
			if id == "missing" {
				return domdoc.Document{}, domain.ErrDocumentNotFound
			}
			return domdoc.Document{PDFID: "r1", Type: domdoc.TypeTable, TableText: "a | b"}, nil
		},
		deleteFn: func(context.Context, string) error { return domain.ErrDocumentNotFound },
	}}

	doc, err := c.GetDocument(context.Background(), "r1:0:aa")
	if err != nil {
		t.Fatal(err)
	}
	if doc.ID != "r1:0:aa" || doc.Type != "table" || doc.TableText != "a | b" {
		t.Errorf("document = %+v", doc)
	}
	if _, err := c.GetDocument(context.Background(), "missing"); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("get err = %v", err)
	}
	if err := c.DeleteDocument(context.Background(), "x"); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("delete err = %v", err)
	}
}

func TestClient_EnsureIndex(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"created", nil, false},
		{"already there", domain.ErrIndexExists, false},
		{"store down", domain.ErrUpstreamUnavailable, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{index: &mockIndex{createErr: tt.err}}
			if err := c.EnsureIndex(context.Background()); (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestClient_Health(t *testing.T) {
	c := &Client{healthSvc: &mockHealthUC{report: healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{"store": healthuc.CheckOK, "index": healthuc.CheckMissing},
	}}}

	h := c.Health(context.Background())
	if h.Status != HealthDegraded || h.Checks["index"] != "missing" {
		t.Errorf("health = %+v", h)
	}
	if !h.Serving() {
		t.Error("degraded client must still serve")
	}
	if f := h.Failing(); len(f) != 1 || f[0] != "index" {
		t.Errorf("failing = %v, want [index]", f)
	}
}

func TestClient_Close(t *testing.T) {
	ing := &mockIngestUC{}
	c := &Client{ingestSvc: ing}
	c.Close()
	if !ing.released {
		t.Error("worker pool not released")
	}
}

func TestObserver_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatal(err)
	}
	c := &Client{index: &mockIndex{dropErr: domain.ErrIndexNotFound}, obs: obs}

	_ = c.DropIndex(context.Background())
	_ = c.DropIndex(context.Background())

	if got := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("drop_index", "error")); got != 2 {
		t.Errorf("drop_index errors = %v, want 2", got)
	}

	again, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("re-registering on the same registry: %v", err)
	}
	if again.metrics.operations != obs.metrics.operations {
		t.Error("existing collector was not reused")
	}
}

func TestObserver_RecordCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatal(err)
	}
	c := &Client{obs: obs, ingestSvc: &mockIngestUC{
		recordsFn: func(context.Context, []map[string]any) dombatch.Summary {
			return dombatch.Summary{
				Indexed:  3,
				Failures: []dombatch.Result{dombatch.NewError(0, "", domain.ErrInvalidRecord)},
			}
		},
	}}

	_ = c.Index(context.Background(), []map[string]any{{}, {}, {}, {}})

	if got := testutil.ToFloat64(obs.metrics.records.WithLabelValues("indexed")); got != 3 {
		t.Errorf("indexed = %v, want 3", got)
	}
	if got := testutil.ToFloat64(obs.metrics.records.WithLabelValues("failed")); got != 1 {
		t.Errorf("failed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("index", "error")); got != 1 {
		t.Errorf("index errors = %v, want 1", got)
	}
}
