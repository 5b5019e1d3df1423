package search

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kailas-cloud/pdfsearch/internal/domain"
	"github.com/kailas-cloud/pdfsearch/internal/domain/document"
	"github.com/kailas-cloud/pdfsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/pdfsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/pdfsearch/internal/domain/search/query"
	"github.com/kailas-cloud/pdfsearch/internal/domain/search/request"
	"github.com/kailas-cloud/pdfsearch/internal/domain/search/result"
)

type mockRepo struct {
	lexicalFn func(ctx context.Context, p *query.Plan) ([]result.Result, error)
	vectorFn  func(ctx context.Context, p *query.Plan) ([]result.Result, error)
	lexCalls  atomic.Int32
	vecCalls  atomic.Int32
}

func (m *mockRepo) Lexical(ctx context.Context, p *query.Plan) ([]result.Result, error) {
	m.lexCalls.Add(1)
	if m.lexicalFn != nil {
		return m.lexicalFn(ctx, p)
	}
	return nil, nil
}

func (m *mockRepo) Vector(ctx context.Context, p *query.Plan) ([]result.Result, error) {
	m.vecCalls.Add(1)
	if m.vectorFn != nil {
		return m.vectorFn(ctx, p)
	}
	return nil, nil
}

type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
	calls   atomic.Int32
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls.Add(1)
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	return domain.EmbeddingResult{Embedding: []float32{1, 0}}, nil
}

func hit(id string, score float64) result.Result {
	return result.New(id, score, document.Document{PDFID: "doc1", Text: "text " + id})
}

func newRequest(t *testing.T, q string, useVector bool, k int) request.Request {
	t.Helper()
	req, err := request.New(q, mode.FromUseVector(useVector), filter.Expression{}, k, 0)
	if err != nil {
		t.Fatal(err)
	}
	return req
}

func TestSearch_HybridOverFetchesVectorCandidates(t *testing.T) {
	repo := &mockRepo{}
	var vectorK, lexLimit int
	repo.vectorFn = func(_ context.Context, p *query.Plan) ([]result.Result, error) {
		vectorK = p.Vector.K
		return nil, nil
	}
	repo.lexicalFn = func(_ context.Context, p *query.Plan) ([]result.Result, error) {
		lexLimit = p.Lexical.Limit
		return nil, nil
	}

	svc := New(repo, &mockEmbedder{}, Options{})
	req := newRequest(t, "revenue", true, 10)
	if _, err := svc.Search(context.Background(), &req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vectorK < 50 {
		t.Errorf("vector K = %d, want >= 50", vectorK)
	}
	if lexLimit < 50 {
		t.Errorf("lexical limit = %d, want >= 50", lexLimit)
	}
}

func TestSearch_TruncatesToK(t *testing.T) {
	repo := &mockRepo{}
	repo.lexicalFn = func(context.Context, *query.Plan) ([]result.Result, error) {
		out := make([]result.Result, 0, 30)
		for i := range 30 {
			out = append(out, hit(string(rune('a'+i%26))+string(rune('a'+i/26)), float64(30-i)))
		}
		return out, nil
	}
	svc := New(repo, &mockEmbedder{}, Options{})
	req := newRequest(t, "q", true, 10)

	resp, err := svc.Search(context.Background(), &req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Hits) != 10 {
		t.Errorf("hits = %d, want 10", len(resp.Hits))
	}
}

func TestSearch_KeywordModeSkipsEmbedding(t *testing.T) {
	repo := &mockRepo{}
	repo.lexicalFn = func(context.Context, *query.Plan) ([]result.Result, error) {
		return []result.Result{hit("a", 2.5), hit("b", 7)}, nil
	}
	emb := &mockEmbedder{}
	svc := New(repo, emb, Options{})
	req := newRequest(t, "revenue", false, 10)

	resp, err := svc.Search(context.Background(), &req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if emb.calls.Load() != 0 || repo.vecCalls.Load() != 0 {
		t.Error("keyword mode must not embed or run the vector clause")
	}
	if resp.Hits[0].ID() != "b" || resp.Hits[0].Score() != 7 {
		t.Errorf("raw lexical scores must be kept, got %s=%v", resp.Hits[0].ID(), resp.Hits[0].Score())
	}
}

func TestSearch_BlankQuerySkipsEmbedding(t *testing.T) {
	repo := &mockRepo{}
	emb := &mockEmbedder{}
	svc := New(repo, emb, Options{})
	req := newRequest(t, "   ", true, 10)

	if _, err := svc.Search(context.Background(), &req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if emb.calls.Load() != 0 {
		t.Error("blank query must not be embedded")
	}
	if repo.lexCalls.Load() != 1 {
		t.Error("blank query still issues the lexical clause")
	}
}

func TestSearch_WeightedBlend(t *testing.T) {
	repo := &mockRepo{}
	repo.lexicalFn = func(context.Context, *query.Plan) ([]result.Result, error) {
		return []result.Result{hit("a", 10), hit("b", 5), hit("c", 0)}, nil
	}
	repo.vectorFn = func(context.Context, *query.Plan) ([]result.Result, error) {
		return []result.Result{hit("c", 0.9), hit("d", 0.8)}, nil
	}
	svc := New(repo, &mockEmbedder{}, Options{Fusion: FusionWeighted, VectorWeight: 0.5})
	req := newRequest(t, "q", true, 10)

	resp, err := svc.Search(context.Background(), &req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]float64{"a": 0.5, "b": 0.25, "c": 0.45, "d": 0.4}
	order := []string{"a", "c", "d", "b"}
	if len(resp.Hits) != len(order) {
		t.Fatalf("hits = %d, want %d", len(resp.Hits), len(order))
	}
	for i, h := range resp.Hits {
		if h.ID() != order[i] {
			t.Errorf("hit %d = %s, want %s", i, h.ID(), order[i])
		}
		if diff := h.Score() - want[h.ID()]; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("%s score = %v, want %v", h.ID(), h.Score(), want[h.ID()])
		}
	}
}

func TestSearch_RRF(t *testing.T) {
	repo := &mockRepo{}
	repo.lexicalFn = func(context.Context, *query.Plan) ([]result.Result, error) {
		return []result.Result{hit("a", 3), hit("b", 2)}, nil
	}
	repo.vectorFn = func(context.Context, *query.Plan) ([]result.Result, error) {
		return []result.Result{hit("b", 0.9), hit("c", 0.1)}, nil
	}
	svc := New(repo, &mockEmbedder{}, Options{Fusion: FusionRRF})
	req := newRequest(t, "q", true, 10)

	resp, err := svc.Search(context.Background(), &req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Hits[0].ID() != "b" {
		t.Errorf("document in both rankings must lead, got %s", resp.Hits[0].ID())
	}
}

func TestSearch_TieBreakByIdentity(t *testing.T) {
	repo := &mockRepo{}
	repo.lexicalFn = func(context.Context, *query.Plan) ([]result.Result, error) {
		return []result.Result{hit("z", 1), hit("m", 1), hit("a", 1)}, nil
	}
	svc := New(repo, &mockEmbedder{}, Options{})
	req := newRequest(t, "q", false, 10)

	resp, _ := svc.Search(context.Background(), &req)
	got := []string{resp.Hits[0].ID(), resp.Hits[1].ID(), resp.Hits[2].ID()}
	if got[0] != "a" || got[1] != "m" || got[2] != "z" {
		t.Errorf("order = %v, want [a m z]", got)
	}
}

func TestSearch_EmbedFailureFailsRequest(t *testing.T) {
	repo := &mockRepo{}
	emb := &mockEmbedder{embedFn: func(context.Context, string) (domain.EmbeddingResult, error) {
		return domain.EmbeddingResult{}, domain.ErrEmbeddingProviderError
	}}
	svc := New(repo, emb, Options{})
	req := newRequest(t, "q", true, 10)

	_, err := svc.Search(context.Background(), &req)
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Errorf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestSearch_StoreFailureIsUpstream(t *testing.T) {
	repo := &mockRepo{lexicalFn: func(context.Context, *query.Plan) ([]result.Result, error) {
		return nil, errors.New("connection refused")
	}}
	svc := New(repo, &mockEmbedder{}, Options{})
	req := newRequest(t, "q", false, 10)

	_, err := svc.Search(context.Background(), &req)
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestSearch_Timeout(t *testing.T) {
	repo := &mockRepo{lexicalFn: func(ctx context.Context, _ *query.Plan) ([]result.Result, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	svc := New(repo, &mockEmbedder{}, Options{Timeout: 20 * time.Millisecond})
	req := newRequest(t, "q", true, 10)

	_, err := svc.Search(context.Background(), &req)
	if !errors.Is(err, domain.ErrUpstreamUnavailable) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected retryable timeout, got %v", err)
	}
}

func TestParseFusion(t *testing.T) {
	tests := []struct {
		in      string
		want    Fusion
		wantErr bool
	}{
		{"", FusionWeighted, false},
		{"weighted", FusionWeighted, false},
		{"RRF", FusionRRF, false},
		{"borda", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFusion(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFusion(%q) = %q, %v", tt.in, got, err)
		}
	}
}
