package chi

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/pdfsearch/internal/auth"
	dombatch "github.com/kailas-cloud/pdfsearch/internal/domain/batch"
	domdoc "github.com/kailas-cloud/pdfsearch/internal/domain/document"
	domrl "github.com/kailas-cloud/pdfsearch/internal/domain/ratelimit"
	"github.com/kailas-cloud/pdfsearch/internal/domain/search/request"
	healthuc "github.com/kailas-cloud/pdfsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/pdfsearch/internal/usecase/search"
)

const testAPIKey = "test-key"

type fakeSearcher struct {
	mu    sync.Mutex
	calls int
	last  request.Request
	resp  searchuc.Response
	err   error
}

func (f *fakeSearcher) Search(_ context.Context, req *request.Request) (searchuc.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = *req
	return f.resp, f.err
}

func (f *fakeSearcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeIndexer struct {
	got     []map[string]any
	summary dombatch.Summary
}

func (f *fakeIndexer) IngestRecords(_ context.Context, raws []map[string]any) dombatch.Summary {
	f.got = raws
	return f.summary
}

type fakeDocs struct {
	doc     domdoc.Document
	err     error
	deleted []string
}

func (f *fakeDocs) Get(context.Context, string) (domdoc.Document, error) { return f.doc, f.err }

func (f *fakeDocs) Delete(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeHealth struct{ report healthuc.Report }

func (f *fakeHealth) Check(context.Context) healthuc.Report { return f.report }

type fakeLimiter struct {
	mu       sync.Mutex
	calls    int
	keys     []string
	decision domrl.Decision
	err      error
}

func (f *fakeLimiter) Allow(_ context.Context, key string) (domrl.Decision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.keys = append(f.keys, key)
	return f.decision, f.err
}

func (f *fakeLimiter) Policy() domrl.Policy { return domrl.DefaultPolicy() }

func allowAll() *fakeLimiter {
	return &fakeLimiter{decision: domrl.Decision{Allowed: true, Remaining: 19}}
}

type fixture struct {
	search  *fakeSearcher
	indexer *fakeIndexer
	docs    *fakeDocs
	health  *fakeHealth
	limiter *fakeLimiter
	authn   *auth.Authenticator
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	authn, err := auth.New(auth.Options{APIKeys: []string{testAPIKey}, JWTSecret: "test-secret"})
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{
		search:  &fakeSearcher{resp: searchuc.Response{Took: 12 * time.Millisecond}},
		indexer: &fakeIndexer{},
		docs:    &fakeDocs{},
		health:  &fakeHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{}}},
		limiter: allowAll(),
		authn:   authn,
	}
	srv := NewServer(f.search, f.indexer, f.docs, f.health, SearchLimits{DefaultK: 10, MaxK: 100})
	f.handler = NewRouter(srv, RouterConfig{
		Authenticator:  authn,
		Limiter:        f.limiter,
		AllowedOrigins: []string{"http://localhost:3000"},
	})
	return f
}
