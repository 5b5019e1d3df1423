package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gen "github.com/kailas-cloud/pdfsearch/internal/transport/generated"
)

func searchBody() *strings.Reader {
	return strings.NewReader(`{"query":"revenue"}`)
}

func TestCredential_RejectedBeforeAnyDownstreamCall(t *testing.T) {
	tests := []struct {
		name   string
		header string
		value  string
	}{
		{"missing", "", ""},
		{"unknown api key", "X-API-Key", "nope"},
		{"basic scheme", "Authorization", "Basic dXNlcjpwYXNz"},
		{"unknown bearer", "Authorization", "Bearer nope"},
		{"forged token", "Authorization", "Bearer aaa.bbb.ccc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := httptest.NewRequest(http.MethodPost, "/v1/search", searchBody())
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rr := httptest.NewRecorder()
			f.handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rr.Code)
			}
			var errResp gen.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if errResp.Code != gen.ErrorResponseCodeUnauthorized {
				t.Errorf("code = %s, want unauthorized", errResp.Code)
			}
			if f.limiter.calls != 0 {
				t.Errorf("limiter called %d times", f.limiter.calls)
			}
			if n := f.search.callCount(); n != 0 {
				t.Errorf("search called %d times", n)
			}
		})
	}
}

func TestCredential_Accepted(t *testing.T) {
	f := newFixture(t)
	token, _, err := f.authn.Mint("ops", 0)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		header string
		value  string
		bucket string
	}{
		{"api key header", "X-API-Key", testAPIKey, "rl:key:"},
		{"api key as bearer", "Authorization", "Bearer " + testAPIKey, "rl:key:"},
		{"token", "Authorization", "Bearer " + token, "rl:sub:ops"},
		{"lowercase scheme", "Authorization", "bearer " + token, "rl:sub:ops"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.limiter.keys = nil
			req := httptest.NewRequest(http.MethodPost, "/v1/search", searchBody())
			req.Header.Set(tt.header, tt.value)
			rr := httptest.NewRecorder()
			f.handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
			}
			if len(f.limiter.keys) != 1 || !strings.HasPrefix(f.limiter.keys[0], tt.bucket) {
				t.Errorf("bucket keys = %v, want prefix %s", f.limiter.keys, tt.bucket)
			}
		})
	}
}

func TestCredential_ExemptPaths(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/health", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
		rr := httptest.NewRecorder()
		f.handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, rr.Code)
		}
	}
	if f.limiter.calls != 0 {
		t.Errorf("exempt paths consumed %d tokens", f.limiter.calls)
	}
}
