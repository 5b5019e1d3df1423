package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfsearch/internal/domain"
	dombatch "github.com/kailas-cloud/pdfsearch/internal/domain/batch"
	domdoc "github.com/kailas-cloud/pdfsearch/internal/domain/document"
	"github.com/kailas-cloud/pdfsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/pdfsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/pdfsearch/internal/domain/search/request"
	"github.com/kailas-cloud/pdfsearch/internal/domain/search/result"
	"github.com/kailas-cloud/pdfsearch/internal/logger"
	gen "github.com/kailas-cloud/pdfsearch/internal/transport/generated"
	healthuc "github.com/kailas-cloud/pdfsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/pdfsearch/internal/usecase/search"
	"github.com/kailas-cloud/pdfsearch/internal/version"
)

// maxIndexRecords caps one POST /v1/index body; larger loads go through the ingest job.
const maxIndexRecords = 1000

// Searcher runs hybrid search.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) (searchuc.Response, error)
}

// Indexer runs records through the ingestion pipeline.
type Indexer interface {
	IngestRecords(ctx context.Context, raws []map[string]any) dombatch.Summary
}

// Documents reads and deletes stored documents by identity.
type Documents interface {
	Get(ctx context.Context, id string) (domdoc.Document, error)
	Delete(ctx context.Context, id string) error
}

// HealthReporter aggregates component health.
type HealthReporter interface {
	Check(ctx context.Context) healthuc.Report
}

// SearchLimits are the request-shaping bounds applied at the boundary.
type SearchLimits struct {
	DefaultK int
	MaxK     int
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements generated.ServerInterface for the oapi-codegen chi router.
type Server struct {
	gen.Unimplemented
	search        Searcher
	indexer       Indexer
	documents     Documents
	health        HealthReporter
	limits        SearchLimits
	errorHandlers []errorHandler
}

var _ gen.ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(
	search Searcher,
	indexer Indexer,
	documents Documents,
	health HealthReporter,
	limits SearchLimits,
) *Server {
	if limits.DefaultK <= 0 {
		limits.DefaultK = request.DefaultK
	}
	if limits.MaxK <= 0 {
		limits.MaxK = request.MaxK
	}
	s := &Server{
		search:    search,
		indexer:   indexer,
		documents: documents,
		health:    health,
		limits:    limits,
	}
	// Order matters: a timed-out provider call wraps both the provider and
	// the upstream sentinel, and must surface as retryable.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrUnauthorized, http.StatusUnauthorized, gen.ErrorResponseCodeUnauthorized),
		rateLimitedHandler,
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, gen.ErrorResponseCodeValidationFailed),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, gen.ErrorResponseCodeDocumentNotFound),
		upstreamHandler(domain.ErrIndexNotFound, gen.ErrorResponseCodeIndexNotFound),
		upstreamHandler(domain.ErrUpstreamUnavailable, gen.ErrorResponseCodeUpstreamUnavailable),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadGateway, gen.ErrorResponseCodeVectorDimMismatch),
		sentinelHandler(domain.ErrEmbeddingProviderError,
			http.StatusBadGateway, gen.ErrorResponseCodeEmbeddingProviderError),
	}
	return s
}

// SearchPost handles POST /v1/search.
func (s *Server) SearchPost(w http.ResponseWriter, r *http.Request) {
	var req gen.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, gen.ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	s.runSearch(w, r, req.Query, req.PdfId, req.K, req.UseVector)
}

// SearchGet handles GET /v1/search.
func (s *Server) SearchGet(w http.ResponseWriter, r *http.Request, params gen.SearchGetParams) {
	var query string
	if params.Query != nil {
		query = *params.Query
	}
	s.runSearch(w, r, query, params.PdfId, params.K, params.UseVector)
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, query string, pdfID *string, k *int, useVector *bool) {
	searchReq, err := s.searchRequest(query, pdfID, k, useVector)
	if err != nil {
		writeError(w, http.StatusBadRequest, gen.ErrorResponseCodeValidationFailed, err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	resp, err := s.search.Search(ctx, &searchReq)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	hits := make([]gen.SearchHit, len(resp.Hits))
	for i := range resp.Hits {
		hits[i] = searchHitToGen(&resp.Hits[i])
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, gen.SearchResponse{
		TookMs: resp.Took.Milliseconds(),
		Hits:   hits,
	})
}

func (s *Server) searchRequest(query string, pdfID *string, k *int, useVector *bool) (request.Request, error) {
	var conds []filter.Condition
	if pdfID != nil && strings.TrimSpace(*pdfID) != "" {
		c, err := filter.NewMatch("pdf_id", strings.TrimSpace(*pdfID))
		if err != nil {
			return request.Request{}, fmt.Errorf("pdf_id: %w", err)
		}
		conds = append(conds, c)
	}
	filters, err := filter.NewExpression(conds...)
	if err != nil {
		return request.Request{}, fmt.Errorf("filters: %w", err)
	}

	size := s.limits.DefaultK
	if k != nil {
		size = *k
	}
	vector := true
	if useVector != nil {
		vector = *useVector
	}

	req, err := request.New(query, mode.FromUseVector(vector), filters, size, s.limits.MaxK)
	if err != nil {
		return request.Request{}, fmt.Errorf("search request: %w", err)
	}
	return req, nil
}

// IndexRecords handles POST /v1/index.
func (s *Server) IndexRecords(w http.ResponseWriter, r *http.Request) {
	var req gen.IndexRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, gen.ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Records) > maxIndexRecords {
		writeError(w, http.StatusBadRequest, gen.ErrorResponseCodeValidationFailed,
			fmt.Sprintf("records count must be at most %d", maxIndexRecords))
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	summary := s.indexer.IngestRecords(ctx, req.Records)

	failures := make([]gen.IndexFailure, len(summary.Failures))
	for i, f := range summary.Failures {
		failures[i] = indexFailureToGen(f)
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, gen.IndexResponse{
		Indexed:  summary.Indexed,
		Failed:   len(failures),
		Failures: failures,
	})
}

// GetDocument handles GET /v1/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := s.documents.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToGen(id, &doc))
}

// DeleteDocument handles DELETE /v1/documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.documents.Delete(r.Context(), id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health. Only an unreachable store answers 503.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, gen.HealthResponse{
		Status:  gen.HealthResponseStatus(report.Status),
		Checks:  checks,
		Version: version.Version,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage.Used() {
		w.Header().Set("X-Embedding-Tokens", strconv.FormatInt(usage.TotalTokens(), 10))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code gen.ErrorResponseCode, message string) {
	writeJSON(w, status, gen.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrUnauthorized,
		domain.ErrRateLimited,
		domain.ErrInvalidRequest,
		domain.ErrDocumentNotFound,
		domain.ErrIndexNotFound,
		domain.ErrUpstreamUnavailable,
		domain.ErrVectorDimMismatch,
		domain.ErrImageEmbeddingUnsupported,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code gen.ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// upstreamHandler maps a retryable dependency failure to 503 with Retry-After.
func upstreamHandler(sentinel error, code gen.ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, code, msg)
		return true
	}
}

func rateLimitedHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrRateLimited) {
		return false
	}
	w.Header().Set("Retry-After", "1")
	writeError(w, http.StatusTooManyRequests, gen.ErrorResponseCodeRateLimited, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, gen.ErrorResponseCodeInternalError, "internal error")
}

func searchHitToGen(r *result.Result) gen.SearchHit {
	doc := r.Document()
	hit := gen.SearchHit{
		Id:       r.ID(),
		Score:    r.Score(),
		PdfId:    doc.PDFID,
		Page:     doc.Page,
		Type:     gen.DocumentType(doc.Type),
		Text:     doc.Text,
		Metadata: metadataToGen(doc.Metadata),
	}
	if doc.TableText != "" {
		tt := doc.TableText
		hit.TableText = &tt
	}
	if doc.BBox != nil {
		bbox := doc.BBox
		hit.Bbox = &bbox
	}
	return hit
}

func documentToGen(id string, doc *domdoc.Document) gen.DocumentResponse {
	resp := gen.DocumentResponse{
		Id:       id,
		PdfId:    doc.PDFID,
		Page:     doc.Page,
		Type:     gen.DocumentType(doc.Type),
		Text:     doc.Text,
		Metadata: metadataToGen(doc.Metadata),
	}
	if doc.TableText != "" {
		tt := doc.TableText
		resp.TableText = &tt
	}
	if doc.BBox != nil {
		bbox := doc.BBox
		resp.Bbox = &bbox
	}
	return resp
}

func metadataToGen(m domdoc.Metadata) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}

func indexFailureToGen(r dombatch.Result) gen.IndexFailure {
	f := gen.IndexFailure{
		Index:  r.Index(),
		Reason: failureReason(r.Err()),
	}
	if id := r.PDFID(); id != "" {
		f.PdfId = &id
	}
	return f
}

// failureReason exposes record validation detail, which only echoes client
// input, and reduces everything else to its sentinel.
func failureReason(err error) string {
	if errors.Is(err, domain.ErrInvalidRecord) {
		return err.Error()
	}
	return safeDomainMessage(err)
}
