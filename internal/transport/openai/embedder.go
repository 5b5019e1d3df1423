// Package openai embeds text through any OpenAI-compatible embeddings API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfsearch/internal/domain"
	"github.com/kailas-cloud/pdfsearch/internal/metrics"
)

const defaultProvider = "openai"

// Config holds the embedding provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// Dimensions asks models that support shortening for a smaller vector.
	Dimensions int
	User       string
	// Provider labels metrics; defaults to "openai".
	Provider   string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Embedder is a text embedding provider. Vectors are L2-normalized before
// they leave it.
type Embedder struct {
	client   *openai.Client
	template openai.EmbeddingRequest
	provider string
	logger   *zap.Logger
}

// NewEmbedder creates an OpenAI-compatible embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}

	e := &Embedder{
		client: openai.NewClientWithConfig(clientCfg),
		template: openai.EmbeddingRequest{
			Model:          openai.EmbeddingModel(cfg.Model),
			EncodingFormat: openai.EmbeddingEncodingFormatFloat,
			User:           cfg.User,
			Dimensions:     max(cfg.Dimensions, 0),
		},
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
	if e.provider == "" {
		e.provider = defaultProvider
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

// Embed returns the normalized embedding of text.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	req := e.template
	req.Input = []string{text}

	call := metrics.EmbeddingCall{Provider: e.provider, Model: string(req.Model)}
	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	call.Took = time.Since(start)

	if err != nil {
		kind, wrapped := classify(err)
		call.ErrorType = kind
		call.Record()
		e.logger.Debug("Embedding request failed",
			zap.String("provider", e.provider),
			zap.String("error_type", kind),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, wrapped
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		call.ErrorType = "empty_response"
		call.Record()
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingProviderError)
	}

	call.PromptTokens = resp.Usage.PromptTokens
	call.TotalTokens = resp.Usage.TotalTokens
	call.Record()

	return domain.EmbeddingResult{
		Embedding:    domain.NormalizeL2(resp.Data[0].Embedding),
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck lists models, which costs no tokens.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// classify turns a client error into a domain error and a metric label.
// API replies wrap ErrEmbeddingProviderError. Transport failures keep their
// cause so callers can still detect deadlines.
func classify(err error) (string, error) {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := bodyDetail(reqErr.Body)
		return statusKind(reqErr.HTTPStatusCode), fmt.Errorf("embedding API error %d: %s: %w",
			reqErr.HTTPStatusCode, detail, domain.ErrEmbeddingProviderError)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return statusKind(apiErr.HTTPStatusCode), fmt.Errorf("embedding API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, domain.ErrEmbeddingProviderError)
	}

	kind := "transport"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = "timeout"
	case errors.Is(err, context.Canceled):
		kind = "canceled"
	}
	return kind, fmt.Errorf("embedding request failed: %w: %w", domain.ErrEmbeddingProviderError, err)
}

func statusKind(code int) string {
	switch {
	case code == http.StatusTooManyRequests:
		return "rate_limited"
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return "auth"
	case code >= http.StatusInternalServerError:
		return "server_error"
	default:
		return "api_error"
	}
}

// bodyDetail pulls "detail" out of a JSON error body (the shape served by
// several self-hosted gateways) and falls back to the raw body.
func bodyDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return string(body)
}
