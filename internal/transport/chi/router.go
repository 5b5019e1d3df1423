package chi

import (
	"encoding/json"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfsearch/internal/metrics"
	gen "github.com/kailas-cloud/pdfsearch/internal/transport/generated"
)

// RouterConfig wires the middleware chain around the API server.
type RouterConfig struct {
	Logger         *zap.Logger
	Authenticator  Authenticator
	Limiter        Limiter
	// AllowedOrigins lists browser origins. Credentials are only allowed
	// when every origin is explicit.
	AllowedOrigins []string
}

// NewRouter builds the HTTP handler: recovery, request id, canonical log
// line, CORS, metrics, credential check, admission gate, then the API routes.
func NewRouter(server gen.ServerInterface, cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(JSONRecoverer(log))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", APIKeyHeader},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: !slices.Contains(cfg.AllowedOrigins, "*"),
		MaxAge:           300,
	}))
	r.Use(metrics.Middleware())
	r.Use(CredentialMiddleware(cfg.Authenticator))
	if cfg.Limiter != nil {
		r.Use(RateLimitMiddleware(cfg.Limiter))
	}

	gen.HandlerWithOptions(server, gen.ChiServerOptions{
		BaseRouter: r,
		ErrorHandlerFunc: func(w http.ResponseWriter, _ *http.Request, err error) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(gen.ErrorResponse{
				Code:    gen.ErrorResponseCodeBadRequest,
				Message: err.Error(),
			})
		},
	})
	return r
}
