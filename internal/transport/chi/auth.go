package chi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfsearch/internal/auth"
	"github.com/kailas-cloud/pdfsearch/internal/logger"
	gen "github.com/kailas-cloud/pdfsearch/internal/transport/generated"
)

// APIKeyHeader carries a static credential.
const APIKeyHeader = "X-API-Key"

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// Authenticator resolves a credential into a caller identity.
type Authenticator interface {
	CheckAPIKey(key string) (auth.Identity, error)
	Authenticate(credential string) (auth.Identity, error)
}

// CredentialMiddleware rejects requests without a recognized credential
// before any handler runs. It accepts X-API-Key, or Authorization: Bearer
// carrying either an API key or a signed token.
func CredentialMiddleware(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			id, reason := authenticate(a, r)
			if reason != "" {
				logger.FromContext(r.Context()).Info("request rejected", zap.String("reason", reason))
				w.Header().Set("WWW-Authenticate", `Bearer realm="pdf-search"`)
				writeError(w, http.StatusUnauthorized, gen.ErrorResponseCodeUnauthorized, reason)
				return
			}

			setCaller(r.Context(), id.LogName())
			ctx := auth.ContextWithIdentity(r.Context(), id)
			ctx = logger.With(ctx, zap.String("caller", id.LogName()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authenticate returns the identity or a client-safe rejection reason.
func authenticate(a Authenticator, r *http.Request) (auth.Identity, string) {
	if key := strings.TrimSpace(r.Header.Get(APIKeyHeader)); key != "" {
		id, err := a.CheckAPIKey(key)
		if err != nil {
			return auth.Identity{}, "invalid api key"
		}
		return id, ""
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return auth.Identity{}, "missing credentials"
	}
	const bearerPrefix = "Bearer "
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return auth.Identity{}, "authorization header must use Bearer scheme"
	}
	id, err := a.Authenticate(strings.TrimSpace(header[len(bearerPrefix):]))
	if err != nil {
		return auth.Identity{}, "invalid credentials"
	}
	return id, ""
}
