// Package auth validates caller credentials: static API keys from an
// allow-list and HS256 tokens issued by the operator CLI.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kailas-cloud/pdfsearch/internal/domain"
	domrl "github.com/kailas-cloud/pdfsearch/internal/domain/ratelimit"
)

// Defaults for issued tokens.
const (
	DefaultIssuer = "pdf-search"
	DefaultTTL    = time.Hour
)

// Kind tells how a caller authenticated.
type Kind string

// Credential kinds.
const (
	KindAPIKey Kind = "api_key"
	KindToken  Kind = "token"
)

// Identity is the authenticated caller.
type Identity struct {
	Kind    Kind
	Subject string // token subject; empty for API keys
	bucket  string
}

// BucketKey returns the rate-limit bucket of this caller.
func (i Identity) BucketKey() string { return i.bucket }

// LogName is safe to log: never the raw key.
func (i Identity) LogName() string {
	if i.Kind == KindToken {
		return "sub:" + i.Subject
	}
	return i.bucket
}

// Options configures the Authenticator.
type Options struct {
	APIKeys   []string
	JWTSecret string
	Issuer    string
	TTL       time.Duration
}

// Authenticator checks credentials. It holds no per-request state.
type Authenticator struct {
	keys   [][]byte
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// New creates an Authenticator. At least one credential source is required.
func New(opts Options) (*Authenticator, error) {
	a := &Authenticator{
		secret: []byte(opts.JWTSecret),
		issuer: opts.Issuer,
		ttl:    opts.TTL,
		now:    time.Now,
	}
	for _, k := range opts.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			a.keys = append(a.keys, []byte(k))
		}
	}
	if len(a.keys) == 0 && len(a.secret) == 0 {
		return nil, errors.New("no api keys or jwt secret configured")
	}
	if a.issuer == "" {
		a.issuer = DefaultIssuer
	}
	if a.ttl <= 0 {
		a.ttl = DefaultTTL
	}
	return a, nil
}

// CheckAPIKey matches key against the allow-list in constant time per entry.
func (a *Authenticator) CheckAPIKey(key string) (Identity, error) {
	if key == "" {
		return Identity{}, fmt.Errorf("%w: empty api key", domain.ErrUnauthorized)
	}
	b := []byte(key)
	found := false
	for _, k := range a.keys {
		if subtle.ConstantTimeCompare(k, b) == 1 {
			found = true
		}
	}
	if !found {
		return Identity{}, fmt.Errorf("%w: unknown api key", domain.ErrUnauthorized)
	}
	return Identity{Kind: KindAPIKey, bucket: domrl.KeyForAPIKey(key)}, nil
}

// Verify validates a signed token and returns its subject.
func (a *Authenticator) Verify(token string) (Identity, error) {
	if len(a.secret) == 0 {
		return Identity{}, fmt.Errorf("%w: tokens are not accepted", domain.ErrUnauthorized)
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !parsed.Valid {
		return Identity{}, fmt.Errorf("%w: invalid token: %w", domain.ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return Identity{}, fmt.Errorf("%w: token has no subject", domain.ErrUnauthorized)
	}
	return Identity{Kind: KindToken, Subject: claims.Subject, bucket: domrl.KeyForSubject(claims.Subject)}, nil
}

// Authenticate accepts either a known API key or a valid token.
func (a *Authenticator) Authenticate(credential string) (Identity, error) {
	if id, err := a.CheckAPIKey(credential); err == nil {
		return id, nil
	}
	if strings.Count(credential, ".") == 2 {
		return a.Verify(credential)
	}
	return Identity{}, fmt.Errorf("%w: unrecognized credential", domain.ErrUnauthorized)
}

// Mint issues a token for sub. ttl <= 0 uses the configured default.
func (a *Authenticator) Mint(sub string, ttl time.Duration) (string, time.Time, error) {
	if len(a.secret) == 0 {
		return "", time.Time{}, errors.New("jwt secret not configured")
	}
	if sub == "" {
		return "", time.Time{}, errors.New("subject is required")
	}
	if ttl <= 0 {
		ttl = a.ttl
	}
	now := a.now()
	exp := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   sub,
		Issuer:    a.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

type identityKey struct{}

// ContextWithIdentity stores the caller in ctx.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the caller stored by the credential middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
