package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfsearch/internal/auth"
	"github.com/kailas-cloud/pdfsearch/internal/config"
	domrl "github.com/kailas-cloud/pdfsearch/internal/domain/ratelimit"
	ratelimitrepo "github.com/kailas-cloud/pdfsearch/internal/repository/ratelimit"
	chiTransport "github.com/kailas-cloud/pdfsearch/internal/transport/chi"
	ratelimituc "github.com/kailas-cloud/pdfsearch/internal/usecase/ratelimit"
	"github.com/kailas-cloud/pdfsearch/internal/version"
)

func serveCMD(opts *rootOptions) *cobra.Command {
	var port int
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP search API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime(opts)
			if err != nil {
				return err
			}
			defer func() { _ = rt.logger.Sync() }()
			if port > 0 {
				rt.cfg.HTTP.Port = port
			}
			return runServer(cmd.Context(), rt)
		},
	}
	serve.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides http.port)")
	return serve
}

func runServer(parent context.Context, rt *runtimeEnv) error {
	cfg := rt.cfg
	logger := rt.logger

	logger.Info("Starting pdfsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", rt.env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, rt)
	if err != nil {
		return err
	}
	defer a.Close()

	authn, err := auth.New(auth.Options{
		APIKeys:   cfg.Auth.APIKeys,
		JWTSecret: cfg.Auth.JWTSecret,
		Issuer:    cfg.Auth.JWTIssuer,
		TTL:       cfg.Auth.JWTTTL(),
	})
	if err != nil {
		return fmt.Errorf("authenticator: %w", err)
	}

	limiter, err := newLimiter(&cfg.RateLimit, cfg.Search.KeyPrefix, a)
	if err != nil {
		return err
	}

	server := chiTransport.NewServer(a.search, a.pipeline, a.documents, a.health, chiTransport.SearchLimits{
		DefaultK: cfg.Search.DefaultK,
		MaxK:     cfg.Search.MaxK,
	})
	handler := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		Logger:         logger,
		Authenticator:  authn,
		Limiter:        limiter,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout(),
		WriteTimeout: cfg.HTTP.WriteTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// newLimiter picks the bucket store. "memory" keeps buckets per process and
// is meant for single-instance development.
func newLimiter(cfg *config.RateLimitConfig, keyPrefix string, a *app) (*ratelimituc.Limiter, error) {
	policy := domrl.Policy{
		RefillRate: cfg.RefillRate,
		Capacity:   cfg.Capacity,
		IdleTTL:    cfg.IdleTTL(),
	}

	var store ratelimituc.BucketStore
	switch cfg.Driver {
	case "memory":
		store = ratelimitrepo.NewMemory()
	default:
		store = ratelimitrepo.NewShared(a.store, keyPrefix)
	}

	limiter, err := ratelimituc.New(store, policy, cfg.Timeout())
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	return limiter, nil
}
