package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/pdfsearch/internal/auth"
)

func tokenCMD(opts *rootOptions) *cobra.Command {
	token := &cobra.Command{
		Use:   "token",
		Short: "Issue bearer tokens for operators",
	}

	var (
		sub string
		ttl time.Duration
	)
	mint := &cobra.Command{
		Use:   "mint",
		Short: "Mint a signed token for a subject",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime(opts)
			if err != nil {
				return err
			}
			defer func() { _ = rt.logger.Sync() }()

			a := rt.cfg.Auth
			authn, err := auth.New(auth.Options{
				APIKeys:   a.APIKeys,
				JWTSecret: a.JWTSecret,
				Issuer:    a.JWTIssuer,
				TTL:       a.JWTTTL(),
			})
			if err != nil {
				return fmt.Errorf("authenticator: %w", err)
			}

			signed, exp, err := authn.Mint(sub, ttl)
			if err != nil {
				return fmt.Errorf("mint token: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), signed)
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", exp.UTC().Format(time.RFC3339))
			return nil
		},
	}
	mint.Flags().StringVar(&sub, "sub", "", "token subject; also names its rate limit bucket")
	mint.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default auth.jwt_ttl_sec)")
	_ = mint.MarkFlagRequired("sub")

	token.AddCommand(mint)
	return token
}
