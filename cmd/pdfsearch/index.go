package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/pdfsearch/internal/config"
	dbRedis "github.com/kailas-cloud/pdfsearch/internal/db/redis"
	"github.com/kailas-cloud/pdfsearch/internal/domain"
	documentrepo "github.com/kailas-cloud/pdfsearch/internal/repository/document"
	indexrepo "github.com/kailas-cloud/pdfsearch/internal/repository/index"
)

func indexCMD(opts *rootOptions) *cobra.Command {
	index := &cobra.Command{
		Use:   "index",
		Short: "Manage the search index",
	}

	index.AddCommand(&cobra.Command{
		Use:   "create",
		Short: "Create the search index (no-op when it exists)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withIndex(cmd, opts, func(repo *indexrepo.Repo) error {
				err := repo.Create(cmd.Context())
				switch {
				case errors.Is(err, domain.ErrIndexExists):
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "index %s already exists\n", repo.Name())
					return nil
				case err != nil:
					return err //nolint:wrapcheck // repository errors carry the index name
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "index %s created\n", repo.Name())
				return nil
			})
		},
	})

	index.AddCommand(&cobra.Command{
		Use:   "drop",
		Short: "Drop the search index, keeping stored documents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withIndex(cmd, opts, func(repo *indexrepo.Repo) error {
				err := repo.Drop(cmd.Context())
				switch {
				case errors.Is(err, domain.ErrIndexNotFound):
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "index %s not found\n", repo.Name())
					return nil
				case err != nil:
					return err //nolint:wrapcheck // repository errors carry the index name
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "index %s dropped\n", repo.Name())
				return nil
			})
		},
	})

	return index
}

// withIndex connects only the store: index lifecycle needs no embedder.
func withIndex(cmd *cobra.Command, opts *rootOptions, fn func(*indexrepo.Repo) error) error {
	rt, err := loadRuntime(opts)
	if err != nil {
		return err
	}
	defer func() { _ = rt.logger.Sync() }()

	store, err := connectStore(cmd.Context(), rt)
	if err != nil {
		return err
	}
	defer store.Close()

	repo, err := newIndexRepo(store, &rt.cfg.Search)
	if err != nil {
		return err
	}
	if err := fn(repo); err != nil {
		return fmt.Errorf("index %s: %w", rt.cfg.Search.IndexName, err)
	}
	return nil
}

func newIndexRepo(store *dbRedis.Store, s *config.SearchConfig) (*indexrepo.Repo, error) {
	algo, err := indexrepo.ParseAlgorithm(s.VectorAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return indexrepo.New(store, s.IndexName, documentrepo.KeyPrefix(s.KeyPrefix), s.VectorDim).
		WithAlgorithm(algo).
		WithHNSW(indexrepo.HNSWConfig{M: s.HNSWM, EFConstruct: s.HNSWEFConstruct}), nil
}
