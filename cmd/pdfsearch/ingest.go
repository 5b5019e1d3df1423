package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfsearch/internal/domain"
	dombatch "github.com/kailas-cloud/pdfsearch/internal/domain/batch"
	"github.com/kailas-cloud/pdfsearch/internal/usecase/ingest"
)

func ingestCMD(opts *rootOptions) *cobra.Command {
	var (
		input       string
		createIndex bool
	)
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Embed and index records from a JSONL export of the PDF parser",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime(opts)
			if err != nil {
				return err
			}
			defer func() { _ = rt.logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			summary, err := runIngest(ctx, rt, input, createIndex)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "JSONL file, one record per line (- for stdin)")
	cmd.Flags().BoolVar(&createIndex, "create-index", true, "create the search index when missing")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runIngest(ctx context.Context, rt *runtimeEnv, input string, createIndex bool) (dombatch.Summary, error) {
	var r io.Reader = os.Stdin
	if input != "-" {
		f, err := os.Open(filepath.Clean(input))
		if err != nil {
			return dombatch.Summary{}, fmt.Errorf("open input: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	a, err := newApp(ctx, rt)
	if err != nil {
		return dombatch.Summary{}, err
	}
	defer a.Close()

	if createIndex {
		if err := a.index.Create(ctx); err != nil && !errors.Is(err, domain.ErrIndexExists) {
			return dombatch.Summary{}, fmt.Errorf("create index: %w", err)
		}
	}

	rt.logger.Info("Ingest started", zap.String("input", input))
	summary, err := a.pipeline.Ingest(ctx, ingest.NewJSONLSource(r))
	if err != nil {
		return summary, fmt.Errorf("ingest: %w", err)
	}
	rt.logger.Info("Ingest finished",
		zap.Int("indexed", summary.Indexed),
		zap.Int("failed", len(summary.Failures)),
	)
	return summary, nil
}

func printSummary(w io.Writer, s dombatch.Summary) {
	_, _ = fmt.Fprintf(w, "indexed: %d\nfailed: %d\n", s.Indexed, len(s.Failures))
	for _, f := range s.Failures {
		_, _ = fmt.Fprintf(w, "  record %d (pdf_id=%q): %v\n", f.Index(), f.PDFID(), f.Err())
	}
}
