package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/pdfsearch/internal/version"
)

func main() {
	var opts rootOptions
	root := &cobra.Command{
		Use:          "pdfsearch",
		Short:        "Hybrid keyword and vector search over parsed PDF content",
		Version:      version.String(),
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"config file (default is config/$ENV.yaml)")

	root.AddCommand(serveCMD(&opts), ingestCMD(&opts), indexCMD(&opts), tokenCMD(&opts))
	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
