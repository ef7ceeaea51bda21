package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"belegsort/internal/bexio"
	"belegsort/internal/config"
	"belegsort/internal/logging"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "download",
		Short: "Download all documents from bexio into the input directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runDownload(cmd, cfg)
		},
	}
}

func runDownload(cmd *cobra.Command, cfg *config.Config) error {
	if err := cfg.RequireBexioToken(); err != nil {
		return err
	}

	client, err := bexio.NewClient(bexio.Config{
		Token:          cfg.Bexio.Token,
		BaseURL:        cfg.Bexio.BaseURL,
		TimeoutSeconds: cfg.Bexio.TimeoutSeconds,
		PageSize:       cfg.Bexio.PageSize,
	})
	if err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	written, err := client.FetchAll(cmd.Context(), cfg.Paths.InputDir, logger)
	if err != nil {
		return fmt.Errorf("download documents: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %d new document(s) to %s\n", written, cfg.Paths.InputDir)
	return nil
}
