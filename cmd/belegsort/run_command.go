package main

import (
	"github.com/spf13/cobra"
)

// newRunCommand chains download and process into one invocation.
func newRunCommand(ctx *commandContext) *cobra.Command {
	var flags processFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Download documents from bexio, then analyze and rename them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			applyProcessFlags(cfg, flags)
			if err := runDownload(cmd, cfg); err != nil {
				return err
			}
			return runProcess(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&flags.inputDir, "input-dir", "", "Directory containing downloaded documents")
	cmd.Flags().StringVar(&flags.outputDir, "output-dir", "", "Directory receiving renamed documents")
	cmd.Flags().StringVar(&flags.archiveDir, "archive-dir", "", "Directory receiving archived originals")
	cmd.Flags().StringVar(&flags.logDir, "log-dir", "", "Directory for logs and run journals")
	cmd.Flags().StringVar(&flags.model, "model", "", "Analyzer model override")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 0, "Number of documents processed in parallel")
	cmd.Flags().IntVar(&flags.limit, "limit", 0, "Process at most this many documents (0 = all)")

	return cmd
}
