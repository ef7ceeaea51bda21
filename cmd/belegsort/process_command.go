package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"belegsort/internal/accounts"
	"belegsort/internal/config"
	"belegsort/internal/deps"
	"belegsort/internal/history"
	"belegsort/internal/logging"
	"belegsort/internal/pipeline"
	"belegsort/internal/preflight"
	"belegsort/internal/services/gemini"
)

type processFlags struct {
	inputDir    string
	outputDir   string
	archiveDir  string
	logDir      string
	model       string
	concurrency int
	limit       int
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var flags processFlags

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Analyze, rename, and archive downloaded documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			applyProcessFlags(cfg, flags)
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

func applyProcessFlags(cfg *config.Config, flags processFlags) {
	if dir := strings.TrimSpace(flags.inputDir); dir != "" {
		cfg.Paths.InputDir = dir
	}
	if dir := strings.TrimSpace(flags.outputDir); dir != "" {
		cfg.Paths.OutputDir = dir
	}
	if dir := strings.TrimSpace(flags.archiveDir); dir != "" {
		cfg.Paths.ArchiveDir = dir
	}
	if dir := strings.TrimSpace(flags.logDir); dir != "" {
		cfg.Paths.LogDir = dir
	}
	if model := strings.TrimSpace(flags.model); model != "" {
		cfg.Analyzer.Model = model
	}
	if flags.concurrency > 0 {
		cfg.Processing.Concurrency = flags.concurrency
	}
	if flags.limit > 0 {
		cfg.Processing.Limit = flags.limit
	}
}

func runProcess(cmd *cobra.Command, cfg *config.Config) error {
	out := cmd.OutOrStdout()

	if err := cfg.RequireCompany(); err != nil {
		return err
	}

	checks := preflight.Run(cfg)
	printChecks(out, checks)
	if fatal := preflight.FirstFatal(checks); fatal != nil {
		return fmt.Errorf("preflight check %q failed: %s", fatal.Name, fatal.Detail)
	}

	argv, err := deps.ResolveAnalyzerCommand(cfg.Analyzer.Binary)
	if err != nil {
		return err
	}
	analyzer, err := gemini.NewClient(gemini.Config{
		Command:            argv,
		Model:              cfg.Analyzer.Model,
		TimeoutSeconds:     cfg.Analyzer.TimeoutSeconds,
		CustomInstructions: cfg.Analyzer.CustomInstructions,
	})
	if err != nil {
		return err
	}

	var table *accounts.Table
	if path := strings.TrimSpace(cfg.Analyzer.AccountsPath); path != "" {
		table, err = accounts.Load(path)
		if err != nil {
			fmt.Fprintf(out, "Warning: accounts table unavailable: %v\n", err)
		}
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	// Run history is best effort; a broken database never blocks processing.
	store, storeErr := history.Open(cfg.Paths.LogDir)
	if storeErr != nil {
		fmt.Fprintf(out, "Warning: run history unavailable: %v\n", storeErr)
		store = nil
	}
	defer store.Close()

	coordinator := pipeline.New(cfg, analyzer, table, store, logger)
	summary, err := coordinator.Run(cmd.Context())
	if err != nil {
		return err
	}

	printSummary(out, summary)
	return nil
}

func printChecks(out io.Writer, checks []preflight.CheckResult) {
	for _, check := range checks {
		marker := "ok"
		if !check.Passed {
			marker = "warn"
			if check.Fatal {
				marker = "FAIL"
			}
		}
		fmt.Fprintf(out, "[%s] %s: %s\n", marker, check.Name, check.Detail)
	}
}

func printSummary(out io.Writer, summary *pipeline.Summary) {
	rows := make([][]string, 0, len(summary.Outcomes))
	for _, outcome := range summary.Outcomes {
		rows = append(rows, []string{
			outcome.Task.OriginalName,
			string(outcome.Status),
			outcome.NewName,
			truncateDetail(outcome.ErrorDetail, 60),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Original", "Status", "New Name", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
	))
	fmt.Fprintf(out, "Run %s: %d processed, %d renamed, %d analysis failures, %d move failures (%s)\n",
		summary.RunID,
		summary.Total(),
		summary.Count(pipeline.StatusSuccess),
		summary.Count(pipeline.StatusAnalysisFailed),
		summary.Count(pipeline.StatusMoveFailed),
		summary.Duration().Round(summaryDurationUnit),
	)
}
