package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"belegsort/internal/accounts"
	"belegsort/internal/config"
	"belegsort/internal/history"
	"belegsort/internal/logging"
	"belegsort/internal/mover"
	"belegsort/internal/naming"
	"belegsort/internal/services"
	"belegsort/internal/services/gemini"
)

// ErrAlreadyRunning signals that another process holds the run lock.
var ErrAlreadyRunning = errors.New("another run is already in progress")

// Analyzer extracts document metadata. Implemented by gemini.Client.
type Analyzer interface {
	Analyze(ctx context.Context, filePath, companyName string, table *accounts.Table) gemini.Result
}

// Coordinator drives a full pipeline run.
type Coordinator struct {
	cfg      *config.Config
	analyzer Analyzer
	table    *accounts.Table
	mover    *mover.Mover
	store    *history.Store
	logger   *slog.Logger
}

// New constructs a coordinator. The history store may be nil, in which case
// the run is not persisted.
func New(cfg *config.Config, analyzer Analyzer, table *accounts.Table, store *history.Store, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		cfg:      cfg,
		analyzer: analyzer,
		table:    table,
		mover:    mover.New(logger),
		store:    store,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Run processes every supported document in the input directory and returns
// the aggregated summary. Setup failures (missing input directory, lock held
// by another process) abort before any document is touched; per-document
// failures are reported as outcomes.
func (c *Coordinator) Run(ctx context.Context) (*Summary, error) {
	info, err := os.Stat(c.cfg.Paths.InputDir)
	if err != nil || !info.IsDir() {
		return nil, services.Wrap(services.ErrNotFound, "pipeline", "enumerate",
			fmt.Sprintf("input directory %s does not exist", c.cfg.Paths.InputDir), nil)
	}
	if err := c.cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "setup", "create directories", err)
	}

	lock := flock.New(filepath.Join(c.cfg.Paths.LogDir, "belegsort.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "setup", "acquire run lock", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "setup", "", ErrAlreadyRunning)
	}
	defer func() { _ = lock.Unlock() }()

	tasks, err := c.enumerate()
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	journal, err := newRunJournal(c.cfg.Paths.LogDir, runID)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "setup", "open run journal", err)
	}
	defer func() { _ = journal.Close() }()

	summary := &Summary{
		RunID:     runID,
		InputDir:  c.cfg.Paths.InputDir,
		StartedAt: time.Now(),
		Outcomes:  make([]Outcome, len(tasks)),
	}
	c.logger.Info("run started",
		logging.String("run_id", runID),
		logging.Int("documents", len(tasks)),
		logging.Int("concurrency", c.concurrency()),
	)

	registry := naming.NewRegistry()
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.concurrency())
	for i, task := range tasks {
		i, task := i, task
		group.Go(func() error {
			outcome := c.processTask(groupCtx, task, registry, journal)
			summary.Outcomes[i] = outcome
			if err := journal.Record(outcome); err != nil {
				c.logger.Warn("journal write failed", logging.Error(err))
			}
			c.logOutcome(outcome)
			return nil
		})
	}
	// Workers never return errors; failures become outcomes.
	_ = group.Wait()

	summary.FinishedAt = time.Now()
	c.logger.Info("run finished",
		logging.String("run_id", runID),
		logging.Int("success", summary.Count(StatusSuccess)),
		logging.Int("analysis_failed", summary.Count(StatusAnalysisFailed)),
		logging.Int("move_failed", summary.Count(StatusMoveFailed)),
		logging.Int("skipped", summary.Count(StatusSkipped)),
		logging.Duration("duration", summary.Duration()),
	)

	c.recordHistory(ctx, summary)
	return summary, nil
}

// enumerate collects the supported input files in deterministic order and
// applies the configured limit.
func (c *Coordinator) enumerate() ([]DocumentTask, error) {
	entries, err := os.ReadDir(c.cfg.Paths.InputDir)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "pipeline", "enumerate", "read input directory", err)
	}

	var tasks []DocumentTask
	for _, entry := range entries {
		if entry.IsDir() || !SupportedFile(entry.Name()) {
			continue
		}
		tasks = append(tasks, DocumentTask{
			SourcePath:   filepath.Join(c.cfg.Paths.InputDir, entry.Name()),
			OriginalName: entry.Name(),
		})
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].OriginalName < tasks[j].OriginalName })

	if limit := c.cfg.Processing.Limit; limit > 0 && len(tasks) > limit {
		tasks = tasks[:limit]
	}
	return tasks, nil
}

func (c *Coordinator) concurrency() int {
	if c.cfg.Processing.Concurrency > 0 {
		return c.cfg.Processing.Concurrency
	}
	return 1
}

// processTask runs analysis, naming, and placement for one document. It
// never returns an error; every failure mode, including a panic in a worker,
// maps to an outcome status.
func (c *Coordinator) processTask(ctx context.Context, task DocumentTask, registry *naming.Registry, journal *runJournal) (outcome Outcome) {
	outcome = Outcome{Task: task}
	defer func() {
		if r := recover(); r != nil {
			outcome.Status = StatusMoveFailed
			outcome.ErrorDetail = fmt.Sprintf("worker panic: %v", r)
		}
		if outcome.FinishedAt.IsZero() {
			outcome.FinishedAt = time.Now()
		}
	}()

	if ctx.Err() != nil {
		outcome.Status = StatusSkipped
		outcome.ErrorDetail = ctx.Err().Error()
		return outcome
	}

	result := c.analyzer.Analyze(ctx, task.SourcePath, c.cfg.Company.Name, c.table)
	if err := journal.RecordRaw(task.OriginalName, result.RawText); err != nil {
		c.logger.Warn("raw output write failed",
			logging.String("file", task.OriginalName),
			logging.Error(err),
		)
	}

	policy := naming.Policy{CompanyName: c.cfg.Company.Name}
	var newName string
	if result.ParseSucceeded {
		outcome.Status = StatusSuccess
		newName = policy.BuildName(result, task.OriginalName)
	} else {
		outcome.Status = StatusAnalysisFailed
		outcome.ErrorDetail = firstLine(result.RawText)
		newName = policy.FallbackName(task.OriginalName, sourceModTime(task.SourcePath))
	}

	outputPath, err := registry.Reserve(c.cfg.Paths.OutputDir, newName)
	if err != nil {
		outcome.Status = StatusMoveFailed
		outcome.ErrorDetail = err.Error()
		return outcome
	}
	archivePath, err := registry.Reserve(c.cfg.Paths.ArchiveDir, task.OriginalName)
	if err != nil {
		outcome.Status = StatusMoveFailed
		outcome.ErrorDetail = err.Error()
		return outcome
	}

	if err := c.mover.Place(task.SourcePath, outputPath, archivePath); err != nil {
		outcome.Status = StatusMoveFailed
		outcome.ErrorDetail = err.Error()
		return outcome
	}

	outcome.NewName = filepath.Base(outputPath)
	return outcome
}

func (c *Coordinator) logOutcome(outcome Outcome) {
	attrs := []logging.Attr{
		logging.String("file", outcome.Task.OriginalName),
		logging.String("status", string(outcome.Status)),
	}
	if outcome.NewName != "" {
		attrs = append(attrs, logging.String("new_name", outcome.NewName))
	}
	if outcome.ErrorDetail != "" {
		attrs = append(attrs, logging.String("detail", outcome.ErrorDetail))
	}
	switch outcome.Status {
	case StatusSuccess:
		c.logger.Info("document processed", logging.Args(attrs...)...)
	default:
		c.logger.Warn("document not fully processed", logging.Args(attrs...)...)
	}
}

func (c *Coordinator) recordHistory(ctx context.Context, summary *Summary) {
	if c.store == nil {
		return
	}
	run := history.Run{
		ID:         summary.RunID,
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
		InputDir:   summary.InputDir,
		Total:      summary.Total(),
		Succeeded:  summary.Count(StatusSuccess),
		Failed:     summary.Count(StatusAnalysisFailed) + summary.Count(StatusMoveFailed),
	}
	outcomes := make([]history.Outcome, 0, len(summary.Outcomes))
	for _, outcome := range summary.Outcomes {
		outcomes = append(outcomes, history.Outcome{
			RunID:        summary.RunID,
			OriginalName: outcome.Task.OriginalName,
			NewName:      outcome.NewName,
			Status:       string(outcome.Status),
			ErrorDetail:  outcome.ErrorDetail,
			FinishedAt:   outcome.FinishedAt,
		})
	}
	if err := c.store.RecordRun(ctx, run, outcomes); err != nil {
		c.logger.Warn("history write failed", logging.Error(err))
	}
}

func sourceModTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

func firstLine(text string) string {
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			return text[:i]
		}
	}
	return text
}
