package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"belegsort/internal/accounts"
	"belegsort/internal/config"
	"belegsort/internal/logging"
	"belegsort/internal/services"
	"belegsort/internal/services/gemini"
)

// stubAnalyzer returns canned results per original filename and tracks how
// many invocations run concurrently.
type stubAnalyzer struct {
	mu          sync.Mutex
	results     map[string]gemini.Result
	fallback    gemini.Result
	delay       time.Duration
	active      int
	maxActive   int
	invocations int
}

func (s *stubAnalyzer) Analyze(ctx context.Context, filePath, companyName string, table *accounts.Table) gemini.Result {
	s.mu.Lock()
	s.invocations++
	s.active++
	if s.active > s.maxActive {
		s.maxActive = s.active
	}
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	s.active--
	s.mu.Unlock()

	if result, ok := s.results[filepath.Base(filePath)]; ok {
		return result
	}
	return s.fallback
}

func parsedResult(date, vendor, docType, description string) gemini.Result {
	return gemini.Result{
		Date:           date,
		Vendor:         vendor,
		DocumentType:   docType,
		Description:    description,
		RawText:        "{}",
		ParseSucceeded: true,
	}
}

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Paths.InputDir = filepath.Join(dir, "in")
	cfg.Paths.OutputDir = filepath.Join(dir, "out")
	cfg.Paths.ArchiveDir = filepath.Join(dir, "done")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Company.Name = "Muster AG"
	cfg.Processing.Concurrency = 2
	if err := os.MkdirAll(cfg.Paths.InputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func writeInput(t *testing.T, cfg *config.Config, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(cfg.Paths.InputDir, name)
		if err := os.WriteFile(path, []byte("inhalt "+name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func listNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names
}

func TestRunProcessesAllDocuments(t *testing.T) {
	cfg := newTestConfig(t)
	writeInput(t, cfg, "a.pdf", "b.pdf", "c.jpg")

	analyzer := &stubAnalyzer{
		results: map[string]gemini.Result{
			"a.pdf": parsedResult("2024-01-10", "Swisscom", "Rechnung", "Internet Januar"),
			"b.pdf": parsedResult("2024-02-11", "SBB", "Quittung", "Billett"),
			"c.jpg": parsedResult("2024-03-12", "Coop", "Beleg", "Einkauf"),
		},
	}
	coordinator := New(cfg, analyzer, nil, nil, logging.NewNop())

	summary, err := coordinator.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Total() != 3 {
		t.Fatalf("expected 3 outcomes, got %d", summary.Total())
	}
	if got := summary.Count(StatusSuccess); got != 3 {
		t.Fatalf("expected 3 successes, got %d", got)
	}

	if remaining := listNames(t, cfg.Paths.InputDir); len(remaining) != 0 {
		t.Fatalf("input directory should be empty, has %v", remaining)
	}
	outputs := listNames(t, cfg.Paths.OutputDir)
	want := []string{
		"2024-01-10 - Swisscom - Rechnung - Muster AG - Internet Januar.pdf",
		"2024-02-11 - SBB - Quittung - Muster AG - Billett.pdf",
		"2024-03-12 - Coop - Beleg - Muster AG - Einkauf.jpg",
	}
	sort.Strings(want)
	if len(outputs) != len(want) {
		t.Fatalf("outputs %v, want %v", outputs, want)
	}
	for i := range want {
		if outputs[i] != want[i] {
			t.Fatalf("outputs %v, want %v", outputs, want)
		}
	}
	archived := listNames(t, cfg.Paths.ArchiveDir)
	if len(archived) != 3 {
		t.Fatalf("expected 3 archived originals, got %v", archived)
	}
}

func TestRunAppliesLimit(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Processing.Limit = 1
	writeInput(t, cfg, "e.pdf", "a.pdf", "c.pdf", "b.pdf", "d.pdf")

	analyzer := &stubAnalyzer{fallback: parsedResult("2024-01-01", "Lieferant", "Rechnung", "Posten")}
	coordinator := New(cfg, analyzer, nil, nil, logging.NewNop())

	summary, err := coordinator.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Total() != 1 {
		t.Fatalf("expected 1 outcome, got %d", summary.Total())
	}
	// Enumeration is sorted, so the limit selects a.pdf.
	if summary.Outcomes[0].Task.OriginalName != "a.pdf" {
		t.Fatalf("expected a.pdf to be selected, got %s", summary.Outcomes[0].Task.OriginalName)
	}
	if remaining := listNames(t, cfg.Paths.InputDir); len(remaining) != 4 {
		t.Fatalf("expected 4 untouched inputs, got %v", remaining)
	}
}

func TestRunAnalysisFailureIsIsolated(t *testing.T) {
	cfg := newTestConfig(t)
	writeInput(t, cfg, "gut-1.pdf", "kaputt.pdf", "gut-2.pdf")

	analyzer := &stubAnalyzer{
		results: map[string]gemini.Result{
			"gut-1.pdf":  parsedResult("2024-01-10", "Swisscom", "Rechnung", "Internet"),
			"gut-2.pdf":  parsedResult("2024-02-11", "SBB", "Quittung", "Billett"),
			"kaputt.pdf": {RawText: "kein JSON hier", ParseSucceeded: false},
		},
	}
	coordinator := New(cfg, analyzer, nil, nil, logging.NewNop())

	summary, err := coordinator.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := summary.Count(StatusSuccess); got != 2 {
		t.Fatalf("expected 2 successes, got %d", got)
	}
	if got := summary.Count(StatusAnalysisFailed); got != 1 {
		t.Fatalf("expected 1 analysis failure, got %d", got)
	}

	// The failed document is still renamed with the fallback schema and
	// archived; nothing stays behind in the input directory.
	if remaining := listNames(t, cfg.Paths.InputDir); len(remaining) != 0 {
		t.Fatalf("input directory should be empty, has %v", remaining)
	}
	var failed Outcome
	for _, outcome := range summary.Outcomes {
		if outcome.Task.OriginalName == "kaputt.pdf" {
			failed = outcome
		}
	}
	if failed.Status != StatusAnalysisFailed {
		t.Fatalf("unexpected outcome for kaputt.pdf: %+v", failed)
	}
	if failed.NewName == "" {
		t.Fatal("fallback rename should still produce a new name")
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.OutputDir, failed.NewName)); err != nil {
		t.Fatalf("fallback output missing: %v", err)
	}
}

func TestRunResolvesNameCollisions(t *testing.T) {
	cfg := newTestConfig(t)
	writeInput(t, cfg, "x.pdf", "y.pdf", "z.pdf")

	// All three documents yield identical metadata.
	same := parsedResult("2024-05-01", "Migros", "Quittung", "Einkauf")
	analyzer := &stubAnalyzer{fallback: same}
	coordinator := New(cfg, analyzer, nil, nil, logging.NewNop())

	summary, err := coordinator.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := summary.Count(StatusSuccess); got != 3 {
		t.Fatalf("expected 3 successes, got %d", got)
	}

	outputs := listNames(t, cfg.Paths.OutputDir)
	want := []string{
		"2024-05-01 - Migros - Quittung - Muster AG - Einkauf (2).pdf",
		"2024-05-01 - Migros - Quittung - Muster AG - Einkauf (3).pdf",
		"2024-05-01 - Migros - Quittung - Muster AG - Einkauf.pdf",
	}
	if fmt.Sprint(outputs) != fmt.Sprint(want) {
		t.Fatalf("outputs %v, want %v", outputs, want)
	}
}

func TestRunHonorsConcurrencyBound(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Processing.Concurrency = 2
	writeInput(t, cfg, "a.pdf", "b.pdf", "c.pdf", "d.pdf", "e.pdf", "f.pdf")

	analyzer := &stubAnalyzer{
		fallback: parsedResult("2024-01-01", "Lieferant", "Rechnung", "Posten"),
		delay:    20 * time.Millisecond,
	}
	coordinator := New(cfg, analyzer, nil, nil, logging.NewNop())

	summary, err := coordinator.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Total() != 6 {
		t.Fatalf("expected 6 outcomes, got %d", summary.Total())
	}
	if analyzer.maxActive > 2 {
		t.Fatalf("concurrency bound violated: %d simultaneous analyses", analyzer.maxActive)
	}
	if analyzer.invocations != 6 {
		t.Fatalf("expected 6 analyses, got %d", analyzer.invocations)
	}
}

func TestRunMissingInputDirectory(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Paths.InputDir = filepath.Join(cfg.Paths.InputDir, "fehlt")

	coordinator := New(cfg, &stubAnalyzer{}, nil, nil, logging.NewNop())
	_, err := coordinator.Run(context.Background())
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !services.IsFatalSetup(err) {
		t.Fatal("missing input directory must be a fatal setup error")
	}
}

func TestRunSkipsHiddenAndUnsupportedFiles(t *testing.T) {
	cfg := newTestConfig(t)
	writeInput(t, cfg, "beleg.pdf", ".versteckt.pdf", "notizen.txt", "README")

	analyzer := &stubAnalyzer{fallback: parsedResult("2024-01-01", "Lieferant", "Rechnung", "Posten")}
	coordinator := New(cfg, analyzer, nil, nil, logging.NewNop())

	summary, err := coordinator.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Total() != 1 {
		t.Fatalf("expected 1 outcome, got %d", summary.Total())
	}
	remaining := listNames(t, cfg.Paths.InputDir)
	if fmt.Sprint(remaining) != fmt.Sprint([]string{".versteckt.pdf", "README", "notizen.txt"}) {
		t.Fatalf("unexpected leftovers: %v", remaining)
	}
}

func TestRunWritesJournal(t *testing.T) {
	cfg := newTestConfig(t)
	writeInput(t, cfg, "beleg.pdf")

	analyzer := &stubAnalyzer{fallback: parsedResult("2024-01-01", "Lieferant", "Rechnung", "Posten")}
	coordinator := New(cfg, analyzer, nil, nil, logging.NewNop())

	summary, err := coordinator.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	journalPath := filepath.Join(cfg.Paths.LogDir, "run-"+summary.RunID+".jsonl")
	data, err := os.ReadFile(journalPath)
	if err != nil {
		t.Fatalf("read journal: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("journal is empty")
	}
}

func TestSupportedFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"scan.pdf", true},
		{"scan.PDF", true},
		{"foto.jpeg", true},
		{"foto.tiff", true},
		{".hidden.pdf", false},
		{"notizen.txt", false},
		{"README", false},
	}
	for _, tt := range tests {
		if got := SupportedFile(tt.name); got != tt.want {
			t.Errorf("SupportedFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
