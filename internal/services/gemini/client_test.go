package gemini

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeExecutor struct {
	mu      sync.Mutex
	calls   int
	results []fakeRun
	prompts []string
	dirs    []string
}

type fakeRun struct {
	stdout string
	stderr string
	err    error
}

func (f *fakeExecutor) Run(ctx context.Context, dir string, argv []string, stdin string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, stdin)
	f.dirs = append(f.dirs, dir)
	idx := f.calls
	f.calls++
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	run := f.results[idx]
	return run.stdout, run.stderr, run.err
}

func newTestClient(t *testing.T, exec Executor) *Client {
	t.Helper()
	client, err := NewClient(Config{
		Command:        []string{"gemini"},
		Model:          "gemini-2.5-flash",
		TimeoutSeconds: 5,
	}, WithExecutor(exec), WithSleeper(func(time.Duration) {}))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestNewClientRequiresCommand(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error for missing command")
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	exec := &fakeExecutor{results: []fakeRun{{
		stdout: `{"date": "2024-03-15", "issuer": "Swisscom AG", "document_type": "Rechnung", "description": "Telefonabo"}`,
	}}}
	client := newTestClient(t, exec)

	result := client.Analyze(context.Background(), "/tmp/in/rechnung.pdf", "Noevu GmbH", nil)
	if !result.ParseSucceeded {
		t.Fatalf("expected success, raw: %q", result.RawText)
	}
	if result.Vendor != "Swisscom AG" {
		t.Fatalf("vendor = %q", result.Vendor)
	}
	if exec.calls != 1 {
		t.Fatalf("calls = %d, want 1", exec.calls)
	}
	if exec.dirs[0] != "/tmp/in" {
		t.Fatalf("analyzer should run in the file's directory, got %q", exec.dirs[0])
	}
	if !strings.Contains(exec.prompts[0], "rechnung.pdf") {
		t.Fatal("prompt missing filename")
	}
}

func TestAnalyzeUnparseableOutputFallsBack(t *testing.T) {
	exec := &fakeExecutor{results: []fakeRun{{stdout: "Ich kann diese Datei leider nicht lesen."}}}
	client := newTestClient(t, exec)

	result := client.Analyze(context.Background(), "/tmp/in/foto.jpg", "Noevu GmbH", nil)
	if result.ParseSucceeded {
		t.Fatal("expected parse failure")
	}
	if !strings.Contains(result.RawText, "nicht lesen") {
		t.Fatalf("raw text should carry analyzer output: %q", result.RawText)
	}
	// Unparseable output is not a transient failure; no retry.
	if exec.calls != 1 {
		t.Fatalf("calls = %d, want 1", exec.calls)
	}
}

func TestAnalyzeRetriesOnceOnFailure(t *testing.T) {
	exec := &fakeExecutor{results: []fakeRun{
		{err: errors.New("exit status 1"), stderr: "rate limited"},
		{stdout: `{"date": "2024-03-15", "issuer": "Migros"}`},
	}}
	client := newTestClient(t, exec)

	result := client.Analyze(context.Background(), "/tmp/in/quittung.pdf", "Noevu GmbH", nil)
	if !result.ParseSucceeded {
		t.Fatalf("expected success after retry, raw: %q", result.RawText)
	}
	if exec.calls != 2 {
		t.Fatalf("calls = %d, want 2", exec.calls)
	}
}

func TestAnalyzeExhaustedRetriesNeverPanics(t *testing.T) {
	exec := &fakeExecutor{results: []fakeRun{
		{err: errors.New("exit status 1"), stderr: "quota exceeded"},
	}}
	client := newTestClient(t, exec)

	result := client.Analyze(context.Background(), "/tmp/in/beleg.pdf", "Noevu GmbH", nil)
	if result.ParseSucceeded {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.RawText, "quota exceeded") {
		t.Fatalf("raw text should include stderr: %q", result.RawText)
	}
	if exec.calls != 2 {
		t.Fatalf("calls = %d, want 2 (one retry)", exec.calls)
	}
}

func TestAnalyzeCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &fakeExecutor{results: []fakeRun{{stdout: "{}"}}}
	client := newTestClient(t, exec)

	result := client.Analyze(ctx, "/tmp/in/beleg.pdf", "Noevu GmbH", nil)
	if result.ParseSucceeded {
		t.Fatal("expected failure for canceled context")
	}
	if !strings.Contains(result.RawText, "canceled") {
		t.Fatalf("raw text = %q", result.RawText)
	}
	if exec.calls != 0 {
		t.Fatalf("analyzer should not run after cancellation, calls = %d", exec.calls)
	}
}

func TestAnalyzeFiltersToolChatter(t *testing.T) {
	exec := &fakeExecutor{results: []fakeRun{{
		stdout: "IDEClient connected\n{\"date\": \"2024-03-15\", \"issuer\": \"Coop\"}\nIDEClient disconnected",
	}}}
	client := newTestClient(t, exec)

	result := client.Analyze(context.Background(), "/tmp/in/beleg.pdf", "Noevu GmbH", nil)
	if !result.ParseSucceeded {
		t.Fatalf("expected success, raw: %q", result.RawText)
	}
	if strings.Contains(result.RawText, "IDEClient") {
		t.Fatalf("chatter should be filtered: %q", result.RawText)
	}
}
