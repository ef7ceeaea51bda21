package history

import (
	"context"
	"testing"
	"time"
)

func TestRecordAndListRuns(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	started := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	run := Run{
		ID:         "run-eins",
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Minute),
		InputDir:   "/tmp/downloads",
		Total:      2,
		Succeeded:  1,
		Failed:     1,
	}
	outcomes := []Outcome{
		{
			RunID:        run.ID,
			OriginalName: "scan-1.pdf",
			NewName:      "2024-03-15 - Swisscom - Rechnung.pdf",
			Status:       "success",
			FinishedAt:   started.Add(time.Minute),
		},
		{
			RunID:        run.ID,
			OriginalName: "scan-2.pdf",
			Status:       "analysis_failed",
			ErrorDetail:  "no JSON in model output",
			FinishedAt:   started.Add(90 * time.Second),
		},
	}
	if err := store.RecordRun(ctx, run, outcomes); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	runs, err := store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	got := runs[0]
	if got.ID != run.ID || got.Total != 2 || got.Succeeded != 1 || got.Failed != 1 {
		t.Fatalf("unexpected run row: %+v", got)
	}
	if !got.StartedAt.Equal(started) {
		t.Fatalf("started_at round trip: %v", got.StartedAt)
	}

	listed, err := store.ListOutcomes(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListOutcomes: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(listed))
	}
	if listed[0].NewName != outcomes[0].NewName {
		t.Fatalf("new_name round trip: %q", listed[0].NewName)
	}
	if listed[1].Status != "analysis_failed" || listed[1].ErrorDetail == "" {
		t.Fatalf("unexpected failed outcome: %+v", listed[1])
	}
	if listed[1].NewName != "" {
		t.Fatalf("failed outcome should have no new name, got %q", listed[1].NewName)
	}
}

func TestListRunsOrdersNewestFirst(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"alt", "mittel", "neu"} {
		run := Run{
			ID:         id,
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			FinishedAt: base.Add(time.Duration(i)*time.Hour + time.Minute),
			InputDir:   "/tmp",
		}
		if err := store.RecordRun(ctx, run, nil); err != nil {
			t.Fatalf("RecordRun(%s): %v", id, err)
		}
	}

	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("limit not applied, got %d runs", len(runs))
	}
	if runs[0].ID != "neu" || runs[1].ID != "mittel" {
		t.Fatalf("unexpected order: %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestOpenExistingDatabase(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	// Re-opening the same directory must pass the version check.
	store, err = Open(dir)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer store.Close()

	runs, err := store.ListRuns(context.Background(), 5)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected empty history, got %d runs", len(runs))
	}
}
