package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// runJournal appends per-document outcome records to a JSON-lines file under
// the log directory and stores raw analyzer output alongside it. Workers
// write concurrently, so all writes go through one mutex.
type runJournal struct {
	mu     sync.Mutex
	file   *os.File
	rawDir string
}

type journalRecord struct {
	Time         string `json:"time"`
	OriginalName string `json:"original_name"`
	NewName      string `json:"new_name,omitempty"`
	Status       string `json:"status"`
	ErrorDetail  string `json:"error_detail,omitempty"`
}

func newRunJournal(logDir, runID string) (*runJournal, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	rawDir := filepath.Join(logDir, "raw")
	if err := os.MkdirAll(rawDir, 0o755); err != nil {
		return nil, fmt.Errorf("create raw output directory: %w", err)
	}
	path := filepath.Join(logDir, fmt.Sprintf("run-%s.jsonl", runID))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open run journal: %w", err)
	}
	return &runJournal{file: file, rawDir: rawDir}, nil
}

func (j *runJournal) Record(outcome Outcome) error {
	record := journalRecord{
		Time:         outcome.FinishedAt.UTC().Format(time.RFC3339),
		OriginalName: outcome.Task.OriginalName,
		NewName:      outcome.NewName,
		Status:       string(outcome.Status),
		ErrorDetail:  outcome.ErrorDetail,
	}
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal journal record: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append journal record: %w", err)
	}
	return nil
}

// RecordRaw preserves the analyzer's raw output for one document, so failed
// parses can be inspected later.
func (j *runJournal) RecordRaw(originalName, rawText string) error {
	if strings.TrimSpace(rawText) == "" {
		return nil
	}
	stem := originalName
	if idx := strings.LastIndex(stem, "."); idx > 0 {
		stem = stem[:idx]
	}
	path := filepath.Join(j.rawDir, stem+".raw.txt")

	j.mu.Lock()
	defer j.mu.Unlock()
	if err := os.WriteFile(path, []byte(rawText), 0o644); err != nil {
		return fmt.Errorf("write raw output: %w", err)
	}
	return nil
}

func (j *runJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}
