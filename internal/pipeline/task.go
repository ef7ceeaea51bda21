package pipeline

import (
	"strings"
	"time"
)

// Status classifies the result of processing one document.
type Status string

const (
	// StatusSuccess means the document was analyzed, renamed, and archived.
	StatusSuccess Status = "success"
	// StatusAnalysisFailed means the analyzer produced no usable metadata;
	// the document was still renamed with the fallback schema and archived.
	StatusAnalysisFailed Status = "analysis_failed"
	// StatusMoveFailed means the rename or archive step failed; the document
	// may remain in the input directory.
	StatusMoveFailed Status = "move_failed"
	// StatusSkipped means the document was not processed, typically because
	// the run was canceled before its turn.
	StatusSkipped Status = "skipped"
)

// DocumentTask describes one input file queued for processing.
type DocumentTask struct {
	SourcePath   string
	OriginalName string
}

// Outcome records what happened to one document.
type Outcome struct {
	Task        DocumentTask
	Status      Status
	NewName     string
	ErrorDetail string
	FinishedAt  time.Time
}

// Renamed reports whether the document ended up renamed and archived.
func (o Outcome) Renamed() bool {
	return o.Status == StatusSuccess || o.Status == StatusAnalysisFailed
}

// Summary aggregates the outcomes of one run.
type Summary struct {
	RunID      string
	InputDir   string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []Outcome
}

// Total returns the number of processed documents.
func (s *Summary) Total() int {
	return len(s.Outcomes)
}

// Count returns how many outcomes carry the given status.
func (s *Summary) Count(status Status) int {
	n := 0
	for _, outcome := range s.Outcomes {
		if outcome.Status == status {
			n++
		}
	}
	return n
}

// Duration returns the wall-clock time of the run.
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// supportedExtensions lists the input file types the pipeline processes,
// lowercase with leading dot.
var supportedExtensions = map[string]struct{}{
	".pdf":  {},
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".tif":  {},
	".tiff": {},
}

// SupportedFile reports whether the filename has a processable extension.
// Hidden files are never processed.
func SupportedFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return false
	}
	_, ok := supportedExtensions[strings.ToLower(name[idx:])]
	return ok
}
