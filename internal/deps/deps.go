// Package deps checks the availability of external binaries belegsort
// depends on before a run starts.
package deps

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrAnalyzerUnavailable signals that no analysis CLI could be found. This is
// fatal for a run: no task can proceed without the analyzer.
var ErrAnalyzerUnavailable = errors.New("analyzer unavailable")

// Requirement defines an external dependency belegsort relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// ResolveAnalyzerCommand determines the argv used to invoke the analysis CLI.
// An explicit override wins; otherwise "gemini" from PATH is preferred, with
// "npx gemini-chat-cli" as a fallback. Returns ErrAnalyzerUnavailable when
// nothing usable is installed.
func ResolveAnalyzerCommand(override string) ([]string, error) {
	if trimmed := strings.TrimSpace(override); trimmed != "" {
		fields := strings.Fields(trimmed)
		if _, err := exec.LookPath(fields[0]); err != nil {
			return nil, fmt.Errorf("%w: configured binary %q not found", ErrAnalyzerUnavailable, fields[0])
		}
		return fields, nil
	}
	if _, err := exec.LookPath("gemini"); err == nil {
		return []string{"gemini"}, nil
	}
	if _, err := exec.LookPath("npx"); err == nil {
		return []string{"npx", "gemini-chat-cli"}, nil
	}
	return nil, fmt.Errorf("%w: neither \"gemini\" nor \"npx\" found on PATH", ErrAnalyzerUnavailable)
}
