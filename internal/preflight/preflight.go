package preflight

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"belegsort/internal/accounts"
	"belegsort/internal/config"
	"belegsort/internal/deps"
)

// CheckResult reports one environment check.
type CheckResult struct {
	Name   string
	Fatal  bool
	Passed bool
	Detail string
}

// Run evaluates all environment checks for a processing run. The returned
// slice always contains every check; use FirstFatal to decide whether the
// run may start.
func Run(cfg *config.Config) []CheckResult {
	results := []CheckResult{
		checkAnalyzer(cfg),
		checkAPIKey(cfg),
		checkAccounts(cfg),
	}
	results = append(results, checkDirectories(cfg)...)
	return results
}

// FirstFatal returns the first failed fatal check, or nil when the run may
// proceed.
func FirstFatal(results []CheckResult) *CheckResult {
	for i := range results {
		if results[i].Fatal && !results[i].Passed {
			return &results[i]
		}
	}
	return nil
}

func checkAnalyzer(cfg *config.Config) CheckResult {
	result := CheckResult{Name: "analyzer", Fatal: true}
	argv, err := deps.ResolveAnalyzerCommand(cfg.Analyzer.Binary)
	if err != nil {
		result.Detail = err.Error()
		return result
	}
	result.Passed = true
	result.Detail = strings.Join(argv, " ")
	return result
}

func checkAPIKey(cfg *config.Config) CheckResult {
	result := CheckResult{Name: "api key", Fatal: false}
	if strings.TrimSpace(cfg.Analyzer.APIKey) == "" {
		result.Detail = "no API key configured; the analyzer may rely on its own authentication"
		return result
	}
	result.Passed = true
	result.Detail = "configured"
	return result
}

func checkAccounts(cfg *config.Config) CheckResult {
	result := CheckResult{Name: "accounts table", Fatal: false}
	path := strings.TrimSpace(cfg.Analyzer.AccountsPath)
	if path == "" {
		result.Passed = true
		result.Detail = "not configured; prompts use the generic account hint"
		return result
	}
	table, err := accounts.Load(path)
	if err != nil {
		result.Detail = err.Error()
		return result
	}
	result.Passed = true
	result.Detail = fmt.Sprintf("%d accounts from %s", table.Len(), path)
	return result
}

func checkDirectories(cfg *config.Config) []CheckResult {
	dirs := []struct {
		name string
		path string
	}{
		{"output directory", cfg.Paths.OutputDir},
		{"archive directory", cfg.Paths.ArchiveDir},
		{"log directory", cfg.Paths.LogDir},
	}
	results := make([]CheckResult, 0, len(dirs))
	for _, dir := range dirs {
		results = append(results, checkWritable(dir.name, dir.path))
	}
	return results
}

func checkWritable(name, path string) CheckResult {
	result := CheckResult{Name: name, Fatal: true}
	if strings.TrimSpace(path) == "" {
		result.Detail = "not configured"
		return result
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		result.Detail = fmt.Sprintf("create %s: %v", path, err)
		return result
	}
	probe, err := os.CreateTemp(path, ".belegsort-probe-*")
	if err != nil {
		result.Detail = fmt.Sprintf("%s is not writable: %v", path, err)
		return result
	}
	probeName := probe.Name()
	_ = probe.Close()
	_ = os.Remove(probeName)

	result.Passed = true
	result.Detail = filepath.Clean(path)
	return result
}
