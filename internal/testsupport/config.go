// Package testsupport provides helpers for constructing test configurations
// and fixture files.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"belegsort/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Company.Name = "Muster AG"
	cfgVal.Paths.InputDir = filepath.Join(base, "downloads")
	cfgVal.Paths.OutputDir = filepath.Join(base, "benannt")
	cfgVal.Paths.ArchiveDir = filepath.Join(base, "verarbeitet")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Processing.Concurrency = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithCompany overrides the company name on the test config.
func WithCompany(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Company.Name = name
	}
}

// WithBexioToken sets the bexio access token on the test config.
func WithBexioToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Bexio.Token = token
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the analyzer binary is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"gemini"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.InputDir)
}
