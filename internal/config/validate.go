package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateProcessing(); err != nil {
		return err
	}
	if err := c.validateAnalyzer(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.InputDir == "" {
		return errors.New("paths.input_dir must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.ArchiveDir == "" {
		return errors.New("paths.archive_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	if c.Paths.OutputDir == c.Paths.InputDir {
		return errors.New("paths.output_dir must differ from paths.input_dir")
	}
	if c.Paths.ArchiveDir == c.Paths.InputDir {
		return errors.New("paths.archive_dir must differ from paths.input_dir")
	}
	return nil
}

func (c *Config) validateProcessing() error {
	if c.Processing.Concurrency < 1 {
		return fmt.Errorf("processing.concurrency must be at least 1, got %d", c.Processing.Concurrency)
	}
	if c.Processing.Limit < 0 {
		return fmt.Errorf("processing.limit must not be negative, got %d", c.Processing.Limit)
	}
	return nil
}

func (c *Config) validateAnalyzer() error {
	if strings.TrimSpace(c.Analyzer.Model) == "" {
		return errors.New("analyzer.model must be set")
	}
	if c.Analyzer.TimeoutSeconds < 1 {
		return fmt.Errorf("analyzer.timeout_seconds must be at least 1, got %d", c.Analyzer.TimeoutSeconds)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	return nil
}

// RequireCompany verifies that a company name is configured. The processing
// pipeline needs it for prompts and fallback names; the download command
// does not.
func (c *Config) RequireCompany() error {
	if strings.TrimSpace(c.Company.Name) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/belegsort/config.toml"
		}
		return fmt.Errorf("company.name is required. Set COMPANY_NAME env var or edit %s (create with 'belegsort config init')", defaultPath)
	}
	return nil
}

// RequireBexioToken verifies that a bexio personal access token is configured.
func (c *Config) RequireBexioToken() error {
	if strings.TrimSpace(c.Bexio.Token) == "" {
		return errors.New("bexio.token is required. Set BEXIO_ACCESS_TOKEN env var or add it to the config file")
	}
	return nil
}
