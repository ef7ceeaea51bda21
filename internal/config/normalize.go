package config

import (
	"os"
	"strings"
)

// normalize expands paths, applies environment fallbacks, and fills zero
// values with defaults so downstream code never re-checks them.
func (c *Config) normalize() error {
	var err error
	if c.Paths.InputDir, err = expandPath(valueOr(c.Paths.InputDir, defaultInputDir)); err != nil {
		return err
	}
	if c.Paths.OutputDir, err = expandPath(valueOr(c.Paths.OutputDir, defaultOutputDir)); err != nil {
		return err
	}
	if c.Paths.ArchiveDir, err = expandPath(valueOr(c.Paths.ArchiveDir, defaultArchiveDir)); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(valueOr(c.Paths.LogDir, defaultLogDir)); err != nil {
		return err
	}
	if c.Analyzer.AccountsPath != "" {
		if c.Analyzer.AccountsPath, err = expandPath(c.Analyzer.AccountsPath); err != nil {
			return err
		}
	}

	c.Company.Name = strings.TrimSpace(c.Company.Name)
	if c.Company.Name == "" {
		c.Company.Name = strings.TrimSpace(os.Getenv("COMPANY_NAME"))
	}

	c.Bexio.Token = strings.TrimSpace(c.Bexio.Token)
	if c.Bexio.Token == "" {
		c.Bexio.Token = strings.TrimSpace(os.Getenv("BEXIO_ACCESS_TOKEN"))
	}
	if strings.TrimSpace(c.Bexio.BaseURL) == "" {
		c.Bexio.BaseURL = defaultBexioBaseURL
	}
	if c.Bexio.TimeoutSeconds <= 0 {
		c.Bexio.TimeoutSeconds = defaultBexioTimeout
	}
	if c.Bexio.PageSize <= 0 {
		c.Bexio.PageSize = defaultBexioPageSize
	}

	c.Analyzer.APIKey = strings.TrimSpace(c.Analyzer.APIKey)
	if c.Analyzer.APIKey == "" {
		c.Analyzer.APIKey = strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))
	}
	if c.Analyzer.APIKey == "" {
		c.Analyzer.APIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	if strings.TrimSpace(c.Analyzer.Model) == "" {
		c.Analyzer.Model = defaultAnalyzerModel
	}
	if c.Analyzer.TimeoutSeconds <= 0 {
		c.Analyzer.TimeoutSeconds = defaultAnalyzerTimeout
	}

	if c.Processing.Concurrency == 0 {
		c.Processing.Concurrency = defaultConcurrency
	}

	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaultLogFormat
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
