package config

const (
	defaultInputDir        = "~/belegsort/downloads"
	defaultOutputDir       = "~/belegsort/benannt"
	defaultArchiveDir      = "~/belegsort/verarbeitet"
	defaultLogDir          = "~/.local/share/belegsort/logs"
	defaultBexioBaseURL    = "https://api.bexio.com"
	defaultBexioTimeout    = 30
	defaultBexioPageSize   = 500
	defaultAnalyzerModel   = "gemini-2.5-flash"
	defaultAnalyzerTimeout = 120
	defaultConcurrency     = 4
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir:   defaultInputDir,
			OutputDir:  defaultOutputDir,
			ArchiveDir: defaultArchiveDir,
			LogDir:     defaultLogDir,
		},
		Bexio: Bexio{
			BaseURL:        defaultBexioBaseURL,
			TimeoutSeconds: defaultBexioTimeout,
			PageSize:       defaultBexioPageSize,
		},
		Analyzer: Analyzer{
			Model:          defaultAnalyzerModel,
			TimeoutSeconds: defaultAnalyzerTimeout,
		},
		Processing: Processing{
			Concurrency: defaultConcurrency,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
