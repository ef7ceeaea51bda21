// Package config loads, normalizes, and validates the belegsort TOML
// configuration. Configuration is loaded once at process start and passed
// explicitly into the pipeline; no component reads ambient global state.
package config
