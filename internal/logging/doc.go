// Package logging wires log/slog for belegsort: a console or JSON handler
// over stdout plus an append-only log file under the configured log
// directory, with attribute helpers shared across components.
package logging
