// Package history persists pipeline run summaries and per-document outcomes
// in a SQLite database under the log directory, so past runs can be inspected
// after the fact.
package history
