// Package pipeline coordinates a full processing run: it enumerates the
// input directory, fans documents out to a bounded worker pool for analysis
// and renaming, and aggregates per-document outcomes into a run summary.
// One failing document never aborts the run.
package pipeline
