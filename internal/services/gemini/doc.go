// Package gemini invokes the external content-analysis CLI on one document
// and interprets its free-form output into structured metadata. Analysis
// failures never escape the client as errors: they are converted to a Result
// with ParseSucceeded set to false so the worker pool's fallback logic stays
// uniform.
package gemini
