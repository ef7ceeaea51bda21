// Package textutil provides small text helpers for building filesystem-safe
// filenames from extracted document metadata.
package textutil
