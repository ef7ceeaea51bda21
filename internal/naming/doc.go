// Package naming turns extracted document metadata into canonical,
// filesystem-safe filenames and serializes collision resolution across
// concurrent workers.
package naming
