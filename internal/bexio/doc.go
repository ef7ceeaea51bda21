// Package bexio wraps the bexio files API: paginated document listing and
// per-document binary downloads, used to materialize the pipeline's input
// directory.
package bexio
