// Package preflight validates the runtime environment before a pipeline run:
// analyzer availability, credentials, the accounts table, and directory
// writability. Fatal findings abort the run before any document is touched.
package preflight
