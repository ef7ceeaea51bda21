// Package mover relocates processed documents: a verified copy of the
// renamed file into the output directory followed by moving the original
// into the archive. Copy failures leave the original untouched; archive
// failures after a good copy keep the output copy, favoring data
// preservation over strict atomicity.
package mover
