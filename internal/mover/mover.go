package mover

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"belegsort/internal/fileutil"
	"belegsort/internal/logging"
)

// ErrDestinationExists signals that the archive slot is already occupied.
// Archive names flow through the same reservation registry as output names,
// so this indicates outside interference with the archive directory.
var ErrDestinationExists = errors.New("destination already exists")

// CopyError reports a failure before the original was touched.
type CopyError struct {
	Err error
}

func (e *CopyError) Error() string { return fmt.Sprintf("copy renamed file: %v", e.Err) }
func (e *CopyError) Unwrap() error { return e.Err }

// ArchiveError reports a failure moving the original after the renamed copy
// was already written. The output copy is retained.
type ArchiveError struct {
	Err error
}

func (e *ArchiveError) Error() string { return fmt.Sprintf("archive original: %v", e.Err) }
func (e *ArchiveError) Unwrap() error { return e.Err }

// Mover places renamed documents and archives originals.
type Mover struct {
	logger *slog.Logger
}

// New constructs a mover.
func New(logger *slog.Logger) *Mover {
	return &Mover{logger: logging.NewComponentLogger(logger, "mover")}
}

// Place copies source to outputPath, then moves source to archivePath.
// Ordering matters: until the copy has been verified, the original is never
// modified, so a failed task leaves the input directory untouched.
func (m *Mover) Place(source, outputPath, archivePath string) error {
	if _, err := os.Stat(archivePath); err == nil {
		return &ArchiveError{Err: fmt.Errorf("%w: %s", ErrDestinationExists, archivePath)}
	} else if !errors.Is(err, os.ErrNotExist) {
		return &ArchiveError{Err: fmt.Errorf("check archive slot: %w", err)}
	}

	if err := fileutil.CopyFileVerified(source, outputPath); err != nil {
		return &CopyError{Err: err}
	}
	m.logger.Debug("renamed copy written",
		logging.String("source", source),
		logging.String("output", outputPath),
	)

	if err := fileutil.MoveFile(source, archivePath); err != nil {
		m.logger.Warn("original could not be archived; renamed copy retained",
			logging.String("source", source),
			logging.String("archive", archivePath),
			logging.Error(err),
		)
		return &ArchiveError{Err: err}
	}
	m.logger.Debug("original archived",
		logging.String("source", source),
		logging.String("archive", archivePath),
	)
	return nil
}
