package sync

import (
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/datakite/datakite/internal/fsutil"
	"github.com/datakite/datakite/pkg/document"
	"github.com/datakite/datakite/pkg/errors"
)

// BackupSuffix is appended to a file's path to form its backup path during
// a transactional document merge.
const BackupSuffix = "~"

// Mutator is the single choke point for every mutating action performed
// during a sync. Each call emits a Debug narration record before acting.
// The dry-run implementation logs identically but mutates nothing.
type Mutator interface {
	// SetValue assigns a value to a document key.
	SetValue(doc *document.Document, key string, value document.Value) error

	// CopyFile copies a single file, overwriting the destination.
	CopyFile(src, dst string) error

	// CopyTree recursively copies a directory tree.
	CopyTree(src, dst string) error

	// Remove deletes a file.
	Remove(path string) error

	// WithBackup copies path to its backup sibling, runs fn with the
	// backup path, and removes the backup on every exit path. Removal
	// failures are logged, never returned. A pre-existing backup file
	// fails with a BackupExistsError before any mutation.
	WithBackup(path string, fn func(backupPath string) error) error

	// DryRun reports whether the mutator simulates instead of mutating.
	DryRun() bool

	// Logger returns the logger the mutator narrates to.
	Logger() *zerolog.Logger
}

// mutator performs mutations immediately and synchronously.
type mutator struct {
	fs     afero.Fs
	logger zerolog.Logger
}

// NewMutator creates a mutator that performs every action against fs,
// narrating each one at Debug level.
func NewMutator(fs afero.Fs, logger zerolog.Logger) Mutator {
	return &mutator{fs: fs, logger: logger}
}

func (m *mutator) DryRun() bool {
	return false
}

func (m *mutator) Logger() *zerolog.Logger {
	return &m.logger
}

func (m *mutator) SetValue(doc *document.Document, key string, value document.Value) error {
	logSetValue(&m.logger, key, value)
	return doc.Set(key, value)
}

func (m *mutator) CopyFile(src, dst string) error {
	logCopyFile(&m.logger, src, dst)
	return fsutil.CopyFile(m.fs, src, dst)
}

func (m *mutator) CopyTree(src, dst string) error {
	logCopyTree(&m.logger, src, dst)
	return fsutil.CopyTree(m.fs, src, dst)
}

func (m *mutator) Remove(path string) error {
	logRemove(&m.logger, path)
	if err := m.fs.Remove(path); err != nil {
		return errors.WrapIO("remove", path, err)
	}
	return nil
}

func (m *mutator) WithBackup(path string, fn func(string) error) (err error) {
	backup, err := backupPath(m.fs, &m.logger, path)
	if err != nil {
		return err
	}
	if err := fsutil.CopyFile(m.fs, path, backup); err != nil {
		return err
	}
	defer func() {
		m.logger.Trace().Str("path", fsutil.Rel(path)).Msg("Remove backup")
		if rmErr := m.fs.Remove(backup); rmErr != nil {
			// Never mask the primary error with a cleanup error.
			m.logger.Error().Err(rmErr).Str("path", fsutil.Rel(backup)).
				Msg("Failed to remove backup")
		}
	}()
	return fn(backup)
}

// dryRunMutator logs every action without performing it.
type dryRunMutator struct {
	fs     afero.Fs
	logger zerolog.Logger
}

// NewDryRunMutator creates a mutator that narrates every action at Debug
// level but performs no mutation. The fs is only read, to detect stale
// backup files.
func NewDryRunMutator(fs afero.Fs, logger zerolog.Logger) Mutator {
	return &dryRunMutator{fs: fs, logger: logger}
}

func (m *dryRunMutator) DryRun() bool {
	return true
}

func (m *dryRunMutator) Logger() *zerolog.Logger {
	return &m.logger
}

func (m *dryRunMutator) SetValue(_ *document.Document, key string, value document.Value) error {
	logSetValue(&m.logger, key, value)
	return nil
}

func (m *dryRunMutator) CopyFile(src, dst string) error {
	logCopyFile(&m.logger, src, dst)
	return nil
}

func (m *dryRunMutator) CopyTree(src, dst string) error {
	logCopyTree(&m.logger, src, dst)
	return nil
}

func (m *dryRunMutator) Remove(path string) error {
	logRemove(&m.logger, path)
	return nil
}

func (m *dryRunMutator) WithBackup(path string, fn func(string) error) error {
	// A stale backup blocks the merge even in a dry run, so that a dry run
	// reports the same failure a real run would hit.
	backup, err := backupPath(m.fs, &m.logger, path)
	if err != nil {
		return err
	}
	defer func() {
		m.logger.Trace().Str("path", fsutil.Rel(path)).Msg("Remove backup")
	}()
	return fn(backup)
}

// backupPath narrates backup creation and fails when a stale backup file is
// already present.
func backupPath(fs afero.Fs, logger *zerolog.Logger, path string) (string, error) {
	logger.Trace().Str("path", fsutil.Rel(path)).Msg("Create backup")
	backup := path + BackupSuffix
	exists, err := afero.Exists(fs, backup)
	if err != nil {
		return "", errors.WrapIO("stat", backup, err)
	}
	if exists {
		return "", errors.NewBackupExistsError(fsutil.Rel(backup))
	}
	return backup, nil
}

func logSetValue(logger *zerolog.Logger, key string, value document.Value) {
	logger.Debug().Str("key", key).Str("value", value.String()).Msg("Set document value")
}

func logCopyFile(logger *zerolog.Logger, src, dst string) {
	logger.Debug().Str("src", fsutil.Rel(src)).Str("dst", fsutil.Rel(dst)).Msg("Copy file")
}

func logCopyTree(logger *zerolog.Logger, src, dst string) {
	logger.Debug().Str("src", fsutil.Rel(src)).Str("dst", fsutil.Rel(dst)).Msg("Copy tree")
}

func logRemove(logger *zerolog.Logger, path string) {
	logger.Debug().Str("path", fsutil.Rel(path)).Msg("Remove path")
}
