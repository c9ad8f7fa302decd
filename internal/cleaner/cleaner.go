package cleaner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fenilsonani/dupsweep/internal/logging"
	"github.com/fenilsonani/dupsweep/internal/progress"
	"github.com/fenilsonani/dupsweep/internal/security"
)

// UndoEntry records where a trashed file came from
type UndoEntry struct {
	OriginalPath string `json:"original_path" yaml:"original_path"`
	TrashPath    string `json:"trash_path" yaml:"trash_path"`
}

// RemovalResult represents the result of a MoveToTrash batch
type RemovalResult struct {
	// Trashed maps original path to trash path
	Trashed map[string]string
	// Entries holds the same pairs in request order
	Entries []UndoEntry
	// BackedUp maps original path to its backup copy
	BackedUp map[string]string
	// Skipped lists protected paths that were left untouched
	Skipped    []string
	Errors     []*RemovalError
	FreedBytes int64
}

// UndoResult represents the result of restoring a batch
type UndoResult struct {
	Restored []string
	// Missing lists trash paths that no longer exist
	Missing []string
	Errors  []*RemovalError
}

var retryDelays = []time.Duration{
	100 * time.Millisecond,
	500 * time.Millisecond,
}

// Remover moves files to the trash with optional backup copies
type Remover struct {
	trash            *Trash
	validator        *security.PathValidator
	logger           logging.Logger
	progressReporter *progress.ProgressReporter
}

// NewRemover creates a Remover. A nil validator guards the default
// protected paths only.
func NewRemover(trash *Trash, validator *security.PathValidator, logger logging.Logger) *Remover {
	if validator == nil {
		validator = security.NewPathValidator()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Remover{
		trash:     trash,
		validator: validator,
		logger:    logger,
	}
}

// SetProgressReporter sets a progress reporter for removal updates
func (r *Remover) SetProgressReporter(pr *progress.ProgressReporter) {
	r.progressReporter = pr
}

// MoveToTrash moves each path to the trash. With a backupDir, each file is
// first copied there under its own name, renamed name_N.ext on conflict.
// Protected paths are skipped. Per-file failures are collected in the
// result; the call only fails if backupDir cannot be created, in which
// case nothing is moved.
func (r *Remover) MoveToTrash(paths []string, backupDir string) (*RemovalResult, error) {
	if backupDir != "" {
		if err := os.MkdirAll(backupDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create backup directory: %w", err)
		}
	}

	result := &RemovalResult{
		Trashed:  make(map[string]string),
		BackedUp: make(map[string]string),
	}
	startTime := time.Now()
	r.reportProgress(progress.PhaseRemoving, "", 0, len(paths), result, startTime)

	for i, path := range paths {
		r.reportProgress(progress.PhaseRemoving, path, i, len(paths), result, startTime)

		if err := r.validator.ValidatePathForRemoval(path); err != nil {
			if errors.Is(err, security.ErrProtectedPath) {
				r.logger.Warn("refusing to trash protected path", "path", path)
				result.Skipped = append(result.Skipped, path)
				continue
			}
			result.Errors = append(result.Errors, &RemovalError{Path: path, Reason: ErrorInvalidPath, Original: err})
			continue
		}

		size, err := IsSafeToRemove(path)
		if err != nil {
			remErr := CategorizeError(path, err)
			if remErr.Reason == ErrorUnknown {
				remErr.Reason = ErrorInvalidPath
			}
			result.Errors = append(result.Errors, remErr)
			continue
		}

		if backupDir != "" {
			dest, err := backupFile(path, backupDir)
			if err != nil {
				r.logger.Warn("backup failed, file left in place", "path", path, "error", err)
				result.Errors = append(result.Errors, CategorizeError(path, err))
				continue
			}
			result.BackedUp[path] = dest
		}

		trashPath, remErr := r.putWithRetry(path)
		if remErr != nil {
			r.logger.Warn("failed to move file to trash", "path", path, "error", remErr.Original)
			result.Errors = append(result.Errors, remErr)
			continue
		}

		result.Trashed[path] = trashPath
		result.Entries = append(result.Entries, UndoEntry{OriginalPath: path, TrashPath: trashPath})
		result.FreedBytes += size
		r.logger.Debug("moved to trash", "path", path, "trash_path", trashPath)
	}

	r.reportProgress(progress.PhaseDone, "", len(paths), len(paths), result, startTime)
	return result, nil
}

// putWithRetry retries transient failures such as a busy file
func (r *Remover) putWithRetry(path string) (string, *RemovalError) {
	var lastErr *RemovalError
	for attempt := 0; attempt <= len(retryDelays); attempt++ {
		trashPath, err := r.trash.Put(path)
		if err == nil {
			return trashPath, nil
		}
		lastErr = CategorizeError(path, err)
		if !lastErr.Retryable || attempt == len(retryDelays) {
			break
		}
		time.Sleep(retryDelays[attempt])
	}
	return "", lastErr
}

// Undo moves every entry whose trash file still exists back to its
// original path. Entries with a missing trash file are skipped.
func (r *Remover) Undo(entries []UndoEntry) *UndoResult {
	result := &UndoResult{}
	for _, e := range entries {
		if !exists(e.TrashPath) {
			result.Missing = append(result.Missing, e.TrashPath)
			continue
		}
		if err := r.trash.Restore(e.TrashPath, e.OriginalPath); err != nil {
			r.logger.Warn("failed to restore file", "path", e.OriginalPath, "error", err)
			result.Errors = append(result.Errors, CategorizeError(e.OriginalPath, err))
			continue
		}
		result.Restored = append(result.Restored, e.OriginalPath)
	}
	return result
}

// backupFile copies path into dir and returns the copy's path
func backupFile(path, dir string) (string, error) {
	dest := uniquePath(dir, filepath.Base(path), exists)
	if err := copyFile(path, dest); err != nil {
		return "", fmt.Errorf("backup of %s: %w", path, err)
	}
	return dest, nil
}

// reportProgress reports removal progress to listeners
func (r *Remover) reportProgress(phase progress.Phase, currentFile string, done, total int, result *RemovalResult, startTime time.Time) {
	if r.progressReporter == nil {
		return
	}

	r.progressReporter.UpdateRemovalProgress(&progress.RemovalProgress{
		Phase:       phase,
		CurrentFile: currentFile,
		Done:        done,
		Total:       total,
		Trashed:     len(result.Trashed),
		BackedUp:    len(result.BackedUp),
		Failed:      len(result.Errors),
		FreedBytes:  result.FreedBytes,
		StartTime:   startTime,
	})
}
