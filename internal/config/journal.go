package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/fenilsonani/dupsweep/internal/platform"
)

// ErrNoJournal is returned by Load when no removal batch has been recorded
var ErrNoJournal = errors.New("no removal to undo")

// JournalEntry records where one removed file went
type JournalEntry struct {
	OriginalPath string `json:"original_path"`
	TrashPath    string `json:"trash_path"`
}

// Batch is the most recent removal batch, persisted so a later process can undo it
type Batch struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	Roots      []string       `json:"roots"`
	BackupDir  string         `json:"backup_dir,omitempty"`
	FreedBytes int64          `json:"freed_bytes"`
	Entries    []JournalEntry `json:"entries"`
}

// UndoJournal persists the last removal batch as JSON. Only one batch is
// kept; saving a new one replaces it.
type UndoJournal struct {
	path string
}

// NewUndoJournal creates a journal at the default location
func NewUndoJournal() (*UndoJournal, error) {
	configDir, err := platform.GetUserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	return NewUndoJournalAt(filepath.Join(configDir, "undo.json")), nil
}

// NewUndoJournalAt creates a journal stored at path
func NewUndoJournalAt(path string) *UndoJournal {
	return &UndoJournal{path: path}
}

// Path returns the journal file path
func (j *UndoJournal) Path() string {
	return j.path
}

// Save replaces the journal with batch
func (j *UndoJournal) Save(batch *Batch) error {
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	if batch.Timestamp.IsZero() {
		batch.Timestamp = time.Now()
	}

	if err := os.MkdirAll(filepath.Dir(j.path), 0755); err != nil {
		return fmt.Errorf("failed to create journal directory: %w", err)
	}

	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal journal: %w", err)
	}

	// Write then rename so a crash never leaves a truncated journal
	tmp := j.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write journal: %w", err)
	}
	if err := os.Rename(tmp, j.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write journal: %w", err)
	}
	return nil
}

// Load returns the recorded batch, or ErrNoJournal
func (j *UndoJournal) Load() (*Batch, error) {
	data, err := os.ReadFile(j.path)
	if os.IsNotExist(err) {
		return nil, ErrNoJournal
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	var batch Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("failed to unmarshal journal: %w", err)
	}
	if len(batch.Entries) == 0 {
		return nil, ErrNoJournal
	}
	return &batch, nil
}

// Clear removes the journal. Clearing an empty journal is not an error.
func (j *UndoJournal) Clear() error {
	if err := os.Remove(j.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete journal: %w", err)
	}
	return nil
}
