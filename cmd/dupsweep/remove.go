package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/dupsweep/internal/cleaner"
	"github.com/fenilsonani/dupsweep/internal/config"
	"github.com/fenilsonani/dupsweep/internal/logging"
	"github.com/fenilsonani/dupsweep/internal/reporter"
	"github.com/fenilsonani/dupsweep/internal/security"
	"github.com/fenilsonani/dupsweep/internal/session"
	"github.com/fenilsonani/dupsweep/internal/ui"
	"github.com/fenilsonani/dupsweep/pkg/utils"
)

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Restore the files moved to the trash by the last removal",
	Long: `Moves every file of the most recent removal batch back to its original
location. Files that were emptied from the trash in the meantime are reported
as missing. An existing file at the original location is never overwritten.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger, closer, err := newLogger(cfg, false)
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		defer closer.Close()

		journal, err := config.NewUndoJournal()
		if err != nil {
			return err
		}
		batch, err := journal.Load()
		if errors.Is(err, config.ErrNoJournal) {
			fmt.Println("Nothing to undo.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read undo journal: %w", err)
		}

		trash, err := cleaner.DefaultTrash()
		if err != nil {
			return fmt.Errorf("failed to locate trash: %w", err)
		}
		remover := cleaner.NewRemover(trash, security.NewPathValidator(cfg.ProtectedPaths...), logger)

		entries := make([]cleaner.UndoEntry, 0, len(batch.Entries))
		for _, e := range batch.Entries {
			entries = append(entries, cleaner.UndoEntry{OriginalPath: e.OriginalPath, TrashPath: e.TrashPath})
		}

		fmt.Printf("Restoring %d files removed %s...\n", len(entries), batch.Timestamp.Local().Format("2006-01-02 15:04"))
		result := remover.Undo(entries)

		fmt.Printf("\n↩ Restored: %d files\n", len(result.Restored))
		if len(result.Missing) > 0 {
			fmt.Printf("⚠️  No longer in the trash: %d files\n", len(result.Missing))
		}
		if len(result.Errors) > 0 {
			fmt.Printf("\n%s", cleaner.FormatErrorSummary(result.Errors))
			return fmt.Errorf("%d files could not be restored", len(result.Errors))
		}

		clearJournal(logger)
		return nil
	},
}

// removeMarked asks for confirmation, then trashes every non-kept file and
// records the batch for undo
func removeMarked(orch *session.Orchestrator, roots []string, backupDir string, similar bool) error {
	files := orch.FilesToRemove()
	if len(files) == 0 {
		fmt.Println("\n✨ Nothing to remove.")
		return nil
	}

	var total int64
	for _, f := range files {
		total += f.Size
	}

	if !force {
		if similar && backupDir == "" {
			fmt.Println("\n⚠️  Similar images are not identical copies and no --backup folder is set.")
		}
		fmt.Printf("\nMove %d files (%s) to the trash? (y/N): ", len(files), utils.FormatBytes(total))
		var response string
		fmt.Scanln(&response)
		if !strings.EqualFold(response, "y") {
			fmt.Println("Removal cancelled")
			return nil
		}
	}

	live := ui.NewLiveProgress(os.Stderr)
	updates := orch.Subscribe()
	go live.Run(updates)

	result, err := orch.RemoveMarked(backupDir)

	orch.Unsubscribe(updates)
	<-live.Done()

	if err != nil {
		return fmt.Errorf("removal failed: %w", err)
	}

	reporter.New(os.Stdout, reporter.FormatSummary).ReportRemoval(result)

	if err := saveJournal(result, roots, backupDir); err != nil {
		return fmt.Errorf("files were removed but the undo journal could not be saved: %w", err)
	}
	if len(result.Entries) > 0 {
		fmt.Println("\nRun 'dupsweep undo' to restore them.")
	}
	return nil
}

// saveJournal persists a removal batch. Empty batches leave the previous
// journal in place.
func saveJournal(result *cleaner.RemovalResult, roots []string, backupDir string) error {
	if result == nil || len(result.Entries) == 0 {
		return nil
	}

	journal, err := config.NewUndoJournal()
	if err != nil {
		return err
	}

	batch := &config.Batch{
		Roots:      roots,
		BackupDir:  backupDir,
		FreedBytes: result.FreedBytes,
	}
	for _, e := range result.Entries {
		batch.Entries = append(batch.Entries, config.JournalEntry{OriginalPath: e.OriginalPath, TrashPath: e.TrashPath})
	}
	return journal.Save(batch)
}

func clearJournal(logger logging.Logger) {
	journal, err := config.NewUndoJournal()
	if err == nil {
		err = journal.Clear()
	}
	if err != nil {
		logger.Warn("failed to clear undo journal", "error", err)
	}
}
