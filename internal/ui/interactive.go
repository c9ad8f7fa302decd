package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/dupsweep/internal/session"
	"github.com/fenilsonani/dupsweep/internal/ui/models"
)

// RunInteractive starts the interactive TUI: it scans, then lets the user
// review groups, remove marked files and undo.
func RunInteractive(orch *session.Orchestrator, opts models.Options) error {
	m := models.NewAppModel(orch, opts)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running interactive mode: %w", err)
	}

	// The program can exit mid-scan
	orch.Cancel()
	orch.Wait()

	return nil
}
