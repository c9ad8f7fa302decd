package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/dupsweep/internal/cleaner"
	"github.com/fenilsonani/dupsweep/internal/ui/styles"
	"github.com/fenilsonani/dupsweep/pkg/utils"
)

// SummaryViewModel handles the summary/results view
type SummaryViewModel struct {
	result *cleaner.RemovalResult
	undo   *cleaner.UndoResult
}

// NewSummaryViewModel creates a new summary view model
func NewSummaryViewModel(result *cleaner.RemovalResult) *SummaryViewModel {
	return &SummaryViewModel{result: result}
}

// SetUndo records the outcome of undoing this batch
func (m *SummaryViewModel) SetUndo(undo *cleaner.UndoResult) {
	m.undo = undo
}

// Init initializes the summary view
func (m *SummaryViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *SummaryViewModel) Update(msg tea.Msg) (*SummaryViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "r":
			return m, func() tea.Msg { return ReviewSelectionMsg{} }
		case "u":
			if m.undo == nil && m.result != nil && len(m.result.Entries) > 0 {
				return m, func() tea.Msg { return UndoRequestedMsg{} }
			}
		}
	}

	return m, nil
}

// View renders the summary view
func (m *SummaryViewModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("✨ Removal Summary"))
	b.WriteString("\n\n")

	if m.result != nil {
		b.WriteString(styles.SuccessStyle.Render(fmt.Sprintf("✓ Moved %d files to the trash",
			len(m.result.Trashed))))
		b.WriteString("\n")

		b.WriteString(styles.BoldStyle.Render(fmt.Sprintf("Space freed: %s",
			utils.FormatBytes(m.result.FreedBytes))))
		b.WriteString("\n\n")

		if len(m.result.BackedUp) > 0 {
			b.WriteString(styles.InfoStyle.Render(fmt.Sprintf("Backed up %d files", len(m.result.BackedUp))))
			b.WriteString("\n")
		}

		if len(m.result.Skipped) > 0 {
			b.WriteString(styles.WarningStyle.Render(fmt.Sprintf("⚠ Skipped %d protected files",
				len(m.result.Skipped))))
			b.WriteString("\n")
		}

		if len(m.result.Errors) > 0 {
			b.WriteString(styles.ErrorStyle.Render(fmt.Sprintf("✗ %d files could not be removed",
				len(m.result.Errors))))
			b.WriteString(cleaner.FormatErrorSummary(m.result.Errors))
			b.WriteString("\n")
		}
	}

	if m.undo != nil {
		b.WriteString("\n")
		b.WriteString(styles.SuccessStyle.Render(fmt.Sprintf("↩ Restored %d files", len(m.undo.Restored))))
		b.WriteString("\n")
		if len(m.undo.Missing) > 0 {
			b.WriteString(styles.WarningStyle.Render(fmt.Sprintf("%d files were no longer in the trash", len(m.undo.Missing))))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	help := "enter back to groups | u undo | q quit"
	if m.undo != nil {
		help = "enter back to groups | q quit"
	}
	b.WriteString(styles.HelpStyle.Render(help))

	return b.String()
}
