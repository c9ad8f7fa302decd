package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fenilsonani/dupsweep/internal/ui/styles"
	"github.com/fenilsonani/dupsweep/pkg/utils"
)

// StatusBar represents a status bar component that displays at the bottom of views
type StatusBar struct {
	viewName  string
	marked    int
	total     int
	size      int64
	shortcuts []Shortcut
}

// Shortcut is one key hint on the right side of the bar
type Shortcut struct {
	Key  string
	Desc string
}

// NewStatusBar creates a new status bar
func NewStatusBar() *StatusBar {
	return &StatusBar{}
}

// SetView sets the current view name
func (s *StatusBar) SetView(viewName string) {
	s.viewName = viewName
}

// SetSelection sets how many files are marked for removal out of total,
// and the bytes their removal frees
func (s *StatusBar) SetSelection(marked, total int, size int64) {
	s.marked = marked
	s.total = total
	s.size = size
}

// SetShortcuts sets the key hints, shown in the given order
func (s *StatusBar) SetShortcuts(shortcuts ...Shortcut) {
	s.shortcuts = shortcuts
}

// Render renders the status bar with the given width
func (s *StatusBar) Render(width int) string {
	if width <= 0 {
		width = 80
	}

	var parts []string
	if s.viewName != "" {
		parts = append(parts, styles.BoldStyle.Render(s.viewName))
	}
	if s.total > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d marked", s.marked, s.total))
	}
	if s.size > 0 {
		parts = append(parts, styles.FileSizeStyle.Render(utils.FormatBytes(s.size)))
	}
	leftSide := strings.Join(parts, " • ")

	var shortcutParts []string
	for _, sc := range s.shortcuts {
		shortcutParts = append(shortcutParts, fmt.Sprintf("%s:%s", styles.DimStyle.Render(sc.Key), sc.Desc))
	}
	rightSide := strings.Join(shortcutParts, " ")

	leftLen := lipgloss.Width(leftSide)
	rightLen := lipgloss.Width(rightSide)
	spacing := width - leftLen - rightLen - 2 // -2 for padding
	if spacing < 1 {
		// Not enough room for the hints
		rightSide = ""
		spacing = 1
	}

	return RenderSimple(leftSide+strings.Repeat(" ", spacing)+rightSide, width)
}

// RenderSimple renders a simple status bar with just a message
func RenderSimple(message string, width int) string {
	if width <= 0 {
		width = 80
	}

	statusBarStyle := lipgloss.NewStyle().
		Foreground(styles.Text).
		Background(styles.BgDark).
		Padding(0, 1).
		Width(width)

	return statusBarStyle.Render(message)
}
