package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fenilsonani/dupsweep/internal/scanner"
	"github.com/fenilsonani/dupsweep/internal/ui/styles"
	"github.com/fenilsonani/dupsweep/pkg/utils"
)

// InfoPanel represents a contextual information panel
type InfoPanel struct {
	title   string
	content []InfoItem
	width   int
}

// InfoItem represents a single piece of information
type InfoItem struct {
	Label string
	Value string
	Icon  string
}

// NewInfoPanel creates a new info panel
func NewInfoPanel(title string, width int) *InfoPanel {
	return &InfoPanel{
		title: title,
		width: width,
	}
}

// AddItem adds an information item to the panel
func (p *InfoPanel) AddItem(label, value, icon string) {
	p.content = append(p.content, InfoItem{
		Label: label,
		Value: value,
		Icon:  icon,
	})
}

// Render renders the info panel
func (p *InfoPanel) Render() string {
	if len(p.content) == 0 {
		return ""
	}

	// Half the terminal width, clamped to [40, 80]
	panelWidth := p.width / 2
	if panelWidth < 40 {
		panelWidth = 40
	}
	if panelWidth > 80 {
		panelWidth = 80
	}

	panelStyle := lipgloss.NewStyle().
		Border(lipgloss.ThickBorder()).
		BorderForeground(styles.FocusBorder).
		Padding(1, 2).
		Width(panelWidth)

	titleStyle := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Underline(true)
	labelStyle := lipgloss.NewStyle().
		Foreground(styles.Secondary).
		Bold(true)

	var content strings.Builder
	content.WriteString(titleStyle.Render(p.title))
	content.WriteString("\n\n")

	for i, item := range p.content {
		if item.Icon != "" {
			content.WriteString(item.Icon + " ")
		}
		content.WriteString(labelStyle.Render(item.Label) + ": ")
		content.WriteString(item.Value)
		if i < len(p.content)-1 {
			content.WriteString("\n")
		}
	}

	content.WriteString("\n\n")
	content.WriteString(styles.HelpStyle.Render("Press 'i' or 'esc' to close"))

	return panelStyle.Render(content.String())
}

func formatTime(rec *scanner.FileRecord, created bool) string {
	t := rec.ModTime
	if created {
		t = rec.CreatedTime
	}
	if t.IsZero() {
		return "unknown"
	}
	return t.Format("2006-01-02 15:04:05")
}

// FileInfoPanel describes one group member
func FileInfoPanel(rec *scanner.FileRecord, width int) *InfoPanel {
	panel := NewInfoPanel("File Information", width)

	displayPath := rec.Path
	if len(displayPath) > 60 {
		displayPath = displayPath[:30] + "..." + displayPath[len(displayPath)-27:]
	}

	status := "marked for removal"
	if rec.Kept {
		status = "kept"
	}

	panel.AddItem("Path", displayPath, "📁")
	panel.AddItem("Size", utils.FormatBytes(rec.Size), "💾")
	panel.AddItem("Modified", formatTime(rec, false), "🕒")
	panel.AddItem("Created", formatTime(rec, true), "🕒")
	if hash := rec.ContentHash; hash != "" {
		if len(hash) > 16 {
			hash = hash[:16] + "…"
		}
		panel.AddItem("SHA-256", hash, "🔑")
	}
	panel.AddItem("Status", status, "📄")

	return panel
}
