package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/dupsweep/internal/scanner"
	"github.com/fenilsonani/dupsweep/internal/ui/styles"
	uiutils "github.com/fenilsonani/dupsweep/internal/ui/utils"
	"github.com/fenilsonani/dupsweep/pkg/utils"
)

// RiskLevel represents the risk level of a removal batch
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

// ConfirmViewModel handles the confirmation screen
type ConfirmViewModel struct {
	files     []*scanner.FileRecord
	similar   bool
	backupDir string
	cursor    int // 0 = Yes, 1 = Review, 2 = Cancel
	riskLevel RiskLevel
	width     int
	height    int
}

// NewConfirmViewModel creates a new confirm view model
func NewConfirmViewModel(files []*scanner.FileRecord, similar bool, backupDir string, width, height int) *ConfirmViewModel {
	risk := calculateRiskLevel(files, similar, backupDir)
	defaultCursor := 0
	if risk == RiskHigh {
		defaultCursor = 2 // Default to "Cancel" for high risk
	}

	// Use default dimensions if not provided
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	return &ConfirmViewModel{
		files:     files,
		similar:   similar,
		backupDir: backupDir,
		cursor:    defaultCursor,
		riskLevel: risk,
		width:     width,
		height:    height,
	}
}

// calculateRiskLevel rates a batch. Similar images are not byte-identical,
// so removing them without a backup loses data the kept file does not hold.
func calculateRiskLevel(files []*scanner.FileRecord, similar bool, backupDir string) RiskLevel {
	if len(files) > 500 || (similar && backupDir == "") {
		return RiskHigh
	}
	if len(files) >= 50 || similar || backupDir == "" {
		return RiskMedium
	}
	return RiskLow
}

// Init initializes the confirm view
func (m *ConfirmViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *ConfirmViewModel) Update(msg tea.Msg) (*ConfirmViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "left", "h":
			if m.cursor > 0 {
				m.cursor--
			}
		case "right", "l":
			if m.cursor < 2 {
				m.cursor++
			}
		case "tab":
			m.cursor = (m.cursor + 1) % 3
		case "enter":
			if m.cursor == 0 {
				return m, func() tea.Msg { return ConfirmedMsg{} }
			}
			return m, func() tea.Msg { return ReviewSelectionMsg{} }
		case "y":
			return m, func() tea.Msg { return ConfirmedMsg{} }
		case "n", "e":
			return m, func() tea.Msg { return ReviewSelectionMsg{} }
		}
	}

	return m, nil
}

// View renders the confirmation view
func (m *ConfirmViewModel) View() string {
	var b strings.Builder

	if warning := uiutils.GetSizeWarningBanner(m.width, m.height); warning != "" {
		b.WriteString(warning)
	}

	b.WriteString(styles.TitleStyle.Render("⚠️  Confirm Removal"))
	b.WriteString("\n\n")

	var totalSize int64
	for _, f := range m.files {
		totalSize += f.Size
	}
	b.WriteString(styles.BoldStyle.Render(fmt.Sprintf("You are about to move %d files (%s) to the trash",
		len(m.files), utils.FormatBytes(totalSize))))
	b.WriteString("\n\n")

	// First few files
	const preview = 8
	for i, f := range m.files {
		if i == preview {
			b.WriteString(styles.DimStyle.Render(fmt.Sprintf("  ... and %d more\n", len(m.files)-preview)))
			break
		}
		b.WriteString("  ")
		b.WriteString(styles.FilePathStyle.Render(uiutils.TruncatePath(f.Path, m.width-6)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.backupDir != "" {
		b.WriteString(styles.InfoStyle.Render("Backup copies go to " + m.backupDir))
	} else {
		b.WriteString(styles.DimStyle.Render("No backup directory set"))
	}
	b.WriteString("\n")

	riskText, riskStyle, riskIcon := m.getRiskDisplay()
	b.WriteString(fmt.Sprintf("Risk Level: %s %s\n", riskIcon, riskStyle(riskText)))

	if m.riskLevel == RiskHigh {
		b.WriteString("\n")
		b.WriteString(styles.ErrorStyle.Render("⚠️  HIGH RISK OPERATION ⚠️"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.DimStyle.Render("Files can be restored with undo (u) until the next removal or scan."))
	b.WriteString("\n\n")

	yesBtn := "[ Yes, move to trash ]"
	reviewBtn := "[ Review ]"
	cancelBtn := "[ Cancel ]"

	switch m.cursor {
	case 0:
		yesBtn = styles.HighlightStyle.Render(yesBtn)
	case 1:
		reviewBtn = styles.HighlightStyle.Render(reviewBtn)
	case 2:
		cancelBtn = styles.HighlightStyle.Render(cancelBtn)
	}

	b.WriteString(fmt.Sprintf("%s  %s  %s", yesBtn, reviewBtn, cancelBtn))
	b.WriteString("\n\n")

	helpText := "y:confirm  n:back  ←/→:navigate"
	if m.width < 60 {
		helpText = "y:yes  n:no  ←/→"
	}
	b.WriteString(styles.HelpStyle.Render(helpText))

	return b.String()
}

// getRiskDisplay returns the display text, style render function, and icon for the current risk level
func (m *ConfirmViewModel) getRiskDisplay() (string, func(string) string, string) {
	switch m.riskLevel {
	case RiskHigh:
		if m.similar && m.backupDir == "" {
			return "HIGH (similar images are not identical, and there is no backup)", func(s string) string { return styles.ErrorStyle.Render(s) }, "🔴"
		}
		return "HIGH (many files)", func(s string) string { return styles.ErrorStyle.Render(s) }, "🔴"
	case RiskMedium:
		return "MEDIUM", func(s string) string { return styles.WarningStyle.Render(s) }, "⚠️"
	default:
		return "LOW (identical copies, backed up)", func(s string) string { return styles.SuccessStyle.Render(s) }, "✓"
	}
}
