package models

import (
	"fmt"
	"strings"
	"time"

	progressbar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/dupsweep/internal/progress"
	"github.com/fenilsonani/dupsweep/internal/session"
	"github.com/fenilsonani/dupsweep/internal/ui/styles"
	uiutils "github.com/fenilsonani/dupsweep/internal/ui/utils"
)

// ScanViewModel handles the scanning progress view
type ScanViewModel struct {
	orch      *session.Orchestrator
	opts      Options
	spinner   spinner.Model
	bar       progressbar.Model
	startTime time.Time
	status    progress.ScanProgress
}

// NewScanViewModel creates a new scan view model
func NewScanViewModel(orch *session.Orchestrator, opts Options, width int) *ScanViewModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SelectedStyle

	bar := progressbar.New(progressbar.WithDefaultGradient())
	bar.Width = barWidth(width)

	return &ScanViewModel{
		orch:      orch,
		opts:      opts,
		spinner:   s,
		bar:       bar,
		startTime: time.Now(),
		status:    progress.ScanProgress{Phase: progress.PhaseEnumerating, Message: session.MsgEnumerating},
	}
}

func barWidth(termWidth int) int {
	if termWidth <= 0 {
		return 40
	}
	w := termWidth - 10
	if w > 80 {
		w = 80
	}
	if w < 20 {
		w = 20
	}
	return w
}

// Init initializes the scan view
func (m *ScanViewModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.performScan,
	)
}

// Update handles messages
func (m *ScanViewModel) Update(msg tea.Msg) (*ScanViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.bar.Width = barWidth(msg.Width)

	case ScanProgressMsg:
		if msg.Progress != nil {
			m.status = *msg.Progress
		}
	}

	return m, nil
}

// View renders the scan view
func (m *ScanViewModel) View() string {
	var b strings.Builder

	title := "🔍 Scanning for Duplicates"
	if m.opts.Similar {
		title = "🔍 Scanning for Similar Images"
	}
	b.WriteString(styles.TitleStyle.Render(title))
	b.WriteString("\n\n")

	for _, root := range m.opts.Scan.Roots {
		b.WriteString(styles.DimStyle.Render("  "))
		b.WriteString(styles.FilePathStyle.Render(uiutils.TruncatePath(root, 70)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(m.status.Message)
	b.WriteString(" ")
	b.WriteString(styles.DimStyle.Render(fmt.Sprintf("(%s)", time.Since(m.startTime).Round(time.Second))))
	b.WriteString("\n\n")

	b.WriteString(m.bar.ViewAs(m.status.Fraction))
	b.WriteString("\n\n")

	b.WriteString(styles.BoldStyle.Render(fmt.Sprintf("Files found: %d", m.status.FilesFound)))
	b.WriteString("\n\n")
	b.WriteString(styles.HelpStyle.Render("Press ctrl+c or q to cancel"))

	return b.String()
}

// performScan starts the scan and blocks until it stops
func (m *ScanViewModel) performScan() tea.Msg {
	if m.opts.Similar {
		m.orch.StartSimilarityScan(m.opts.Scan, m.opts.Threshold)
	} else {
		m.orch.StartScan(m.opts.Scan)
	}
	m.orch.Wait()
	return ScanCompleteMsg{State: m.orch.Snapshot()}
}
