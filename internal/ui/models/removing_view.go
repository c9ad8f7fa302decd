package models

import (
	"fmt"
	"strings"
	"time"

	progressbar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/dupsweep/internal/ui/styles"
	uiutils "github.com/fenilsonani/dupsweep/internal/ui/utils"
	"github.com/fenilsonani/dupsweep/pkg/utils"
)

// RemovingViewModel shows progress while files move to the trash
type RemovingViewModel struct {
	spinner     spinner.Model
	bar         progressbar.Model
	total       int
	done        int
	currentFile string
	freed       int64
	startTime   time.Time
}

// NewRemovingViewModel creates a removal progress view for total files
func NewRemovingViewModel(total, width int) *RemovingViewModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SelectedStyle

	bar := progressbar.New(progressbar.WithDefaultGradient())
	bar.Width = barWidth(width)

	return &RemovingViewModel{
		spinner:   s,
		bar:       bar,
		total:     total,
		startTime: time.Now(),
	}
}

// Init initializes the removal view
func (m *RemovingViewModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages
func (m *RemovingViewModel) Update(msg tea.Msg) (*RemovingViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case RemovalProgressMsg:
		if p := msg.Progress; p != nil {
			m.done = p.Done
			m.total = p.Total
			m.currentFile = p.CurrentFile
			m.freed = p.FreedBytes
		}
	}

	return m, nil
}

// View renders the removal view
func (m *RemovingViewModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("🗑️  Moving to Trash"))
	b.WriteString("\n\n")

	b.WriteString(m.spinner.View())
	b.WriteString(" Removing files... ")
	b.WriteString(styles.DimStyle.Render(fmt.Sprintf("(%s)", time.Since(m.startTime).Round(time.Second))))
	b.WriteString("\n\n")

	percent := 0.0
	if m.total > 0 {
		percent = float64(m.done) / float64(m.total)
	}
	b.WriteString(m.bar.ViewAs(percent))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("Progress: %d/%d files, %s freed\n", m.done, m.total, utils.FormatBytes(m.freed)))
	if m.currentFile != "" {
		b.WriteString(styles.DimStyle.Render("Current: "))
		b.WriteString(styles.FilePathStyle.Render(uiutils.TruncatePath(m.currentFile, 60)))
	}

	return b.String()
}
