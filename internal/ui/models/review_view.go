package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/dupsweep/internal/scanner"
	"github.com/fenilsonani/dupsweep/internal/selection"
	"github.com/fenilsonani/dupsweep/internal/session"
	"github.com/fenilsonani/dupsweep/internal/ui/components"
	"github.com/fenilsonani/dupsweep/internal/ui/styles"
	uiutils "github.com/fenilsonani/dupsweep/internal/ui/utils"
	"github.com/fenilsonani/dupsweep/pkg/utils"
)

// reviewRow is one line of the group list: a group header when file < 0
type reviewRow struct {
	group int
	file  int
}

// ReviewViewModel lists the duplicate groups and lets the user pick the
// member to keep in each
type ReviewViewModel struct {
	orch            *session.Orchestrator
	state           session.State
	rows            []reviewRow
	cursor          int // index into rows; always a file row
	offset          int
	pageSize        int
	preferredFolder string
	showInfo        bool
	notice          string
	statusBar       *components.StatusBar
	width           int
	height          int
}

// NewReviewViewModel creates a review view over the orchestrator's groups
func NewReviewViewModel(orch *session.Orchestrator, preferredFolder string, width, height int) *ReviewViewModel {
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	m := &ReviewViewModel{
		orch:            orch,
		preferredFolder: preferredFolder,
		pageSize:        uiutils.CalculatePageSize(height),
		statusBar:       components.NewStatusBar(),
		width:           width,
		height:          height,
	}
	m.statusBar.SetView("Review")
	m.statusBar.SetShortcuts(
		components.Shortcut{Key: "space", Desc: "keep"},
		components.Shortcut{Key: "n/o/s/p", Desc: "strategy"},
		components.Shortcut{Key: "d", Desc: "remove"},
		components.Shortcut{Key: "u", Desc: "undo"},
		components.Shortcut{Key: "?", Desc: "help"},
	)
	m.Refresh()
	return m
}

// Refresh reloads the groups from the orchestrator
func (m *ReviewViewModel) Refresh() {
	m.state = m.orch.Snapshot()

	m.rows = m.rows[:0]
	for gi, g := range m.state.Groups {
		m.rows = append(m.rows, reviewRow{group: gi, file: -1})
		for fi := range g.Files {
			m.rows = append(m.rows, reviewRow{group: gi, file: fi})
		}
	}

	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if len(m.rows) > 0 && m.rows[m.cursor].file < 0 {
		m.moveCursor(1)
	}
	m.scrollToCursor()

	var marked int
	var size int64
	for _, f := range selection.FilesToRemove(m.state.Groups) {
		marked++
		size += f.Size
	}
	m.statusBar.SetSelection(marked, m.state.DuplicateFiles, size)
}

// SetNotice shows a one-line message above the list until the next key
func (m *ReviewViewModel) SetNotice(notice string) {
	m.notice = notice
}

func (m *ReviewViewModel) current() (*scanner.DuplicateGroup, *scanner.FileRecord) {
	if m.cursor >= len(m.rows) {
		return nil, nil
	}
	r := m.rows[m.cursor]
	if r.file < 0 {
		return nil, nil
	}
	g := m.state.Groups[r.group]
	return g, g.Files[r.file]
}

// moveCursor moves by delta file rows, skipping group headers
func (m *ReviewViewModel) moveCursor(delta int) {
	step := 1
	if delta < 0 {
		step, delta = -1, -delta
	}
	for ; delta > 0; delta-- {
		next := m.cursor + step
		for next >= 0 && next < len(m.rows) && m.rows[next].file < 0 {
			next += step
		}
		if next < 0 || next >= len(m.rows) {
			break
		}
		m.cursor = next
	}
}

func (m *ReviewViewModel) scrollToCursor() {
	top := m.cursor
	// Keep the group header visible above its first file
	if top > 0 && m.rows[top-1].file < 0 {
		top--
	}
	if top < m.offset {
		m.offset = top
	}
	if m.cursor >= m.offset+m.pageSize {
		m.offset = m.cursor - m.pageSize + 1
	}
}

// Init initializes the review view
func (m *ReviewViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *ReviewViewModel) Update(msg tea.Msg) (*ReviewViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.pageSize = uiutils.CalculatePageSize(msg.Height)
		m.scrollToCursor()

	case tea.KeyMsg:
		m.notice = ""
		if len(m.rows) == 0 {
			if msg.String() == "u" {
				return m, m.requestUndo()
			}
			return m, nil
		}

		switch msg.String() {
		case "up", "k":
			m.moveCursor(-1)
		case "down", "j":
			m.moveCursor(1)
		case "ctrl+b", "pgup":
			m.moveCursor(-m.pageSize)
		case "ctrl+f", "pgdown":
			m.moveCursor(m.pageSize)
		case " ", "space":
			if g, f := m.current(); f != nil {
				m.orch.SetKept(g.ID, f.ID)
				m.Refresh()
			}
		case "n":
			m.applyStrategy(selection.Newest)
		case "o":
			m.applyStrategy(selection.Oldest)
		case "s":
			m.applyStrategy(selection.ShortestPath)
		case "p":
			if m.preferredFolder == "" {
				m.notice = styles.WarningStyle.Render("No preferred folder set (use --prefer)")
				break
			}
			m.applyStrategy(selection.PreferredFolder)
		case "i":
			m.showInfo = !m.showInfo
		case "esc":
			m.showInfo = false
		case "d", "enter":
			files := m.orch.FilesToRemove()
			if len(files) == 0 {
				m.notice = styles.WarningStyle.Render("Nothing is marked for removal")
				break
			}
			return m, func() tea.Msg { return FilesSelectedMsg{Files: files} }
		case "u":
			return m, m.requestUndo()
		}
		m.scrollToCursor()
	}

	return m, nil
}

func (m *ReviewViewModel) applyStrategy(s selection.Strategy) {
	m.orch.ApplyStrategy(s, m.preferredFolder)
	m.Refresh()
	m.notice = styles.InfoStyle.Render(fmt.Sprintf("Applied %s", s))
}

func (m *ReviewViewModel) requestUndo() tea.Cmd {
	if len(m.state.UndoEntries) == 0 {
		m.notice = styles.WarningStyle.Render("Nothing to undo")
		return nil
	}
	return func() tea.Msg { return UndoRequestedMsg{} }
}

// View renders the review view
func (m *ReviewViewModel) View() string {
	var b strings.Builder

	if warning := uiutils.GetSizeWarningBanner(m.width, m.height); warning != "" {
		b.WriteString(warning)
	}

	title := "📁 Duplicate Groups"
	if m.state.SimilarResults {
		title = "📁 Similar Image Groups"
	}
	b.WriteString(styles.TitleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(styles.SubtitleStyle.Render(fmt.Sprintf("%d groups, %d files, %s reclaimable",
		len(m.state.Groups), m.state.DuplicateFiles, utils.FormatBytes(m.state.ReclaimableBytes))))
	b.WriteString("\n")

	if m.notice != "" {
		b.WriteString(m.notice)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(m.rows) == 0 {
		b.WriteString(styles.SuccessStyle.Render("✓ No duplicates left"))
		b.WriteString("\n\n")
		b.WriteString(styles.HelpStyle.Render("u undo | q quit"))
		return b.String()
	}

	if m.showInfo {
		if _, f := m.current(); f != nil {
			b.WriteString(components.FileInfoPanel(f, m.width).Render())
			b.WriteString("\n")
			return b.String()
		}
	}

	end := m.offset + m.pageSize
	if end > len(m.rows) {
		end = len(m.rows)
	}
	pathWidth := m.width - 30
	if pathWidth < 20 {
		pathWidth = 20
	}

	for i := m.offset; i < end; i++ {
		r := m.rows[i]
		g := m.state.Groups[r.group]
		if r.file < 0 {
			b.WriteString(styles.GroupStyle.Render(fmt.Sprintf("Group %d: %d files × %s, %s reclaimable",
				r.group+1, len(g.Files), utils.FormatBytes(g.SizePerFile), utils.FormatBytes(g.ReclaimableBytes()))))
			b.WriteString("\n")
			continue
		}

		f := g.Files[r.file]
		cursor := "  "
		if i == m.cursor {
			cursor = styles.SelectedStyle.Render("→ ")
		}
		mark := styles.RemoveMark()
		if f.Kept {
			mark = styles.KeptMark()
		}
		b.WriteString(fmt.Sprintf("%s%s %s %s\n",
			cursor,
			mark,
			styles.FilePathStyle.Render(uiutils.TruncatePath(f.Path, pathWidth)),
			styles.FileSizeStyle.Render(utils.FormatBytes(f.Size)),
		))
	}

	b.WriteString("\n")
	b.WriteString(m.statusBar.Render(m.width))

	return b.String()
}
