package models

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/dupsweep/internal/cleaner"
	"github.com/fenilsonani/dupsweep/internal/progress"
	"github.com/fenilsonani/dupsweep/internal/scanner"
	"github.com/fenilsonani/dupsweep/internal/session"
	"github.com/fenilsonani/dupsweep/internal/ui/styles"
)

// ViewState represents the current view in the app
type ViewState int

const (
	ViewScanning ViewState = iota
	ViewReview
	ViewConfirmation
	ViewRemoving
	ViewSummary
	ViewHelp
)

// Options describes the scan the app runs and what happens around removal
type Options struct {
	Scan            scanner.Config
	Similar         bool
	Threshold       float64
	BackupDir       string
	PreferredFolder string

	// OnRemoval is called after every completed removal batch
	OnRemoval func(*cleaner.RemovalResult)
	// OnUndo is called after every undo
	OnUndo func(*cleaner.UndoResult)
}

// AppModel is the root model for the interactive TUI
type AppModel struct {
	// Current state
	state         ViewState
	previousState ViewState // For back navigation

	orch    *session.Orchestrator
	opts    Options
	updates <-chan interface{}

	// View models
	scanView     *ScanViewModel
	reviewView   *ReviewViewModel
	confirmView  *ConfirmViewModel
	removingView *RemovingViewModel
	summaryView  *SummaryViewModel

	// UI state
	width  int
	height int
	err    error
}

// NewAppModel creates a new app model. It subscribes to the orchestrator's
// progress; call Close once the program has exited.
func NewAppModel(orch *session.Orchestrator, opts Options) *AppModel {
	return &AppModel{
		state:   ViewScanning,
		orch:    orch,
		opts:    opts,
		updates: orch.Subscribe(),
	}
}

// Close releases the progress subscription
func (m *AppModel) Close() {
	m.orch.Unsubscribe(m.updates)
}

// Init initializes the model
func (m *AppModel) Init() tea.Cmd {
	// Start scanning immediately
	m.scanView = NewScanViewModel(m.orch, m.opts, m.width)
	return tea.Batch(m.scanView.Init(), listen(m.updates))
}

// Update handles messages
func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == ViewHelp {
			// Any key closes help
			m.state = m.previousState
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c":
			m.orch.Cancel()
			return m, tea.Quit
		case "q":
			// Removal runs to completion so the undo log stays consistent
			if m.state != ViewRemoving {
				m.orch.Cancel()
				return m, tea.Quit
			}
		case "?":
			if m.state != ViewRemoving {
				m.previousState = m.state
				m.state = ViewHelp
				return m, nil
			}
		case "esc":
			if m.state == ViewConfirmation {
				return m, m.backToReview("")
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case progressUpdateMsg:
		// Keep listening; forward the typed update to the active view
		return m.delegate(msg.typed(), listen(m.updates))

	case progressClosedMsg:
		return m, nil

	case ScanCompleteMsg:
		switch msg.State.Phase {
		case progress.PhaseDone:
			m.reviewView = NewReviewViewModel(m.orch, m.opts.PreferredFolder, m.width, m.height)
			m.state = ViewReview
		case progress.PhaseErrored:
			m.err = errors.New(msg.State.Message)
		default:
			return m, tea.Quit
		}
		return m, nil

	case FilesSelectedMsg:
		m.confirmView = NewConfirmViewModel(msg.Files, m.opts.Similar, m.opts.BackupDir, m.width, m.height)
		m.state = ViewConfirmation
		return m, nil

	case ConfirmedMsg:
		total := 0
		if m.confirmView != nil {
			total = len(m.confirmView.files)
		}
		m.removingView = NewRemovingViewModel(total, m.width)
		m.state = ViewRemoving
		return m, tea.Batch(m.removingView.Init(), m.removeMarked())

	case ReviewSelectionMsg:
		return m, m.backToReview("")

	case RemovalCompleteMsg:
		if msg.Err != nil {
			return m, m.backToReview(styles.ErrorStyle.Render("Removal failed: " + msg.Err.Error()))
		}
		if m.opts.OnRemoval != nil {
			m.opts.OnRemoval(msg.Result)
		}
		m.summaryView = NewSummaryViewModel(msg.Result)
		m.state = ViewSummary
		return m, nil

	case UndoRequestedMsg:
		return m, m.undo()

	case UndoCompleteMsg:
		if msg.Err != nil {
			return m, m.backToReview(styles.ErrorStyle.Render("Undo failed: " + msg.Err.Error()))
		}
		if m.opts.OnUndo != nil {
			m.opts.OnUndo(msg.Result)
		}
		notice := fmt.Sprintf("Restored %d files", len(msg.Result.Restored))
		if len(msg.Result.Missing) > 0 {
			notice += fmt.Sprintf(", %d no longer in the trash", len(msg.Result.Missing))
		}
		if len(msg.Result.Errors) > 0 {
			notice += fmt.Sprintf(", %d failed", len(msg.Result.Errors))
		}
		if m.state == ViewSummary {
			m.summaryView.SetUndo(msg.Result)
			return m, nil
		}
		return m, m.backToReview(styles.SuccessStyle.Render(notice))
	}

	return m.delegate(msg, nil)
}

func (m *AppModel) backToReview(notice string) tea.Cmd {
	if m.reviewView == nil {
		return nil
	}
	m.reviewView.Refresh()
	m.reviewView.SetNotice(notice)
	m.state = ViewReview
	return nil
}

func (m *AppModel) removeMarked() tea.Cmd {
	backupDir := m.opts.BackupDir
	return func() tea.Msg {
		result, err := m.orch.RemoveMarked(backupDir)
		return RemovalCompleteMsg{Result: result, Err: err}
	}
}

func (m *AppModel) undo() tea.Cmd {
	return func() tea.Msg {
		result, err := m.orch.UndoLastRemoval()
		return UndoCompleteMsg{Result: result, Err: err}
	}
}

// delegate forwards msg to the current view, batching extra with its command
func (m *AppModel) delegate(msg tea.Msg, extra tea.Cmd) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.state {
	case ViewScanning:
		if m.scanView != nil {
			m.scanView, cmd = m.scanView.Update(msg)
		}
	case ViewReview:
		if m.reviewView != nil {
			m.reviewView, cmd = m.reviewView.Update(msg)
		}
	case ViewConfirmation:
		if m.confirmView != nil {
			m.confirmView, cmd = m.confirmView.Update(msg)
		}
	case ViewRemoving:
		if m.removingView != nil {
			m.removingView, cmd = m.removingView.Update(msg)
		}
	case ViewSummary:
		if m.summaryView != nil {
			m.summaryView, cmd = m.summaryView.Update(msg)
		}
	}

	return m, tea.Batch(cmd, extra)
}

// View renders the current view
func (m *AppModel) View() string {
	if m.err != nil {
		return styles.ErrorStyle.Render(m.err.Error()) + "\n\nPress q to quit."
	}

	switch m.state {
	case ViewScanning:
		if m.scanView != nil {
			return m.scanView.View()
		}
	case ViewReview:
		if m.reviewView != nil {
			return m.reviewView.View()
		}
	case ViewConfirmation:
		if m.confirmView != nil {
			return m.confirmView.View()
		}
	case ViewRemoving:
		if m.removingView != nil {
			return m.removingView.View()
		}
	case ViewSummary:
		if m.summaryView != nil {
			return m.summaryView.View()
		}
	case ViewHelp:
		return m.renderHelp()
	}

	return "Loading..."
}

// renderHelp renders the help view for the view it was opened from
func (m *AppModel) renderHelp() string {
	var b strings.Builder

	var viewName, helpContent string
	switch m.previousState {
	case ViewScanning:
		viewName = "Scan"
		helpContent = helpScan
	case ViewReview:
		viewName = "Review"
		helpContent = helpReview
	case ViewConfirmation:
		viewName = "Confirmation"
		helpContent = helpConfirm
	case ViewSummary:
		viewName = "Summary"
		helpContent = helpSummary
	}

	b.WriteString(styles.TitleStyle.Render(fmt.Sprintf("Help - %s", viewName)))
	b.WriteString("\n\n")
	b.WriteString(helpContent)
	b.WriteString("\n\n")
	b.WriteString(styles.HelpStyle.Render("Press any key to close"))

	return b.String()
}

const helpScan = `Looking for duplicate files in the selected folders.

Actions:
  ctrl+c  - Cancel scan and exit
  q       - Cancel scan and exit

Results open for review when the scan completes.`

const helpReview = `Choose which file of each group to keep. Every other
member is marked for removal.

Navigation               Keep strategy
  ↑/k     Move up          n    Newest
  ↓/j     Move down        o    Oldest
  ctrl+f  Page down        s    Shortest path
  ctrl+b  Page up          p    Preferred folder

Actions
  space   Keep the file under the cursor
  i       File details
  d       Move marked files to the trash
  u       Undo the last removal
  q       Quit`

const helpConfirm = `Review the removal before it happens.

Navigation:
  ←/→/h/l - Switch between buttons

Actions:
  enter   - Choose the highlighted button
  y       - Yes, move to trash
  n/esc   - Back to review

Files go to the trash and can be restored with undo.`

const helpSummary = `The removal batch is complete.

Actions:
  enter   - Back to the remaining groups
  u       - Undo this removal
  q       - Exit`

// Custom messages

// ScanCompleteMsg carries the session state once a scan stops
type ScanCompleteMsg struct {
	State session.State
}

// ScanProgressMsg carries a scan progress update
type ScanProgressMsg struct {
	Progress *progress.ScanProgress
}

// RemovalProgressMsg carries a removal progress update
type RemovalProgressMsg struct {
	Progress *progress.RemovalProgress
}

type FilesSelectedMsg struct {
	Files []*scanner.FileRecord
}

type ConfirmedMsg struct{}

type ReviewSelectionMsg struct{}

type RemovalCompleteMsg struct {
	Result *cleaner.RemovalResult
	Err    error
}

type UndoRequestedMsg struct{}

type UndoCompleteMsg struct {
	Result *cleaner.UndoResult
	Err    error
}

type progressUpdateMsg struct {
	update interface{}
}

type progressClosedMsg struct{}

func (p progressUpdateMsg) typed() tea.Msg {
	switch u := p.update.(type) {
	case *progress.ScanProgress:
		return ScanProgressMsg{Progress: u}
	case *progress.RemovalProgress:
		return RemovalProgressMsg{Progress: u}
	}
	return nil
}

// listen waits for the next progress update
func listen(ch <-chan interface{}) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-ch
		if !ok {
			return progressClosedMsg{}
		}
		return progressUpdateMsg{update: update}
	}
}
