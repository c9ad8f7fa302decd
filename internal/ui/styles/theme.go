package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme colors
var (
	Primary     = lipgloss.Color("#7C3AED")
	Secondary   = lipgloss.Color("#A78BFA")
	Success     = lipgloss.Color("#10B981")
	Warning     = lipgloss.Color("#F59E0B")
	Danger      = lipgloss.Color("#EF4444")
	Info        = lipgloss.Color("#3B82F6")
	Muted       = lipgloss.Color("#6B7280")
	Text        = lipgloss.Color("#F3F4F6")
	TextDim     = lipgloss.Color("#9CA3AF")
	Border      = lipgloss.Color("#4B5563")
	FocusBorder = lipgloss.Color("#8B5CF6")
	BgDark      = lipgloss.Color("#1F2937")
)

// Common styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			MarginBottom(1)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	KeptStyle = lipgloss.NewStyle().
			Foreground(Success)

	RemoveStyle = lipgloss.NewStyle().
			Foreground(Danger)

	FilePathStyle = lipgloss.NewStyle().
			Foreground(Info)

	FileSizeStyle = lipgloss.NewStyle().
			Foreground(Warning)

	GroupStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Italic(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Danger).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(TextDim).
			Italic(true)

	HighlightStyle = lipgloss.NewStyle().
			Foreground(Text).
			Background(Primary).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(TextDim)

	BoldStyle = lipgloss.NewStyle().
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(Info).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)
)

// KeptMark marks the member of a group that stays on disk
func KeptMark() string {
	return KeptStyle.Render("● keep  ")
}

// RemoveMark marks a member that will be moved to the trash
func RemoveMark() string {
	return RemoveStyle.Render("○ remove")
}
