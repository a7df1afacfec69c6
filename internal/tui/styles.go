package tui

import "github.com/charmbracelet/lipgloss"

// Color palette - keeping it minimal and accessible.
var (
	ColorPrimary   = lipgloss.Color("39")  // Blue
	ColorSecondary = lipgloss.Color("245") // Gray
	ColorSuccess   = lipgloss.Color("34")  // Green
	ColorWarning   = lipgloss.Color("214") // Orange
	ColorError     = lipgloss.Color("196") // Red
	ColorMuted     = lipgloss.Color("240") // Dark gray
)

// Styles for the browser panes.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary)

	// Pane borders, the focused pane is highlighted
	PaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1)

	FocusedPaneStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorPrimary).
				Padding(0, 1)

	// Tree rows
	CursorStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	DirectoryStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary)

	FileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	UnsupportedStyle = lipgloss.NewStyle().
				Foreground(ColorMuted)

	OpenFileStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	// Status line
	StatusStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary)

	DirtyStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary)
)

// Symbols for visual feedback.
const (
	SymbolCursor    = "›"
	SymbolExpanded  = "▾"
	SymbolCollapsed = "▸"
	SymbolDirty     = "●"
	SymbolCheck     = "✓"
	SymbolCross     = "✗"
	SymbolBullet    = "•"
)
