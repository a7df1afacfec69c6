package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Option represents a selectable option in the selector.
type Option struct {
	Label       string
	Description string
	Value       string
}

// Selector picks one of a list of options. It never quits the program;
// callers check Submitted and Cancelled after each update.
type Selector struct {
	title     string
	options   []Option
	cursor    int
	selected  int
	submitted bool
	cancelled bool
	keyMap    selectorKeyMap
	styles    selectorStyles
}

type selectorKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Cancel key.Binding
}

type selectorStyles struct {
	Title       lipgloss.Style
	Selected    lipgloss.Style
	Unselected  lipgloss.Style
	Description lipgloss.Style
	Help        lipgloss.Style
}

func defaultSelectorStyles() selectorStyles {
	return selectorStyles{
		Title:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).MarginBottom(1),
		Selected:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		Unselected:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Description: lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginLeft(4),
		Help:        lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1),
	}
}

func defaultSelectorKeyMap() selectorKeyMap {
	return selectorKeyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k")),
		Down:   key.NewBinding(key.WithKeys("down", "j")),
		Select: key.NewBinding(key.WithKeys("enter")),
		Cancel: key.NewBinding(key.WithKeys("q", "ctrl+c", "esc")),
	}
}

// NewSelector creates a new selector component.
func NewSelector(title string, options []Option) Selector {
	return Selector{
		title:    title,
		options:  options,
		selected: -1,
		keyMap:   defaultSelectorKeyMap(),
		styles:   defaultSelectorStyles(),
	}
}

// WithCursor moves the cursor to the option with value v, if present.
func (s Selector) WithCursor(v string) Selector {
	for i, opt := range s.options {
		if opt.Value == v {
			s.cursor = i
		}
	}
	return s
}

// Update handles a key press.
func (s Selector) Update(msg tea.Msg) (Selector, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || s.submitted || s.cancelled {
		return s, nil
	}
	switch {
	case key.Matches(keyMsg, s.keyMap.Up):
		if s.cursor > 0 {
			s.cursor--
		}
	case key.Matches(keyMsg, s.keyMap.Down):
		if s.cursor < len(s.options)-1 {
			s.cursor++
		}
	case key.Matches(keyMsg, s.keyMap.Select):
		if len(s.options) > 0 {
			s.selected = s.cursor
			s.submitted = true
		}
	case key.Matches(keyMsg, s.keyMap.Cancel):
		s.cancelled = true
	}
	return s, nil
}

// View renders the options.
func (s Selector) View() string {
	var b strings.Builder

	b.WriteString(s.styles.Title.Render(s.title))
	b.WriteString("\n\n")

	for i, opt := range s.options {
		style, symbol := s.styles.Unselected, "○"
		if i == s.cursor {
			style, symbol = s.styles.Selected, "●"
		}
		b.WriteString("  ")
		b.WriteString(style.Render(symbol + " " + opt.Label))
		b.WriteString("\n")
		if opt.Description != "" {
			b.WriteString(s.styles.Description.Render(opt.Description))
			b.WriteString("\n")
		}
	}

	b.WriteString(s.styles.Help.Render("↑/↓ navigate • enter select • q quit"))
	return b.String()
}

// Cursor returns the index under the cursor.
func (s Selector) Cursor() int {
	return s.cursor
}

// Cancelled returns true if the user cancelled the selection.
func (s Selector) Cancelled() bool {
	return s.cancelled
}

// Submitted returns true if the user made a selection.
func (s Selector) Submitted() bool {
	return s.submitted
}

// Value returns the value of the selected option, or "" if none was selected.
func (s Selector) Value() string {
	if s.selected >= 0 && s.selected < len(s.options) {
		return s.options[s.selected].Value
	}
	return ""
}
