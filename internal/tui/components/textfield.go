package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TextField is a labeled single-line input. With a completer attached, tab
// completes the value as a filesystem path.
type TextField struct {
	label     string
	input     textinput.Model
	focused   bool
	validator func(string) error
	completer *PathCompleter
	err       error
	styles    textFieldStyles
}

type textFieldStyles struct {
	Label        lipgloss.Style
	Input        lipgloss.Style
	FocusedInput lipgloss.Style
	Error        lipgloss.Style
	Hint         lipgloss.Style
}

func defaultTextFieldStyles() textFieldStyles {
	return textFieldStyles{
		Label:        lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Input:        lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		FocusedInput: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		Error:        lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Hint:         lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// NewTextField creates a new text field.
func NewTextField(label, placeholder string) TextField {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 1024
	ti.Width = 60

	return TextField{
		label:  label,
		input:  ti,
		styles: defaultTextFieldStyles(),
	}
}

// WithWidth sets the width of the text field.
func (t TextField) WithWidth(width int) TextField {
	if width > 4 {
		t.input.Width = width - 4
	}
	return t
}

// WithValidator sets a validation function run on submit.
func (t TextField) WithValidator(fn func(string) error) TextField {
	t.validator = fn
	return t
}

// WithValue sets the initial value.
func (t TextField) WithValue(value string) TextField {
	t.input.SetValue(value)
	t.input.CursorEnd()
	return t
}

// WithCompleter enables tab completion.
func (t TextField) WithCompleter(c *PathCompleter) TextField {
	t.completer = c
	return t
}

// Focus focuses the text field.
func (t *TextField) Focus() tea.Cmd {
	t.focused = true
	return t.input.Focus()
}

// Blur removes focus from the text field.
func (t *TextField) Blur() {
	t.focused = false
	t.input.Blur()
}

// IsFocused returns true if the field is focused.
func (t TextField) IsFocused() bool {
	return t.focused
}

// Init implements tea.Model.
func (t TextField) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles a message. Tab is consumed by the completer when one is set.
func (t TextField) Update(msg tea.Msg) (TextField, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && t.completer != nil {
		if key.Type == tea.KeyTab {
			t.input.SetValue(t.completer.Next(t.input.Value()))
			t.input.CursorEnd()
			return t, nil
		}
		t.completer.Reset()
	}

	var cmd tea.Cmd
	t.input, cmd = t.input.Update(msg)
	t.err = nil
	return t, cmd
}

// View implements tea.Model.
func (t TextField) View() string {
	var b strings.Builder

	b.WriteString(t.styles.Label.Render(t.label))
	b.WriteString("\n")

	style := t.styles.Input
	if t.focused {
		style = t.styles.FocusedInput
	}
	b.WriteString(style.Render(t.input.View()))

	if t.completer != nil {
		if matches := t.completer.Matches(); len(matches) > 1 {
			b.WriteString("\n")
			b.WriteString(t.styles.Hint.Render(strings.Join(matches, "  ")))
		}
	}
	if t.err != nil {
		b.WriteString("\n")
		b.WriteString(t.styles.Error.Render(t.err.Error()))
	}
	return b.String()
}

// Value returns the current value.
func (t TextField) Value() string {
	return t.input.Value()
}

// SetValue sets the value.
func (t *TextField) SetValue(v string) {
	t.input.SetValue(v)
}

// SetError shows err below the input until the next keypress.
func (t *TextField) SetError(err error) {
	t.err = err
}

// Error returns the current validation error.
func (t TextField) Error() error {
	return t.err
}

// Validate checks that the value is not blank and runs the validator.
func (t *TextField) Validate() error {
	if strings.TrimSpace(t.input.Value()) == "" {
		t.err = ErrFieldRequired
		return t.err
	}
	if t.validator != nil {
		t.err = t.validator(t.input.Value())
		return t.err
	}
	t.err = nil
	return nil
}

// ErrFieldRequired is returned when a required field is empty.
var ErrFieldRequired = fieldError("this field is required")

type fieldError string

func (e fieldError) Error() string { return string(e) }
