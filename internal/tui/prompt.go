package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vvka-141/fsedit/internal/tui/components"
	"github.com/vvka-141/fsedit/pkg/fsedit"
)

var errNotDirectory = errors.New("not a directory")

// requireDirectory is the folder prompt validator.
func requireDirectory(input string) error {
	info, err := os.Stat(strings.TrimSpace(input))
	if err != nil {
		return fmt.Errorf("cannot open: %w", err)
	}
	if !info.IsDir() {
		return errNotDirectory
	}
	return nil
}

// pickerModel is a standalone folder prompt.
type pickerModel struct {
	field     components.TextField
	keys      KeyMap
	done      bool
	cancelled bool
}

func newPickerModel(start string) pickerModel {
	field := components.NewTextField("Folder to browse", "path to a directory").
		WithValue(start).
		WithValidator(requireDirectory).
		WithCompleter(components.NewPathCompleter(true))
	field.Focus()
	return pickerModel{field: field, keys: DefaultKeyMap()}
}

func (m pickerModel) Init() tea.Cmd {
	return m.field.Init()
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(k, m.keys.ForceQuit), key.Matches(k, m.keys.Back):
			m.cancelled = true
			return m, tea.Quit
		case key.Matches(k, m.keys.Select):
			if m.field.Validate() != nil {
				return m, nil
			}
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.field, cmd = m.field.Update(msg)
	return m, cmd
}

func (m pickerModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	return TitleStyle.Render("fsedit") + "\n\n" + m.field.View() + "\n\n" + HelpStyle.Render(m.keys.PromptHelpText()) + "\n"
}

func (m pickerModel) result() (string, error) {
	if !m.done {
		return "", fmt.Errorf("pick directory: %w", fsedit.ErrPickerCancelled)
	}
	abs, err := filepath.Abs(strings.TrimSpace(m.field.Value()))
	if err != nil {
		return "", fmt.Errorf("pick directory: %w: %w", fsedit.ErrPickerDenied, err)
	}
	return abs, nil
}

var backendOptions = []components.Option{
	{Label: "Local folder", Description: "Browse a directory on this machine", Value: string(fsedit.BackendOS)},
	{Label: "Demo workspace", Description: "In-memory copy of the bundled sample files", Value: string(fsedit.BackendMemory)},
	{Label: "S3 bucket", Description: "Objects below the configured s3 bucket and prefix", Value: string(fsedit.BackendS3)},
	{Label: "PostgreSQL table", Description: "Rows of the configured postgres table", Value: string(fsedit.BackendPostgres)},
}

// chooserModel asks for a backend.
type chooserModel struct {
	selector components.Selector
}

func newChooserModel(current fsedit.Backend) chooserModel {
	return chooserModel{
		selector: components.NewSelector("What do you want to browse?", backendOptions).WithCursor(string(current)),
	}
}

func (m chooserModel) Init() tea.Cmd { return nil }

func (m chooserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.selector, _ = m.selector.Update(msg)
	if m.selector.Submitted() || m.selector.Cancelled() {
		return m, tea.Quit
	}
	return m, nil
}

func (m chooserModel) View() string {
	if m.selector.Submitted() || m.selector.Cancelled() {
		return ""
	}
	return m.selector.View() + "\n"
}

func (m chooserModel) result() (fsedit.Backend, error) {
	if !m.selector.Submitted() {
		return "", fmt.Errorf("choose backend: %w", fsedit.ErrPickerCancelled)
	}
	return fsedit.Backend(m.selector.Value()), nil
}
