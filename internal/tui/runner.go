package tui

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vvka-141/fsedit/pkg/fsedit"
)

// Run shows the browser for root until the user quits or ctx is cancelled.
func Run(ctx context.Context, root *fsedit.Capability, deps Deps) error {
	m := New(ctx, root, deps)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("browser: %w", err)
	}
	return nil
}

// Picker is a fsedit.DirectoryPicker that asks for a folder in the terminal.
type Picker struct {
	// Start pre-fills the prompt; the working directory when empty.
	Start string
}

var _ fsedit.DirectoryPicker = Picker{}

// PickDirectory prompts for a directory path with tab completion.
// It fails with fsedit.ErrPickerDenied when no terminal is attached and with
// fsedit.ErrPickerCancelled when the user aborts.
func (p Picker) PickDirectory(ctx context.Context) (string, error) {
	if !IsInteractive() {
		return "", fmt.Errorf("no terminal to ask for a folder: %w", fsedit.ErrPickerDenied)
	}
	start := p.Start
	if start == "" {
		if wd, err := os.Getwd(); err == nil {
			start = wd + string(os.PathSeparator)
		}
	}

	prog := tea.NewProgram(newPickerModel(start), tea.WithContext(ctx))
	final, err := prog.Run()
	if err != nil {
		return "", fmt.Errorf("folder prompt: %w: %w", fsedit.ErrPickerCancelled, err)
	}
	return final.(pickerModel).result()
}

// ChooseBackend asks which storage backend to browse.
func ChooseBackend(ctx context.Context, current fsedit.Backend) (fsedit.Backend, error) {
	if !IsInteractive() {
		return "", fmt.Errorf("no terminal to choose a backend: %w", fsedit.ErrPickerDenied)
	}
	prog := tea.NewProgram(newChooserModel(current), tea.WithContext(ctx))
	final, err := prog.Run()
	if err != nil {
		return "", fmt.Errorf("backend selection: %w: %w", fsedit.ErrPickerCancelled, err)
	}
	return final.(chooserModel).result()
}
