package components

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

var backendOptions = []Option{
	{Label: "Local folder", Value: "os"},
	{Label: "Demo workspace", Value: "memory"},
	{Label: "S3 bucket", Value: "s3"},
}

func TestSelector_NavigateAndSelect(t *testing.T) {
	s := NewSelector("Backend", backendOptions)

	s, _ = s.Update(keyMsg("down"))
	s, _ = s.Update(keyMsg("j"))
	s, _ = s.Update(keyMsg("down"))
	assert.Equal(t, 2, s.Cursor(), "cursor stops at the last option")

	s, _ = s.Update(keyMsg("up"))
	s, _ = s.Update(keyMsg("enter"))
	assert.True(t, s.Submitted())
	assert.False(t, s.Cancelled())
	assert.Equal(t, "memory", s.Value())

	s, _ = s.Update(keyMsg("down"))
	assert.Equal(t, "memory", s.Value(), "input after submit is ignored")
}

func TestSelector_Cancel(t *testing.T) {
	s := NewSelector("Backend", backendOptions).WithCursor("s3")
	assert.Equal(t, 2, s.Cursor())

	s, _ = s.Update(keyMsg("esc"))
	assert.True(t, s.Cancelled())
	assert.Empty(t, s.Value())
}

func TestSelector_View(t *testing.T) {
	view := NewSelector("Backend", backendOptions).View()
	assert.Contains(t, view, "Backend")
	assert.Contains(t, view, "● Local folder")
	assert.Contains(t, view, "○ S3 bucket")
}

func TestTextField_TabCompletes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "workspace"), 0o755))

	f := NewTextField("Folder", "path").WithValue(filepath.Join(dir, "work")).WithCompleter(NewPathCompleter(true))
	f.Focus()
	f, _ = f.Update(keyMsg("tab"))
	assert.Equal(t, filepath.Join(dir, "workspace")+string(filepath.Separator), f.Value())
}

func TestTextField_Validate(t *testing.T) {
	f := NewTextField("Folder", "path")
	assert.ErrorIs(t, f.Validate(), ErrFieldRequired)
	assert.Contains(t, f.View(), ErrFieldRequired.Error())

	f.SetValue("/tmp")
	assert.NoError(t, f.Validate())

	validated := NewTextField("Folder", "").WithValue("x").WithValidator(func(string) error { return ErrFieldRequired })
	assert.Error(t, validated.Validate())
}
