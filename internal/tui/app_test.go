package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/fsedit/internal/editor"
	"github.com/vvka-141/fsedit/internal/files/filesystem"
	"github.com/vvka-141/fsedit/internal/logging"
	"github.com/vvka-141/fsedit/internal/store"
	"github.com/vvka-141/fsedit/internal/traversal"
	"github.com/vvka-141/fsedit/pkg/fsedit"
)

type harness struct {
	t        *testing.T
	mem      *filesystem.MemoryProvider
	store    *store.Store
	recorder *logging.RecordingLogger
	model    Model
}

func newHarness(t *testing.T, open OpenFunc) *harness {
	t.Helper()
	ctx := context.Background()

	mem := filesystem.NewMemoryProvider("/workspace")
	mem.AddFile("README.md", "# notes\n")
	mem.AddFile("docs/guide.md", "guide")
	mem.AddFile("image.png", "binary")
	root, err := mem.PickDirectory(ctx)
	require.NoError(t, err)

	rec := logging.NewRecordingLogger(20)
	s := store.New()
	engine := traversal.New(mem, s, traversal.WithLogger(rec))
	ctrl := editor.New(mem, s, editor.WithLogger(rec))

	h := &harness{t: t, mem: mem, store: s, recorder: rec}
	h.model = New(ctx, root, Deps{Store: s, Engine: engine, Editor: ctrl, Recorder: rec, Open: open, Title: "memory"})
	t.Cleanup(h.model.Close)

	_, err = engine.Refresh(ctx, root)
	require.NoError(t, err)
	h.send(refreshedMsg{})
	return h
}

// send delivers msg and returns the command the model produced.
func (h *harness) send(msg tea.Msg) tea.Cmd {
	h.t.Helper()
	next, cmd := h.model.Update(msg)
	m, ok := next.(Model)
	require.True(h.t, ok, "expected Model, got %T", next)
	h.model = m
	return cmd
}

// press delivers a key. For keys that start provider work the command is
// run synchronously and its result delivered; other commands (cursor blink,
// quit) are returned untouched.
func (h *harness) press(k string) tea.Cmd {
	h.t.Helper()
	cmd := h.send(keyMsg(k))
	switch k {
	case "enter", "ctrl+s":
	default:
		return cmd
	}
	if cmd == nil {
		return nil
	}
	return h.send(cmd())
}

func (h *harness) cursorTo(path string) {
	h.t.Helper()
	for i, row := range h.model.rows {
		if row.Path == path {
			h.model.cursor = i
			return
		}
	}
	h.t.Fatalf("no row %q", path)
}

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
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+o":
		return tea.KeyMsg{Type: tea.KeyCtrlO}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func rowPaths(m Model) []string {
	var out []string
	for _, r := range m.rows {
		out = append(out, r.Path)
	}
	return out
}

func TestModel_ShowsSortedTree(t *testing.T) {
	h := newHarness(t, nil)

	assert.Equal(t, []string{"docs", "docs/guide.md", "README.md", "image.png"}, rowPaths(h.model))

	view := h.model.View()
	assert.Contains(t, view, "docs/")
	assert.Contains(t, view, "README.md")
	assert.Contains(t, view, "Last updated:")
	assert.Contains(t, view, "Idle")
	assert.NotContains(t, view, "ctrl+o", "no folder prompt without an opener")
}

func TestModel_CursorClamps(t *testing.T) {
	h := newHarness(t, nil)

	h.press("up")
	assert.Equal(t, 0, h.model.cursor)
	for range 10 {
		h.press("j")
	}
	assert.Equal(t, 3, h.model.cursor)
	h.press("k")
	assert.Equal(t, 2, h.model.cursor)
}

func TestModel_EnterTogglesDirectory(t *testing.T) {
	h := newHarness(t, nil)
	h.cursorTo("docs")

	h.press("enter")
	assert.Equal(t, []string{"docs", "README.md", "image.png"}, rowPaths(h.model))
	assert.Contains(t, h.model.View(), SymbolCollapsed+" docs/")

	h.press("enter")
	assert.Len(t, h.model.rows, 4)
	assert.Equal(t, fsedit.StateIdle, h.store.Snapshot().Session.State, "directories are never selected")
}

func TestModel_UnsupportedFileIsInert(t *testing.T) {
	h := newHarness(t, nil)
	h.cursorTo("image.png")

	cmd := h.press("enter")
	assert.Nil(t, cmd)
	assert.Equal(t, 0, h.mem.Reads())
	assert.Contains(t, h.model.View(), "not an editable file type")
}

func TestModel_OpenEditSave(t *testing.T) {
	h := newHarness(t, nil)
	h.cursorTo("README.md")

	h.press("enter")
	assert.Equal(t, paneEditor, h.model.focus)
	assert.Equal(t, "# notes\n", h.model.buffer.Value())
	assert.Equal(t, fsedit.StateClean, h.store.Snapshot().Session.State)

	h.press("x")
	session := h.store.Snapshot().Session
	assert.True(t, session.Dirty)
	assert.Contains(t, session.Buffer, "x")

	h.press("ctrl+s")
	content, ok := h.mem.Content("README.md")
	require.True(t, ok)
	assert.Equal(t, session.Buffer, content)
	assert.Equal(t, 1, h.mem.Writes())
	assert.Equal(t, fsedit.StateClean, h.store.Snapshot().Session.State)
	assert.Contains(t, h.model.View(), "File saved successfully")
}

func TestModel_SaveWhenCleanDoesNotWrite(t *testing.T) {
	h := newHarness(t, nil)
	h.cursorTo("README.md")
	h.press("enter")

	assert.Nil(t, h.press("ctrl+s"))
	assert.Equal(t, 0, h.mem.Writes())
}

func TestModel_FailedSaveKeepsBuffer(t *testing.T) {
	h := newHarness(t, nil)
	h.cursorTo("README.md")
	h.press("enter")
	h.press("!")

	h.mem.Fail(filesystem.OpWrite, "README.md", errors.New("disk full"))
	h.press("ctrl+s")

	session := h.store.Snapshot().Session
	assert.Equal(t, fsedit.StateDirty, session.State)
	assert.Contains(t, h.model.buffer.Value(), "!")
	assert.Contains(t, h.model.View(), SymbolCross)
	content, _ := h.mem.Content("README.md")
	assert.Equal(t, "# notes\n", content)
}

func TestModel_FailedReadLeavesNoBuffer(t *testing.T) {
	h := newHarness(t, nil)
	h.mem.Fail(filesystem.OpRead, "README.md", errors.New("permission denied"))
	h.cursorTo("README.md")

	h.press("enter")
	assert.Equal(t, paneTree, h.model.focus)
	assert.Empty(t, h.model.buffer.Value())
	assert.Equal(t, fsedit.StateIdle, h.store.Snapshot().Session.State)

	line, ok := h.recorder.Last(logging.LevelError)
	require.True(t, ok)
	assert.Contains(t, line.Message, "README.md")
}

func TestModel_SelectingAnotherFileReplacesBuffer(t *testing.T) {
	h := newHarness(t, nil)
	h.cursorTo("README.md")
	h.press("enter")
	h.press("y")
	h.press("tab")
	assert.Equal(t, paneTree, h.model.focus)

	h.cursorTo("docs/guide.md")
	h.press("enter")
	assert.Equal(t, "guide", h.model.buffer.Value())
	assert.False(t, h.store.Snapshot().Session.Dirty)
	assert.Equal(t, 0, h.mem.Writes(), "unsaved changes are discarded, not written")
}

func TestModel_ReselectingDirtyFileReloadsBuffer(t *testing.T) {
	h := newHarness(t, nil)
	h.cursorTo("README.md")
	h.press("enter")
	h.press("X")
	require.True(t, h.store.Snapshot().Session.Dirty)
	h.press("tab")

	h.cursorTo("README.md")
	h.press("enter")

	snap := h.store.Snapshot()
	assert.Equal(t, fsedit.StateClean, snap.Session.State)
	assert.False(t, snap.CanApply)
	assert.Equal(t, "# notes\n", h.model.buffer.Value())

	h.press("Y")
	session := h.store.Snapshot().Session
	assert.NotContains(t, session.Buffer, "X", "discarded edit must not come back")
	assert.Contains(t, session.Buffer, "Y")
}

func TestModel_StaleSnapshotIgnored(t *testing.T) {
	h := newHarness(t, nil)
	old := h.store.Snapshot()

	h.cursorTo("README.md")
	h.press("enter")
	h.send(snapshotMsg(old))

	assert.Equal(t, "# notes\n", h.model.buffer.Value())
	assert.Equal(t, fsedit.StateClean, h.model.snap.Session.State)
}

func TestModel_QuitWithUnsavedChangesAsksTwice(t *testing.T) {
	h := newHarness(t, nil)
	h.cursorTo("README.md")
	h.press("enter")
	h.press("z")
	h.press("esc")

	assert.False(t, isQuit(h.press("q")))
	assert.Contains(t, h.model.View(), "press q again")
	assert.True(t, isQuit(h.press("q")))
}

func TestModel_QuitKeys(t *testing.T) {
	h := newHarness(t, nil)
	assert.True(t, isQuit(h.press("q")))

	h = newHarness(t, nil)
	h.cursorTo("README.md")
	h.press("enter")
	assert.True(t, isQuit(h.press("ctrl+c")), "ctrl+c quits from the editor")
}

func TestModel_OpenFolderPrompt(t *testing.T) {
	other := filesystem.NewMemoryProvider("/other")
	other.AddFile("todo.md", "- [ ] ship")
	var asked string
	open := func(ctx context.Context, path string) (*fsedit.Capability, error) {
		asked = path
		if path == "missing" {
			return nil, fsedit.ErrNotFound
		}
		return other.PickDirectory(ctx)
	}

	h := newHarness(t, open)
	assert.Contains(t, h.model.View(), "ctrl+o")

	h.press("ctrl+o")
	require.Equal(t, panePrompt, h.model.focus)
	assert.Contains(t, h.model.View(), "Open folder")

	h.press("esc")
	assert.Equal(t, paneTree, h.model.focus)

	h.press("ctrl+o")
	h.model.prompt.SetValue("missing")
	h.press("enter")
	assert.Equal(t, "missing", asked)
	assert.Equal(t, panePrompt, h.model.focus, "a failed open keeps the prompt")

	h.model.prompt.SetValue("elsewhere")
	cmd := h.press("enter")
	assert.Equal(t, paneTree, h.model.focus)
	require.NotNil(t, cmd, "opening a folder starts a refresh")
}

func TestModel_StatusShowsDirtyMarker(t *testing.T) {
	h := newHarness(t, nil)
	h.cursorTo("README.md")
	h.press("enter")
	h.press("a")
	h.send(snapshotMsg(h.store.Snapshot()))

	status := h.model.viewStatus()
	assert.True(t, strings.Contains(status, SymbolDirty+" README.md"), status)
	assert.Contains(t, status, "Dirty")
}
