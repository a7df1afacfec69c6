// Package tui is the interactive presentation layer: a bubbletea program with
// a tree pane and an editor pane over one granted directory.
//
// Every provider call runs inside a tea.Cmd, so the event loop never blocks
// on I/O. State is read from store snapshots delivered through a store
// subscription and re-rendered on each one.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vvka-141/fsedit/internal/editor"
	"github.com/vvka-141/fsedit/internal/logging"
	"github.com/vvka-141/fsedit/internal/store"
	"github.com/vvka-141/fsedit/internal/traversal"
	"github.com/vvka-141/fsedit/internal/tree"
	"github.com/vvka-141/fsedit/internal/tui/components"
	"github.com/vvka-141/fsedit/pkg/fsedit"
)

// OpenFunc grants a new root for a path typed into the folder prompt.
type OpenFunc func(ctx context.Context, path string) (*fsedit.Capability, error)

// Deps are the collaborators the browser drives.
type Deps struct {
	Store    *store.Store
	Engine   *traversal.Engine
	Editor   *editor.Controller
	Recorder *logging.RecordingLogger
	// Open enables ctrl+o. Nil for backends with a fixed root.
	Open OpenFunc
	// Title is shown in the header, usually the backend name.
	Title string
}

type pane int

const (
	paneTree pane = iota
	paneEditor
	panePrompt
)

type (
	snapshotMsg  store.Snapshot
	refreshedMsg struct{ err error }
	loadedMsg    struct {
		path string
		err  error
	}
	savedMsg  struct{ err error }
	openedMsg struct {
		root *fsedit.Capability
		err  error
	}
)

// Model is the browser's tea.Model.
type Model struct {
	ctx  context.Context
	deps Deps
	root *fsedit.Capability

	updates     <-chan store.Snapshot
	unsubscribe func()

	snap      store.Snapshot
	rows      []tree.Row
	collapsed map[string]bool
	cursor    int
	offset    int

	focus    pane
	buffer   textarea.Model
	shownSeq uint64
	prompt   components.TextField
	spinner  spinner.Model
	keys     KeyMap
	loading  bool
	saving   bool
	refresh  bool
	quitting bool
	notice   string

	width  int
	height int
}

// New creates the browser for root. The model subscribes to the store; call
// Close once the program has exited.
func New(ctx context.Context, root *fsedit.Capability, deps Deps) Model {
	ta := textarea.New()
	ta.Placeholder = "Select a file to edit"
	ta.ShowLineNumbers = true
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.Blur()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	if deps.Recorder == nil {
		deps.Recorder = logging.NewRecordingLogger(0)
	}
	updates, unsubscribe := deps.Store.Subscribe()

	m := Model{
		ctx:         ctx,
		deps:        deps,
		root:        root,
		updates:     updates,
		unsubscribe: unsubscribe,
		collapsed:   make(map[string]bool),
		buffer:      ta,
		spinner:     sp,
		keys:        DefaultKeyMap(),
		width:       100,
		height:      30,
		refresh:     true,
	}
	m.applySnapshot(deps.Store.Snapshot())
	m.resize()
	return m
}

// Close releases the store subscription.
func (m Model) Close() {
	m.unsubscribe()
}

// Init implements tea.Model: start listening and run the first refresh.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForSnapshot(), m.refreshCmd(), m.spinner.Tick)
}

func (m Model) waitForSnapshot() tea.Cmd {
	ch := m.updates
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

func (m *Model) refreshCmd() tea.Cmd {
	m.refresh = true
	ctx, engine, root := m.ctx, m.deps.Engine, m.root
	return func() tea.Msg {
		_, err := engine.Refresh(ctx, root)
		return refreshedMsg{err: err}
	}
}

func (m *Model) selectCmd(row tree.Row) tea.Cmd {
	m.loading = true
	ctx, ctrl := m.ctx, m.deps.Editor
	return func() tea.Msg {
		return loadedMsg{path: row.Path, err: ctrl.Select(ctx, row.Entry, row.Path)}
	}
}

func (m *Model) saveCmd() tea.Cmd {
	m.saving = true
	ctx, ctrl := m.ctx, m.deps.Editor
	return func() tea.Msg {
		return savedMsg{err: ctrl.Apply(ctx)}
	}
}

func (m Model) openCmd(input string) tea.Cmd {
	ctx, open := m.ctx, m.deps.Open
	return func() tea.Msg {
		root, err := open(ctx, input)
		return openedMsg{root: root, err: err}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case snapshotMsg:
		m.applySnapshot(store.Snapshot(msg))
		return m, m.waitForSnapshot()

	case refreshedMsg:
		// failures are already on the diagnostics channel
		m.refresh = false
		m.applySnapshot(m.deps.Store.Snapshot())
		return m, nil

	case loadedMsg:
		m.loading = false
		m.applySnapshot(m.deps.Store.Snapshot())
		if msg.err == nil && m.snap.Session.Path == msg.path {
			return m, m.focusEditor()
		}
		return m, nil

	case savedMsg:
		m.saving = false
		m.applySnapshot(m.deps.Store.Snapshot())
		return m, nil

	case openedMsg:
		if msg.err != nil {
			m.prompt.SetError(msg.err)
			return m, nil
		}
		m.root = msg.root
		m.collapsed = make(map[string]bool)
		m.cursor, m.offset = 0, 0
		m.focus = paneTree
		return m, m.refreshCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ForceQuit) {
			return m, tea.Quit
		}
		switch m.focus {
		case panePrompt:
			return m.updatePrompt(msg)
		case paneEditor:
			return m.updateEditor(msg)
		default:
			return m.updateTree(msg)
		}
	}

	if m.focus == paneEditor {
		var cmd tea.Cmd
		m.buffer, cmd = m.buffer.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateTree(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !key.Matches(msg, m.keys.Quit) {
		m.quitting = false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.deps.Editor.Session().Dirty && !m.quitting {
			m.quitting = true
			m.notice = "Unsaved changes, press q again to quit"
			return m, nil
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Select):
		return m, m.activate()
	case key.Matches(msg, m.keys.Focus):
		return m, m.focusEditor()
	case key.Matches(msg, m.keys.Save):
		return m, m.save()
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshCmd()
	case key.Matches(msg, m.keys.Open):
		if m.deps.Open == nil {
			return m, nil
		}
		m.prompt = components.NewTextField("Open folder", "path to a directory").
			WithWidth(m.width / 2).
			WithCompleter(components.NewPathCompleter(true))
		m.focus = panePrompt
		return m, m.prompt.Focus()
	}
	return m, nil
}

func (m Model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Focus), key.Matches(msg, m.keys.Back):
		m.focus = paneTree
		m.buffer.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Save):
		return m, m.save()
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshCmd()
	}

	if !m.snap.Session.State.HasBuffer() {
		return m, nil
	}
	before := m.buffer.Value()
	var cmd tea.Cmd
	m.buffer, cmd = m.buffer.Update(msg)
	if after := m.buffer.Value(); after != before {
		m.deps.Editor.Edit(after)
	}
	return m, cmd
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.focus = paneTree
		return m, nil
	case key.Matches(msg, m.keys.Select):
		if err := m.prompt.Validate(); err != nil {
			return m, nil
		}
		return m, m.openCmd(strings.TrimSpace(m.prompt.Value()))
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

// activate opens the file under the cursor or toggles the directory.
func (m *Model) activate() tea.Cmd {
	row, ok := m.current()
	if !ok {
		return nil
	}
	if row.Entry.IsDirectory {
		m.collapsed[row.Path] = !m.collapsed[row.Path]
		m.rows = tree.Flatten(m.snap.Entries, m.collapsed)
		m.clampCursor()
		return nil
	}
	if !m.deps.Editor.Editable(row.Entry) {
		m.notice = fmt.Sprintf("%s is not an editable file type (%s)", row.Entry.Name, m.deps.Editor.Extensions())
		return nil
	}
	m.notice = ""
	return m.selectCmd(row)
}

func (m *Model) save() tea.Cmd {
	if !m.deps.Editor.CanApply() {
		return nil
	}
	return m.saveCmd()
}

func (m *Model) focusEditor() tea.Cmd {
	if !m.snap.Session.State.HasBuffer() {
		return nil
	}
	m.focus = paneEditor
	return m.buffer.Focus()
}

func (m Model) current() (tree.Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return tree.Row{}, false
	}
	return m.rows[m.cursor], true
}

// applySnapshot ignores snapshots older than the one already shown; the
// subscription and direct reads can deliver them out of order.
func (m *Model) applySnapshot(snap store.Snapshot) {
	if snap.Version < m.snap.Version {
		return
	}
	m.snap = snap
	m.rows = tree.Flatten(snap.Entries, m.collapsed)
	m.clampCursor()
	m.syncBuffer()
}

// syncBuffer loads the session buffer into the text area once per loaded
// selection and clears it while no buffer is available.
func (m *Model) syncBuffer() {
	session := m.snap.Session
	if session.State.HasBuffer() {
		if m.shownSeq != session.Seq {
			m.buffer.SetValue(session.Buffer)
			m.shownSeq = session.Seq
		}
		return
	}
	if m.shownSeq != 0 || m.buffer.Value() != "" {
		m.buffer.Reset()
		m.shownSeq = 0
	}
	if m.focus == paneEditor {
		m.focus = paneTree
		m.buffer.Blur()
	}
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	visible := m.treeHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if visible > 0 && m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

func (m Model) treeWidth() int {
	return max(m.width/3, 24)
}

func (m Model) treeHeight() int {
	// header, status, help and the pane borders
	return max(m.height-6, 1)
}

func (m *Model) resize() {
	m.buffer.SetWidth(max(m.width-m.treeWidth()-8, 20))
	m.buffer.SetHeight(m.treeHeight())
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	header := TitleStyle.Render("fsedit")
	if m.deps.Title != "" {
		header += " " + SubtitleStyle.Render(m.deps.Title)
	}
	if m.root != nil {
		header += " " + SubtitleStyle.Render(SymbolBullet+" "+m.root.Name())
	}
	b.WriteString(header)
	b.WriteString("\n")

	if m.focus == panePrompt {
		b.WriteString(FocusedPaneStyle.Width(m.width - 4).Render(m.prompt.View()))
		b.WriteString("\n")
		b.WriteString(HelpStyle.Render(m.keys.PromptHelpText()))
		return b.String()
	}

	treeStyle, editorStyle := FocusedPaneStyle, PaneStyle
	if m.focus == paneEditor {
		treeStyle, editorStyle = PaneStyle, FocusedPaneStyle
	}
	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		treeStyle.Width(m.treeWidth()).Height(m.treeHeight()).Render(m.viewTree()),
		editorStyle.Height(m.treeHeight()).Render(m.buffer.View()),
	)
	b.WriteString(panes)
	b.WriteString("\n")
	b.WriteString(m.viewStatus())
	b.WriteString("\n")
	if m.focus == paneEditor {
		b.WriteString(HelpStyle.Render(m.keys.EditorHelpText()))
	} else {
		b.WriteString(HelpStyle.Render(m.keys.TreeHelpText(m.deps.Open != nil)))
	}
	return b.String()
}

func (m Model) viewTree() string {
	if len(m.rows) == 0 {
		if m.refresh {
			return m.spinner.View() + " Reading folder..."
		}
		return UnsupportedStyle.Render("(empty)")
	}

	var b strings.Builder
	end := min(m.offset+m.treeHeight(), len(m.rows))
	selected := m.snap.Session.Path
	for i := m.offset; i < end; i++ {
		row := m.rows[i]
		prefix := "  "
		if i == m.cursor {
			prefix = CursorStyle.Render(SymbolCursor + " ")
		}
		indent := strings.Repeat("  ", row.Depth)

		var label string
		switch {
		case row.Entry.IsDirectory:
			marker := SymbolExpanded
			if m.collapsed[row.Path] {
				marker = SymbolCollapsed
			}
			label = DirectoryStyle.Render(marker + " " + row.Entry.Name + "/")
		case row.Path == selected && m.snap.Session.Selected != nil:
			label = OpenFileStyle.Render("  " + row.Entry.Name)
		case m.deps.Editor.Editable(row.Entry):
			label = FileStyle.Render("  " + row.Entry.Name)
		default:
			label = UnsupportedStyle.Render("  " + row.Entry.Name)
		}
		b.WriteString(prefix + indent + label)
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) viewStatus() string {
	session := m.snap.Session
	var parts []string

	state := session.State.String()
	if m.loading || m.saving || m.refresh || session.State == fsedit.StateLoading || session.State == fsedit.StateSaving {
		state = m.spinner.View() + " " + state
	}
	parts = append(parts, StatusStyle.Render(state))

	if session.Path != "" {
		name := session.Path
		if session.Dirty {
			parts = append(parts, DirtyStyle.Render(SymbolDirty+" "+name))
		} else {
			parts = append(parts, StatusStyle.Render(name))
		}
	}
	if !m.snap.LastUpdated.IsZero() {
		parts = append(parts, StatusStyle.Render("Last updated: "+m.snap.LastUpdated.Format(time.TimeOnly)))
	}

	switch {
	case m.notice != "":
		parts = append(parts, DirtyStyle.Render(m.notice))
	default:
		if line, ok := m.deps.Recorder.Last(logging.LevelInfo); ok {
			if line.Level == logging.LevelError {
				parts = append(parts, ErrorStyle.Render(SymbolCross+" "+line.Message))
			} else {
				parts = append(parts, SuccessStyle.Render(SymbolCheck+" "+line.Message))
			}
		}
	}
	return strings.Join(parts, "  ")
}
