package traversal

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/fsedit/internal/files/filesystem"
	"github.com/vvka-141/fsedit/internal/logging"
	"github.com/vvka-141/fsedit/internal/mocks"
	"github.com/vvka-141/fsedit/internal/store"
	"github.com/vvka-141/fsedit/internal/tree"
	"github.com/vvka-141/fsedit/pkg/fsedit"
)

func names(entries []*tree.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func pickRoot(t *testing.T, p fsedit.Provider) *fsedit.Capability {
	t.Helper()
	root, err := p.PickDirectory(context.Background())
	require.NoError(t, err)
	return root
}

func TestRefresh_ScenarioA(t *testing.T) {
	p := filesystem.NewMemoryProvider("/root")
	p.AddFile("b.md", "hello")
	p.AddFile("a.txt", "plain")
	p.AddFile("z/c.rs", "fn main() {}")

	s := store.New()
	e := New(p, s)
	root := pickRoot(t, p)

	entries, err := e.Refresh(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{"z", "a.txt", "b.md"}, names(entries))
	require.True(t, entries[0].IsDirectory)
	assert.Equal(t, []string{"c.rs"}, names(entries[0].Children))
	assert.True(t, tree.IsSorted(entries))

	exts := tree.DefaultExtensionSet()
	assert.False(t, exts.Editable(entries[1]), "a.txt is not editable")
	assert.True(t, exts.Editable(entries[2]), "b.md is editable")
	assert.True(t, exts.Editable(entries[0].Children[0]), "c.rs is editable")

	snap := s.Snapshot()
	assert.True(t, root.Same(snap.Root))
	assert.True(t, tree.Equal(entries, snap.Entries))
	assert.False(t, snap.LastUpdated.IsZero())
	assert.Equal(t, fsedit.StateIdle, snap.Session.State)

	stats := e.LastStats()
	assert.Equal(t, 1, stats.Directories)
	assert.Equal(t, 3, stats.Files)
	assert.Zero(t, stats.Degraded)
}

func TestRefresh_Idempotent(t *testing.T) {
	p := filesystem.NewMemoryProvider("/root")
	p.AddFile("docs/guide.md", "g")
	p.AddFile("docs/api/index.md", "i")
	p.AddFile("main.rs", "m")
	p.AddDir("empty")

	s := store.New()
	e := New(p, s)
	root := pickRoot(t, p)

	first, err := e.Refresh(context.Background(), root)
	require.NoError(t, err)
	firstUpdated := s.Snapshot().LastUpdated

	second, err := e.Refresh(context.Background(), root)
	require.NoError(t, err)

	assert.True(t, tree.Equal(first, second))
	assert.True(t, s.Snapshot().LastUpdated.After(firstUpdated))
}

func TestRefresh_PartialFailure(t *testing.T) {
	p := filesystem.NewMemoryProvider("/root")
	p.AddFile("broken/hidden.md", "x")
	p.AddFile("ok/visible.md", "y")
	p.AddFile("a.md", "z")
	p.Fail(filesystem.OpChildren, "broken", errors.New("permission denied"))

	rec := logging.NewRecordingLogger(10)
	e := New(p, store.New(), WithLogger(rec))

	entries, err := e.Refresh(context.Background(), pickRoot(t, p))
	require.NoError(t, err)

	assert.Equal(t, []string{"broken", "ok", "a.md"}, names(entries))
	assert.True(t, entries[0].IsDirectory)
	assert.Empty(t, entries[0].Children)
	assert.NotNil(t, entries[0].Children)
	assert.Equal(t, []string{"visible.md"}, names(entries[1].Children))

	assert.Equal(t, 1, e.LastStats().Degraded)
	assert.NotEmpty(t, rec.Messages(logging.LevelVerbose))
}

func TestRefresh_RootFailurePreservesSnapshot(t *testing.T) {
	p := filesystem.NewMemoryProvider("/root")
	p.AddFile("a.md", "a")

	s := store.New()
	rec := logging.NewRecordingLogger(10)
	e := New(p, s, WithLogger(rec))
	root := pickRoot(t, p)

	_, err := e.Refresh(context.Background(), root)
	require.NoError(t, err)
	before := s.Snapshot()

	p.AddFile("b.md", "b")
	p.Fail(filesystem.OpChildren, ".", errors.New("device gone"))

	entries, err := e.Refresh(context.Background(), root)
	require.Error(t, err)
	assert.ErrorIs(t, err, fsedit.ErrEnumerationFailed)
	assert.Nil(t, entries)

	after := s.Snapshot()
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, before.LastUpdated, after.LastUpdated)
	assert.Equal(t, []string{"a.md"}, names(after.Entries))
	assert.Len(t, rec.Messages(logging.LevelError), 1)
}

func TestRefresh_RejectsFileRoot(t *testing.T) {
	p := filesystem.NewMemoryProvider("/root")
	p.AddFile("a.md", "a")
	file, err := p.Capability("a.md")
	require.NoError(t, err)

	s := store.New()
	_, err = New(p, s).Refresh(context.Background(), file)
	assert.ErrorIs(t, err, fsedit.ErrKindMismatch)
	assert.Zero(t, s.Snapshot().Version)
}

func TestRefresh_DepthGuard(t *testing.T) {
	p := filesystem.NewMemoryProvider("/root")
	p.AddFile("a/b/c/deep.md", "d")
	p.AddFile("a/top.md", "t")

	e := New(p, store.New(), WithMaxDepth(1))
	entries, err := e.Refresh(context.Background(), pickRoot(t, p))
	require.NoError(t, err)

	a := tree.Find(entries, "a")
	require.NotNil(t, a)
	assert.Equal(t, []string{"b", "top.md"}, names(a.Children))

	b := tree.Find(entries, "a/b")
	require.NotNil(t, b)
	assert.Empty(t, b.Children)
	assert.Equal(t, 1, e.LastStats().Degraded)
}

func TestRefresh_DefaultDepthHandlesDeepTrees(t *testing.T) {
	p := filesystem.NewMemoryProvider("/root")
	rel := ""
	for i := 0; i < 20; i++ {
		rel += fmt.Sprintf("d%d/", i)
	}
	p.AddFile(rel+"leaf.md", "x")

	entries, err := New(p, store.New()).Refresh(context.Background(), pickRoot(t, p))
	require.NoError(t, err)
	assert.NotNil(t, tree.Find(entries, rel+"leaf.md"))
}

func TestRefresh_Superseded(t *testing.T) {
	p := filesystem.NewMemoryProvider("/root")
	p.AddFile("a.md", "a")

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	p.SetHook(func(_ context.Context, op filesystem.Op, rel string) error {
		if op != filesystem.OpChildren || rel != "." {
			return nil
		}
		first := false
		once.Do(func() { first = true })
		if first {
			close(entered)
			<-release
		}
		return nil
	})

	s := store.New()
	e := New(p, s)
	root := pickRoot(t, p)

	type result struct {
		entries []*tree.Entry
		err     error
	}
	done := make(chan result, 1)
	go func() {
		entries, err := e.Refresh(context.Background(), root)
		done <- result{entries, err}
	}()

	<-entered
	p.AddFile("b.md", "b")
	latest, err := e.Refresh(context.Background(), root)
	require.NoError(t, err)
	close(release)

	stale := <-done
	assert.ErrorIs(t, stale.err, fsedit.ErrSuperseded)
	assert.NotEmpty(t, stale.entries)

	snap := s.Snapshot()
	require.Len(t, snap.Entries, 2)
	assert.Same(t, latest[0], snap.Entries[0])
}

func TestRefresh_FailedNewerRefreshDoesNotDropOlder(t *testing.T) {
	p := filesystem.NewMemoryProvider("/root")
	p.AddFile("a.md", "a")

	entered := make(chan struct{})
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	p.SetHook(func(_ context.Context, op filesystem.Op, rel string) error {
		if op != filesystem.OpChildren || rel != "." {
			return nil
		}
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		switch n {
		case 1:
			close(entered)
			<-release
			return nil
		case 2:
			return errors.New("disk unplugged")
		}
		return nil
	})

	s := store.New()
	e := New(p, s)
	root := pickRoot(t, p)

	done := make(chan error, 1)
	go func() {
		_, err := e.Refresh(context.Background(), root)
		done <- err
	}()

	<-entered
	_, err := e.Refresh(context.Background(), root)
	require.ErrorIs(t, err, fsedit.ErrEnumerationFailed)
	close(release)

	require.NoError(t, <-done)
	assert.Equal(t, []string{"a.md"}, names(s.Snapshot().Entries))
}

func TestRefresh_Cancellation(t *testing.T) {
	p := filesystem.NewMemoryProvider("/root")
	p.AddFile("sub/inner.md", "x")
	p.AddFile("a.md", "a")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.SetHook(func(ctx context.Context, op filesystem.Op, rel string) error {
		if op == filesystem.OpChildren && rel == "sub" {
			cancel()
			return ctx.Err()
		}
		return nil
	})

	s := store.New()
	entries, err := New(p, s).Refresh(ctx, pickRoot(t, p))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, entries)
	assert.Empty(t, s.Snapshot().Entries, "cancelled refresh must not publish")
}

func TestRefresh_SkipsInvalidChildren(t *testing.T) {
	root := fsedit.NewCapability(fsedit.KindDirectory, "root", "root")
	mismatched := mocks.File("liar.md")
	mismatched.Capability = fsedit.NewCapability(fsedit.KindDirectory, "liar.md", "liar.md")

	p := new(mocks.MockProvider)
	p.On("Children", mock.Anything, root).Return(mocks.Seq(
		mocks.File("ok.md"),
		mismatched,
		fsedit.Child{Name: "nil.md", Kind: fsedit.KindFile},
		mocks.File(""),
		mocks.File("ok.md"),
		mocks.File("a/b.md"),
		fsedit.Child{Name: "odd", Kind: fsedit.Kind(7), Capability: fsedit.NewCapability(fsedit.Kind(7), "odd", nil)},
	))

	rec := logging.NewRecordingLogger(20)
	e := New(p, store.New(), WithLogger(rec))

	entries, err := e.Refresh(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok.md"}, names(entries))
	assert.Equal(t, 6, e.LastStats().Skipped)
	assert.Len(t, rec.Messages(logging.LevelVerbose), 6+2)
	p.AssertExpectations(t)
}

func TestRefresh_EnumerationErrorMidStream(t *testing.T) {
	root := fsedit.NewCapability(fsedit.KindDirectory, "root", "root")
	sub := mocks.Dir("sub")

	p := new(mocks.MockProvider)
	p.On("Children", mock.Anything, root).Return(mocks.Seq(sub, mocks.File("a.md")))
	var failing iter.Seq2[fsedit.Child, error] = func(yield func(fsedit.Child, error) bool) {
		if !yield(mocks.File("first.md"), nil) {
			return
		}
		yield(fsedit.Child{}, errors.New("connection reset"))
	}
	p.On("Children", mock.Anything, sub.Capability).Return(failing)

	entries, err := New(p, store.New()).Refresh(context.Background(), root)
	require.NoError(t, err)
	require.Equal(t, []string{"sub", "a.md"}, names(entries))
	assert.Empty(t, entries[0].Children, "a subtree that fails midway is shown empty, not partial")
}

func TestRefresh_ConcurrencyDoesNotChangeResult(t *testing.T) {
	p := filesystem.NewMemoryProvider("/root")
	for i := 0; i < 8; i++ {
		for j := 0; j < 4; j++ {
			p.AddFile(fmt.Sprintf("dir%d/sub%d/file%d.md", i, j, j), "x")
		}
		p.AddFile(fmt.Sprintf("file%d.json", i), "{}")
	}
	root := pickRoot(t, p)

	serial, err := New(p, store.New(), WithConcurrency(1)).Refresh(context.Background(), root)
	require.NoError(t, err)
	parallel, err := New(p, store.New(), WithConcurrency(16)).Refresh(context.Background(), root)
	require.NoError(t, err)

	assert.True(t, tree.Equal(serial, parallel))
	assert.True(t, tree.IsSorted(parallel))
	dirs, files := tree.Count(parallel)
	assert.Equal(t, 8+32, dirs)
	assert.Equal(t, 8+32, files)
}

func TestRefresh_SymlinkCyclesDegradeToEmpty(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("a"), 0o644))
	require.NoError(t, os.Symlink(dir, filepath.Join(dir, "x")))
	require.NoError(t, os.Symlink(dir, filepath.Join(dir, "y")))

	p := filesystem.NewOSProvider(filesystem.StaticPicker(dir))
	root := pickRoot(t, p)
	e := New(p, store.New(), WithConcurrency(4))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	entries, err := e.Refresh(ctx, root)
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "y", "a.md"}, names(entries))
	assert.Empty(t, entries[0].Children)
	assert.Empty(t, entries[1].Children)
	assert.Equal(t, 2, e.LastStats().Degraded)
}
