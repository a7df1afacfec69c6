package filesystem

import (
	"context"
	"fmt"
	"iter"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/vvka-141/fsedit/pkg/fsedit"
)

// Op names a provider operation for failure injection and hooks.
type Op string

const (
	OpChildren Op = "children"
	OpRead     Op = "read"
	OpWrite    Op = "write"
)

// Hook runs before every operation on a memory provider. A non-nil error
// fails the operation. Hooks may block; they receive the caller's context.
type Hook func(ctx context.Context, op Op, rel string) error

// memoryNode is one file or directory of the in-memory tree
type memoryNode struct {
	isDir   bool
	content string
	modTime time.Time
}

// memoryHandle is the capability handle issued by MemoryProvider
type memoryHandle struct {
	owner   *MemoryProvider
	absPath string
}

// MemoryProvider implements fsedit.Provider over an in-memory tree.
// It backs the demo workspace and tests; failures can be injected per path.
// Safe for concurrent use by multiple goroutines.
type MemoryProvider struct {
	root   string
	nodes  *xsync.Map[string, *memoryNode]
	faults *xsync.Map[string, error]
	hook   atomic.Pointer[Hook]

	reads  atomic.Int64
	writes atomic.Int64
}

var _ fsedit.Provider = (*MemoryProvider)(nil)

// NewMemoryProvider creates an empty in-memory tree rooted at root.
// The root path is normalized to use forward slashes for virtual filesystem consistency.
func NewMemoryProvider(root string) *MemoryProvider {
	root = path.Clean("/" + filepath.ToSlash(root))
	p := &MemoryProvider{
		root:   root,
		nodes:  xsync.NewMap[string, *memoryNode](),
		faults: xsync.NewMap[string, error](),
	}
	p.nodes.Store(root, &memoryNode{isDir: true, modTime: time.Now()})
	return p
}

// Root returns the virtual root path.
func (p *MemoryProvider) Root() string { return p.root }

// resolve maps a root-relative or absolute virtual path to its absolute form.
func (p *MemoryProvider) resolve(rel string) string {
	rel = filepath.ToSlash(rel)
	if rel == "" || rel == "." {
		return p.root
	}
	if strings.HasPrefix(rel, p.root+"/") || rel == p.root {
		return path.Clean(rel)
	}
	return path.Join(p.root, rel)
}

func (p *MemoryProvider) relative(abs string) string {
	rel := strings.TrimPrefix(strings.TrimPrefix(abs, p.root), "/")
	if rel == "" {
		return "."
	}
	return rel
}

// AddFile adds or replaces a file, creating parent directories.
func (p *MemoryProvider) AddFile(rel string, content string) {
	abs := p.resolve(rel)
	p.ensureDirectoriesExist(path.Dir(abs))
	p.nodes.Store(abs, &memoryNode{content: content, modTime: time.Now()})
}

// AddDir adds a directory, creating parent directories.
func (p *MemoryProvider) AddDir(rel string) {
	p.ensureDirectoriesExist(p.resolve(rel))
}

// ensureDirectoriesExist creates directory nodes up to the root
func (p *MemoryProvider) ensureDirectoriesExist(dir string) {
	for dir != p.root && strings.HasPrefix(dir, p.root) {
		if _, exists := p.nodes.LoadOrStore(dir, &memoryNode{isDir: true, modTime: time.Now()}); exists {
			return
		}
		dir = path.Dir(dir)
	}
}

// Content returns the current content of a file.
func (p *MemoryProvider) Content(rel string) (string, bool) {
	n, ok := p.nodes.Load(p.resolve(rel))
	if !ok || n.isDir {
		return "", false
	}
	return n.content, true
}

// Fail makes every op on rel fail with err until Clear is called.
func (p *MemoryProvider) Fail(op Op, rel string, err error) {
	p.faults.Store(faultKey(op, p.resolve(rel)), err)
}

// Clear removes an injected failure.
func (p *MemoryProvider) Clear(op Op, rel string) {
	p.faults.Delete(faultKey(op, p.resolve(rel)))
}

// SetHook installs fn to run before every operation. nil removes the hook.
func (p *MemoryProvider) SetHook(fn Hook) {
	if fn == nil {
		p.hook.Store(nil)
		return
	}
	p.hook.Store(&fn)
}

// Reads returns the number of ReadText calls that reached the tree.
func (p *MemoryProvider) Reads() int { return int(p.reads.Load()) }

// Writes returns the number of committed WriteText calls.
func (p *MemoryProvider) Writes() int { return int(p.writes.Load()) }

func faultKey(op Op, abs string) string {
	return string(op) + ":" + abs
}

func (p *MemoryProvider) before(ctx context.Context, op Op, abs string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if h := p.hook.Load(); h != nil {
		if err := (*h)(ctx, op, p.relative(abs)); err != nil {
			return err
		}
	}
	if err, ok := p.faults.Load(faultKey(op, abs)); ok {
		return err
	}
	return nil
}

func (p *MemoryProvider) handle(c *fsedit.Capability, kind fsedit.Kind) (string, error) {
	h, err := fsedit.HandleAs[memoryHandle](c, kind)
	if err != nil {
		return "", err
	}
	if h.owner != p {
		return "", fmt.Errorf("%s was issued by another memory provider: %w", c, fsedit.ErrKindMismatch)
	}
	return h.absPath, nil
}

func (p *MemoryProvider) capability(kind fsedit.Kind, abs string) *fsedit.Capability {
	return fsedit.NewCapability(kind, path.Base(abs), memoryHandle{owner: p, absPath: abs})
}

// PickDirectory grants the root of the tree.
func (p *MemoryProvider) PickDirectory(ctx context.Context) (*fsedit.Capability, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pick directory: %w", fsedit.ErrPickerCancelled)
	}
	return p.capability(fsedit.KindDirectory, p.root), nil
}

// Capability grants access to the entry at rel, bypassing the picker.
func (p *MemoryProvider) Capability(rel string) (*fsedit.Capability, error) {
	abs := p.resolve(rel)
	n, ok := p.nodes.Load(abs)
	if !ok {
		return nil, fmt.Errorf("%s: %w", rel, fsedit.ErrNotFound)
	}
	kind := fsedit.KindFile
	if n.isDir {
		kind = fsedit.KindDirectory
	}
	return p.capability(kind, abs), nil
}

// Children enumerates the direct children of dir in no particular order.
func (p *MemoryProvider) Children(ctx context.Context, dir *fsedit.Capability) iter.Seq2[fsedit.Child, error] {
	abs, err := p.handle(dir, fsedit.KindDirectory)
	if err != nil {
		return fsedit.EnumerationError(fmt.Errorf("enumerate: %w: %w", fsedit.ErrEnumerationFailed, err))
	}

	return func(yield func(fsedit.Child, error) bool) {
		if err := p.before(ctx, OpChildren, abs); err != nil {
			yield(fsedit.Child{}, fmt.Errorf("enumerate %s: %w: %w", p.relative(abs), fsedit.ErrEnumerationFailed, err))
			return
		}
		if n, ok := p.nodes.Load(abs); !ok || !n.isDir {
			yield(fsedit.Child{}, fmt.Errorf("enumerate %s: %w: %w", p.relative(abs), fsedit.ErrEnumerationFailed, fsedit.ErrNotFound))
			return
		}

		var children []fsedit.Child
		p.nodes.Range(func(key string, n *memoryNode) bool {
			if key != abs && path.Dir(key) == abs {
				kind := fsedit.KindFile
				if n.isDir {
					kind = fsedit.KindDirectory
				}
				children = append(children, fsedit.Child{
					Name:       path.Base(key),
					Kind:       kind,
					Capability: p.capability(kind, key),
				})
			}
			return true
		})

		for _, child := range children {
			if err := ctx.Err(); err != nil {
				yield(fsedit.Child{}, err)
				return
			}
			if !yield(child, nil) {
				return
			}
		}
	}
}

// ReadText returns the content of a file.
func (p *MemoryProvider) ReadText(ctx context.Context, file *fsedit.Capability) (string, error) {
	abs, err := p.handle(file, fsedit.KindFile)
	if err != nil {
		return "", fmt.Errorf("read: %w: %w", fsedit.ErrReadFailed, err)
	}
	if err := p.before(ctx, OpRead, abs); err != nil {
		return "", fmt.Errorf("read %s: %w: %w", p.relative(abs), fsedit.ErrReadFailed, err)
	}
	p.reads.Add(1)

	n, ok := p.nodes.Load(abs)
	if !ok || n.isDir {
		return "", fmt.Errorf("read %s: %w: %w", p.relative(abs), fsedit.ErrReadFailed, fsedit.ErrNotFound)
	}
	return n.content, nil
}

// WriteText replaces the content of an existing file.
func (p *MemoryProvider) WriteText(ctx context.Context, file *fsedit.Capability, content string) error {
	abs, err := p.handle(file, fsedit.KindFile)
	if err != nil {
		return fmt.Errorf("write: %w: %w", fsedit.ErrWriteFailed, err)
	}
	if err := p.before(ctx, OpWrite, abs); err != nil {
		return fmt.Errorf("write %s: %w: %w", p.relative(abs), fsedit.ErrWriteFailed, err)
	}

	n, ok := p.nodes.Load(abs)
	if !ok || n.isDir {
		return fmt.Errorf("write %s: %w: %w", p.relative(abs), fsedit.ErrWriteFailed, fsedit.ErrNotFound)
	}
	p.nodes.Store(abs, &memoryNode{content: content, modTime: time.Now()})
	p.writes.Add(1)
	return nil
}

// DisplayName returns the base name of the entry.
func (p *MemoryProvider) DisplayName(c *fsedit.Capability) string { return c.Name() }

// Kind returns the kind the capability was issued for.
func (p *MemoryProvider) Kind(c *fsedit.Capability) fsedit.Kind { return c.Kind() }
