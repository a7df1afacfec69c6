package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/vvka-141/fsedit/pkg/fsedit"
)

// osHandle is the capability handle issued by OSProvider.
// For directories, resolved is the path with symlinks evaluated and branch
// holds the resolved paths of every directory above it in the walk.
type osHandle struct {
	root     string
	absPath  string
	resolved string
	branch   []string
}

// OSProvider implements fsedit.Provider for the OS filesystem.
// Access is limited to the directory returned by the picker; symlinks are
// followed only when they resolve inside it.
type OSProvider struct {
	picker fsedit.DirectoryPicker
}

var _ fsedit.Provider = (*OSProvider)(nil)

// NewOSProvider creates an OS filesystem provider. Panics if picker is nil.
func NewOSProvider(picker fsedit.DirectoryPicker) *OSProvider {
	if picker == nil {
		panic("picker cannot be nil")
	}
	return &OSProvider{picker: picker}
}

// PickDirectory asks the picker for a path and grants it if it is a readable directory.
func (p *OSProvider) PickDirectory(ctx context.Context) (*fsedit.Capability, error) {
	picked, err := p.picker.PickDirectory(ctx)
	if err != nil {
		if errors.Is(err, fsedit.ErrPickerCancelled) || errors.Is(err, fsedit.ErrPickerDenied) {
			return nil, err
		}
		return nil, fmt.Errorf("pick directory: %w: %w", fsedit.ErrPickerCancelled, err)
	}
	return Open(picked)
}

// Open grants access to the directory at dir without going through a picker.
func Open(dir string) (*fsedit.Capability, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w: %w", fsedit.ErrPickerDenied, err)
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to access path: %w: %w", fsedit.ErrPickerDenied, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to access path: %w: %w", fsedit.ErrPickerDenied, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s: %w", dir, fsedit.ErrPickerDenied)
	}

	return fsedit.NewCapability(fsedit.KindDirectory, filepath.Base(abs), osHandle{root: abs, absPath: abs, resolved: abs}), nil
}

// Resolve grants access to the entry at the slash-separated path rel below root.
func Resolve(root *fsedit.Capability, rel string) (*fsedit.Capability, error) {
	h, err := fsedit.HandleAs[osHandle](root, fsedit.KindDirectory)
	if err != nil {
		return nil, err
	}
	target := filepath.Join(h.absPath, filepath.FromSlash(rel))
	if !within(h.root, target) {
		return nil, fmt.Errorf("%s: %w", rel, fsedit.ErrOutsideRoot)
	}
	info, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", rel, fsedit.ErrNotFound, err)
	}
	kind := fsedit.KindFile
	resolved := ""
	if info.IsDir() {
		kind = fsedit.KindDirectory
		if resolved, err = filepath.EvalSymlinks(target); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", rel, fsedit.ErrNotFound, err)
		}
	}
	return fsedit.NewCapability(kind, filepath.Base(target), osHandle{root: h.root, absPath: target, resolved: resolved}), nil
}

// within reports whether target is root or below it.
func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func (p *OSProvider) handle(c *fsedit.Capability, kind fsedit.Kind) (osHandle, error) {
	h, err := fsedit.HandleAs[osHandle](c, kind)
	if err != nil {
		return osHandle{}, err
	}
	if !within(h.root, h.absPath) {
		return osHandle{}, fmt.Errorf("%s: %w", h.absPath, fsedit.ErrOutsideRoot)
	}
	return h, nil
}

// Children lists the directory with os.ReadDir. Entries that are neither
// regular files nor directories are skipped. A directory reached through a
// symlink to one of its own ancestors fails to enumerate, so the walk
// shows it empty instead of looping.
func (p *OSProvider) Children(ctx context.Context, dir *fsedit.Capability) iter.Seq2[fsedit.Child, error] {
	h, err := p.handle(dir, fsedit.KindDirectory)
	if err != nil {
		return fsedit.EnumerationError(fmt.Errorf("enumerate: %w: %w", fsedit.ErrEnumerationFailed, err))
	}
	if slices.Contains(h.branch, h.resolved) {
		return fsedit.EnumerationError(fmt.Errorf("%s links back to %s: %w", h.absPath, h.resolved, fsedit.ErrEnumerationFailed))
	}
	branch := append(slices.Clip(h.branch), h.resolved)

	return func(yield func(fsedit.Child, error) bool) {
		entries, err := os.ReadDir(h.absPath)
		if err != nil {
			yield(fsedit.Child{}, fmt.Errorf("failed to read directory %s: %w: %w", h.absPath, fsedit.ErrEnumerationFailed, err))
			return
		}

		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				yield(fsedit.Child{}, err)
				return
			}

			childPath := filepath.Join(h.absPath, entry.Name())
			kind, resolved, ok := p.kindOf(h.root, childPath, entry)
			if !ok {
				continue
			}
			ch := osHandle{root: h.root, absPath: childPath}
			if kind == fsedit.KindDirectory {
				if resolved == "" {
					resolved = filepath.Join(h.resolved, entry.Name())
				}
				ch.resolved, ch.branch = resolved, branch
			}
			child := fsedit.Child{
				Name:       entry.Name(),
				Kind:       kind,
				Capability: fsedit.NewCapability(kind, entry.Name(), ch),
			}
			if !yield(child, nil) {
				return
			}
		}
	}
}

// kindOf classifies a directory entry, resolving symlinks that stay inside root.
// For a symlink it also returns the resolved target.
func (p *OSProvider) kindOf(root, childPath string, entry fs.DirEntry) (fsedit.Kind, string, bool) {
	mode := entry.Type()
	var target string
	if mode&fs.ModeSymlink != 0 {
		var err error
		target, err = filepath.EvalSymlinks(childPath)
		if err != nil || !within(root, target) {
			return 0, "", false
		}
		info, err := os.Stat(target)
		if err != nil {
			return 0, "", false
		}
		mode = info.Mode().Type()
	}

	switch {
	case mode.IsDir():
		return fsedit.KindDirectory, target, true
	case mode.IsRegular():
		return fsedit.KindFile, "", true
	default:
		return 0, "", false
	}
}

// ReadText reads the whole file. Content that is not valid UTF-8 is refused.
func (p *OSProvider) ReadText(ctx context.Context, file *fsedit.Capability) (string, error) {
	h, err := p.handle(file, fsedit.KindFile)
	if err != nil {
		return "", fmt.Errorf("read: %w: %w", fsedit.ErrReadFailed, err)
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("read %s: %w: %w", h.absPath, fsedit.ErrReadFailed, err)
	}

	data, err := os.ReadFile(h.absPath)
	if err != nil {
		return "", fmt.Errorf("read %s: %w: %w", h.absPath, fsedit.ErrReadFailed, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("read %s: not UTF-8 text: %w", h.absPath, fsedit.ErrReadFailed)
	}
	return string(data), nil
}

// WriteText replaces the file through a temp file in the same directory
// followed by a rename, so the original is untouched unless the commit succeeds.
func (p *OSProvider) WriteText(ctx context.Context, file *fsedit.Capability, content string) error {
	h, err := p.handle(file, fsedit.KindFile)
	if err != nil {
		return fmt.Errorf("write: %w: %w", fsedit.ErrWriteFailed, err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("write %s: %w: %w", h.absPath, fsedit.ErrWriteFailed, err)
	}

	target, err := filepath.EvalSymlinks(h.absPath)
	if err != nil {
		return fmt.Errorf("write %s: %w: %w", h.absPath, fsedit.ErrWriteFailed, err)
	}
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("write %s: %w: %w", h.absPath, fsedit.ErrWriteFailed, err)
	}

	if err := writeAtomic(target, content, info.Mode().Perm()); err != nil {
		return fmt.Errorf("write %s: %w: %w", h.absPath, fsedit.ErrWriteFailed, err)
	}
	return nil
}

func writeAtomic(target, content string, perm fs.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), ".fsedit-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp: %w", err)
	}
	return nil
}

// DisplayName returns the base name of the entry.
func (p *OSProvider) DisplayName(c *fsedit.Capability) string { return c.Name() }

// Kind returns the kind the capability was issued for.
func (p *OSProvider) Kind(c *fsedit.Capability) fsedit.Kind { return c.Kind() }
