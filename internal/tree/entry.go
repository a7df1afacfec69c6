package tree

import (
	"path"
	"slices"
	"strings"

	"github.com/vvka-141/fsedit/pkg/fsedit"
)

// Entry is one node of the in-memory tree snapshot.
// Children is always empty for files. For directories it holds the result
// of exactly one enumeration and is replaced, never patched, on refresh.
type Entry struct {
	Name        string
	IsDirectory bool
	Children    []*Entry
	Capability  *fsedit.Capability
}

// NewFile creates a leaf entry for a file capability.
func NewFile(name string, c *fsedit.Capability) *Entry {
	return &Entry{Name: name, Capability: c}
}

// NewDirectory creates a directory entry. children must already be sorted.
func NewDirectory(name string, c *fsedit.Capability, children []*Entry) *Entry {
	if children == nil {
		children = []*Entry{}
	}
	return &Entry{Name: name, IsDirectory: true, Children: children, Capability: c}
}

// Compare orders directories before files, then by byte-wise name.
func Compare(a, b *Entry) int {
	if a.IsDirectory != b.IsDirectory {
		if a.IsDirectory {
			return -1
		}
		return 1
	}
	return strings.Compare(a.Name, b.Name)
}

// Sort orders entries in place using Compare.
func Sort(entries []*Entry) {
	slices.SortFunc(entries, Compare)
}

// IsSorted reports whether every children sequence in the tree is strictly
// ordered by Compare.
func IsSorted(entries []*Entry) bool {
	for i := 1; i < len(entries); i++ {
		if Compare(entries[i-1], entries[i]) >= 0 {
			return false
		}
	}
	for _, e := range entries {
		if e.IsDirectory && !IsSorted(e.Children) {
			return false
		}
	}
	return true
}

// Equal reports whether two trees have the same shape and names.
// Capability identity is ignored: two refreshes of the same directory are equal.
func Equal(a, b []*Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].IsDirectory != b[i].IsDirectory {
			return false
		}
		if !Equal(a[i].Children, b[i].Children) {
			return false
		}
	}
	return true
}

// WalkFunc is called for each entry with its slash-separated path from the root.
// Returning a non-nil error stops the walk.
type WalkFunc func(p string, e *Entry) error

// Walk visits the tree depth-first in display order.
func Walk(entries []*Entry, fn WalkFunc) error {
	return walk("", entries, fn)
}

func walk(prefix string, entries []*Entry, fn WalkFunc) error {
	for _, e := range entries {
		p := path.Join(prefix, e.Name)
		if err := fn(p, e); err != nil {
			return err
		}
		if e.IsDirectory {
			if err := walk(p, e.Children, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Find returns the entry at the slash-separated path p, or nil.
func Find(entries []*Entry, p string) *Entry {
	p = strings.Trim(path.Clean("/"+p), "/")
	if p == "" {
		return nil
	}
	var found *Entry
	level := entries
	for _, part := range strings.Split(p, "/") {
		found = nil
		for _, e := range level {
			if e.Name == part {
				found = e
				break
			}
		}
		if found == nil {
			return nil
		}
		level = found.Children
	}
	return found
}

// Count returns the number of directories and files in the tree.
func Count(entries []*Entry) (dirs, files int) {
	_ = Walk(entries, func(_ string, e *Entry) error {
		if e.IsDirectory {
			dirs++
		} else {
			files++
		}
		return nil
	})
	return dirs, files
}

// Prune returns a copy of the tree keeping files for which keep returns true
// and directories that still contain something after pruning.
func Prune(entries []*Entry, keep func(*Entry) bool) []*Entry {
	out := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if !e.IsDirectory {
			if keep(e) {
				out = append(out, e)
			}
			continue
		}
		children := Prune(e.Children, keep)
		if len(children) > 0 {
			out = append(out, NewDirectory(e.Name, e.Capability, children))
		}
	}
	return out
}
