package fsedit

import (
	"context"
	"iter"
)

// Provider is the capability-based file access layer consumed by the traversal
// engine and the editor session controller.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Provider interface {
	// PickDirectory asks the host for a directory capability.
	// Returns an error wrapping ErrPickerCancelled or ErrPickerDenied when
	// the user backs out or access is refused.
	PickDirectory(ctx context.Context) (*Capability, error)

	// Children lazily enumerates the immediate children of a directory.
	// Every call produces a fresh enumeration. A non-nil error ends the
	// sequence and wraps ErrEnumerationFailed.
	Children(ctx context.Context, dir *Capability) iter.Seq2[Child, error]

	// ReadText returns the whole content of a file as UTF-8 text.
	ReadText(ctx context.Context, file *Capability) (string, error)

	// WriteText atomically replaces the content of a file. A nil return
	// means the new content has been committed; on error the previous
	// content is left unchanged.
	WriteText(ctx context.Context, file *Capability, content string) error

	// DisplayName returns the name to show for the entry.
	DisplayName(c *Capability) string

	// Kind returns the entry kind the capability was issued for.
	Kind(c *Capability) Kind
}

// DirectoryPicker chooses the directory a provider grants access to.
// Local providers delegate PickDirectory to it.
type DirectoryPicker interface {
	PickDirectory(ctx context.Context) (string, error)
}

// DirectoryPickerFunc adapts a function to the DirectoryPicker interface.
type DirectoryPickerFunc func(ctx context.Context) (string, error)

// PickDirectory calls f(ctx).
func (f DirectoryPickerFunc) PickDirectory(ctx context.Context) (string, error) {
	return f(ctx)
}

// EnumerationError returns a sequence that yields only err.
// Providers use it when a directory cannot be opened at all.
func EnumerationError(err error) iter.Seq2[Child, error] {
	return func(yield func(Child, error) bool) {
		yield(Child{}, err)
	}
}
