// Package editor drives the single editor session: selecting a file, editing
// its buffer and applying the buffer back through the provider.
package editor

import (
	"context"
	"errors"
	"fmt"

	"github.com/vvka-141/fsedit/internal/logging"
	"github.com/vvka-141/fsedit/internal/store"
	"github.com/vvka-141/fsedit/internal/tree"
	"github.com/vvka-141/fsedit/pkg/fsedit"
)

// Controller is the editor session controller.
// Safe for concurrent use: every state change goes through the store, and
// results of reads or saves for a superseded selection are dropped.
type Controller struct {
	provider fsedit.Provider
	store    *store.Store
	exts     tree.ExtensionSet
	logger   fsedit.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithExtensions replaces the default set of editable suffixes.
func WithExtensions(exts tree.ExtensionSet) Option {
	return func(c *Controller) {
		c.exts = exts
	}
}

// WithLogger sets the diagnostics channel.
func WithLogger(l fsedit.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a controller over provider and s.
func New(provider fsedit.Provider, s *store.Store, opts ...Option) *Controller {
	c := &Controller{
		provider: provider,
		store:    s,
		exts:     tree.DefaultExtensionSet(),
		logger:   logging.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Editable reports whether selecting e would open it.
func (c *Controller) Editable(e *tree.Entry) bool {
	return c.exts.Editable(e)
}

// Extensions returns the set of editable suffixes.
func (c *Controller) Extensions() tree.ExtensionSet {
	return c.exts
}

// Session returns the current session record.
func (c *Controller) Session() store.Session {
	return c.store.Snapshot().Session
}

// CanApply reports whether Apply would write.
func (c *Controller) CanApply() bool {
	return c.store.Snapshot().CanApply
}

// Select opens e for editing. Directories and unsupported files are ignored
// and nil is returned. Any unsaved buffer is discarded without being written.
//
// The read runs on the calling goroutine. If another file is selected before
// it completes, its result is dropped and fsedit.ErrSuperseded is returned.
func (c *Controller) Select(ctx context.Context, e *tree.Entry, path string) error {
	if !c.Editable(e) {
		return nil
	}
	if err := fsedit.RequireKind(e.Capability, fsedit.KindFile); err != nil {
		c.logger.Error("Cannot open %s: %v", path, err)
		return fmt.Errorf("select %s: %w", path, err)
	}

	if prev := c.store.Snapshot().Session; prev.Dirty {
		c.logger.Verbose("Discarding unsaved changes to %s", prev.Path)
	}
	ticket := c.store.Select(e.Capability, path)

	text, err := c.provider.ReadText(ctx, e.Capability)
	if err != nil {
		if stale := c.store.LoadFailed(ticket); stale != nil {
			c.logger.Verbose("Dropping stale read failure of %s: %v", path, err)
			return fmt.Errorf("select %s: %w", path, stale)
		}
		c.logger.Error("Failed to read %s: %v", path, err)
		return fmt.Errorf("select %s: %w", path, err)
	}

	if err := c.store.Loaded(ticket, text); err != nil {
		c.logger.Verbose("Dropping stale read of %s", path)
		return fmt.Errorf("select %s: %w", path, err)
	}
	c.logger.Verbose("Loaded %s (%d bytes)", path, len(text))
	return nil
}

// Edit replaces the buffer. It reports false when no file is loaded.
func (c *Controller) Edit(text string) bool {
	return c.store.Edit(text)
}

// Apply writes the buffer through the provider when the session is dirty and
// does nothing otherwise. On failure the buffer is kept and the session stays
// dirty; calling Apply again retries.
func (c *Controller) Apply(ctx context.Context) error {
	ticket, ok := c.store.BeginSave()
	if !ok {
		return nil
	}
	path := ticket.Path

	if err := c.provider.WriteText(ctx, ticket.Capability, ticket.Content); err != nil {
		if stale := c.store.SaveFailed(ticket); stale != nil {
			c.logger.Verbose("Failed to save %s after it was deselected: %v", path, err)
			return fmt.Errorf("apply %s: %w", path, stale)
		}
		c.logger.Error("Failed to save %s: %v", path, err)
		return fmt.Errorf("apply %s: %w", path, err)
	}

	if err := c.store.Saved(ticket); err != nil {
		// the write is committed even though its session is gone
		c.logger.Verbose("Saved %s after it was deselected", path)
		return nil
	}
	c.logger.Info("File saved successfully")
	return nil
}

// IsSuperseded reports whether err only means a newer selection replaced the
// one the call was working on.
func IsSuperseded(err error) bool {
	return errors.Is(err, fsedit.ErrSuperseded)
}
