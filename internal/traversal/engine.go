// Package traversal builds the directory tree snapshot from a provider.
package traversal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/vvka-141/fsedit/internal/logging"
	"github.com/vvka-141/fsedit/internal/store"
	"github.com/vvka-141/fsedit/internal/tree"
	"github.com/vvka-141/fsedit/pkg/fsedit"
)

// Stats summarizes one refresh.
type Stats struct {
	Directories int
	Files       int
	// Degraded counts directories whose subtree failed and was left empty.
	Degraded int
	// Skipped counts children rejected by validation.
	Skipped  int
	Duration time.Duration
}

// Engine refreshes the tree snapshot held by a store.
// Safe for concurrent use; overlapping refreshes are resolved by the store,
// the most recently started one wins.
type Engine struct {
	provider    fsedit.Provider
	store       *store.Store
	logger      fsedit.Logger
	maxDepth    int
	concurrency int

	mu    sync.Mutex
	stats Stats
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxDepth limits how many directory levels below the root are enumerated.
// Deeper directories are kept with no children.
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.maxDepth = n
		}
	}
}

// WithConcurrency bounds the number of sibling subtrees traversed in parallel.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithLogger sets the diagnostics channel.
func WithLogger(l fsedit.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an engine reading from provider and publishing into s.
func New(provider fsedit.Provider, s *store.Store, opts ...Option) *Engine {
	e := &Engine{
		provider:    provider,
		store:       s,
		logger:      logging.NewNullLogger(),
		maxDepth:    fsedit.DefaultMaxDepth,
		concurrency: fsedit.DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LastStats returns the statistics of the most recently completed refresh.
func (e *Engine) LastStats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// Refresh enumerates the whole tree under root and publishes it as one
// atomic replacement of the snapshot.
//
// A failure below the root leaves that directory with no children. A failure
// to enumerate the root itself, or a cancelled ctx, returns an error and leaves
// the previous snapshot in place and does not supersede older refreshes. If a
// newer refresh published or is still running, the built entries are returned
// together with fsedit.ErrSuperseded.
func (e *Engine) Refresh(ctx context.Context, root *fsedit.Capability) ([]*tree.Entry, error) {
	if err := fsedit.RequireKind(root, fsedit.KindDirectory); err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	ticket := e.store.BeginRefresh()
	start := time.Now()
	w := &walker{
		engine: e,
		sem:    semaphore.NewWeighted(int64(e.concurrency)),
	}

	entries, err := w.list(ctx, root, 0)
	if err != nil {
		e.store.AbandonRefresh(ticket)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("refresh %s cancelled: %w", root.Name(), ctxErr)
		}
		e.logger.Error("Failed to enumerate %s: %v", root.Name(), err)
		return nil, fmt.Errorf("refresh %s: %w", root.Name(), err)
	}

	stats := w.stats(time.Since(start))
	e.mu.Lock()
	e.stats = stats
	e.mu.Unlock()

	updated, err := e.store.PublishTree(ticket, root, entries)
	if err != nil {
		e.logger.Verbose("Discarding refresh of %s: a newer refresh was started", root.Name())
		return entries, err
	}

	e.logger.Verbose("Refreshed %s: %d directories, %d files, %d degraded, %d skipped in %s",
		root.Name(), stats.Directories, stats.Files, stats.Degraded, stats.Skipped, stats.Duration)
	e.logger.Verbose("Last updated: %s", updated.Format(time.RFC3339))
	return entries, nil
}

// walker holds the state of one refresh.
type walker struct {
	engine *Engine
	sem    *semaphore.Weighted

	dirs     atomic.Int64
	files    atomic.Int64
	degraded atomic.Int64
	skipped  atomic.Int64
}

func (w *walker) stats(d time.Duration) Stats {
	return Stats{
		Directories: int(w.dirs.Load()),
		Files:       int(w.files.Load()),
		Degraded:    int(w.degraded.Load()),
		Skipped:     int(w.skipped.Load()),
		Duration:    d,
	}
}

// list returns the sorted children of dir with every subdirectory expanded.
func (w *walker) list(ctx context.Context, dir *fsedit.Capability, depth int) ([]*tree.Entry, error) {
	if depth > w.engine.maxDepth {
		return nil, fmt.Errorf("%s: %w: %w", dir.Name(), fsedit.ErrEnumerationFailed, fsedit.ErrDepthExceeded)
	}

	var (
		entries []*tree.Entry
		subdirs []*tree.Entry
		seen    = make(map[string]struct{})
	)
	for child, err := range w.engine.provider.Children(ctx, dir) {
		if err != nil {
			if !errors.Is(err, fsedit.ErrEnumerationFailed) {
				err = fmt.Errorf("%w: %w", fsedit.ErrEnumerationFailed, err)
			}
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if reason := invalid(child, seen); reason != "" {
			w.skipped.Add(1)
			w.engine.logger.Verbose("Skipping entry %q in %s: %s", child.Name, dir.Name(), reason)
			continue
		}
		seen[child.Name] = struct{}{}

		if child.Kind == fsedit.KindFile {
			w.files.Add(1)
			entries = append(entries, tree.NewFile(child.Name, child.Capability))
			continue
		}
		w.dirs.Add(1)
		sub := tree.NewDirectory(child.Name, child.Capability, nil)
		entries = append(entries, sub)
		subdirs = append(subdirs, sub)
	}

	if err := w.expand(ctx, subdirs, depth); err != nil {
		return nil, err
	}

	tree.Sort(entries)
	return entries, nil
}

// expand fills in the children of each subdirectory. Subtrees run on their own
// goroutine while a semaphore slot is free and inline otherwise, so nested
// levels never wait on each other. Only cancellation is returned as an error.
func (w *walker) expand(ctx context.Context, subdirs []*tree.Entry, depth int) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, sub := range subdirs {
		run := func() error {
			children, err := w.list(gctx, sub.Capability, depth+1)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				w.degraded.Add(1)
				w.engine.logger.Verbose("Failed to enumerate %s, showing it empty: %v", sub.Name, err)
				return nil
			}
			sub.Children = children
			return nil
		}

		if w.sem.TryAcquire(1) {
			g.Go(func() error {
				defer w.sem.Release(1)
				return run()
			})
			continue
		}
		if err := run(); err != nil {
			g.Wait()
			return err
		}
	}

	return g.Wait()
}

// invalid returns why child cannot be part of the tree, or "" if it can.
func invalid(child fsedit.Child, seen map[string]struct{}) string {
	switch {
	case child.Name == "" || child.Name == "." || child.Name == "..":
		return "invalid name"
	case strings.ContainsRune(child.Name, '/'):
		return "name contains a path separator"
	case !child.Kind.IsValid():
		return fmt.Sprintf("unknown kind %s", child.Kind)
	case child.Capability == nil:
		return "missing capability"
	case child.Capability.Kind() != child.Kind:
		return fmt.Sprintf("declared %s but capability is a %s", child.Kind, child.Capability.Kind())
	}
	if _, dup := seen[child.Name]; dup {
		return "duplicate name"
	}
	return ""
}
