package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/vvka-141/fsedit/internal/config"
	"github.com/vvka-141/fsedit/internal/db"
	"github.com/vvka-141/fsedit/internal/files/dbstore"
	"github.com/vvka-141/fsedit/internal/files/filesystem"
	"github.com/vvka-141/fsedit/internal/files/objectstore"
	"github.com/vvka-141/fsedit/internal/tui"
	"github.com/vvka-141/fsedit/pkg/fsedit"
)

// workspace is a provider together with the directory it granted.
type workspace struct {
	backend  fsedit.Backend
	provider fsedit.Provider
	root     *fsedit.Capability
	// open grants another directory of the same provider, nil when the
	// backend has a single fixed root.
	open    tui.OpenFunc
	release func()
}

// Close releases backend connections.
func (w *workspace) Close() {
	if w.release != nil {
		w.release()
	}
}

// Title names the workspace in the browser header.
func (w *workspace) Title() string {
	return string(w.backend)
}

type workspaceOptions struct {
	// target is the positional path: a directory for os and memory, the key
	// prefix for s3, the table for postgres.
	target string
	// picker asks for the os directory when neither target nor the
	// configured root is set.
	picker fsedit.DirectoryPicker
	demo   bool
	logger fsedit.Logger
}

// openWorkspace creates the configured provider and obtains its root capability.
func openWorkspace(ctx context.Context, cfg *config.Config, opts workspaceOptions) (*workspace, error) {
	backend := fsedit.Backend(cfg.Backend)
	if opts.demo {
		backend = fsedit.BackendMemory
	}

	var (
		w   *workspace
		err error
	)
	switch backend {
	case fsedit.BackendOS:
		w, err = openOS(ctx, cfg, opts)
	case fsedit.BackendMemory:
		w, err = openMemory(ctx, opts)
	case fsedit.BackendS3:
		w, err = openS3(ctx, cfg, opts)
	case fsedit.BackendPostgres:
		w, err = openPostgres(ctx, cfg, opts)
	default:
		return nil, fmt.Errorf("backend %q: %w", cfg.Backend, fsedit.ErrUnsupportedBackend)
	}
	if err != nil {
		return nil, err
	}
	w.backend = backend
	opts.logger.Verbose("Opened %s workspace %s", backend, w.root)
	return w, nil
}

func openOS(ctx context.Context, cfg *config.Config, opts workspaceOptions) (*workspace, error) {
	target := opts.target
	if target == "" {
		target = cfg.Root
	}
	picker := opts.picker
	if target != "" || picker == nil {
		picker = filesystem.StaticPicker(target)
	}

	p := filesystem.NewOSProvider(picker)
	root, err := p.PickDirectory(ctx)
	if err != nil {
		return nil, err
	}
	open := func(ctx context.Context, dir string) (*fsedit.Capability, error) {
		return filesystem.Open(dir)
	}
	return &workspace{provider: p, root: root, open: open}, nil
}

// openMemory loads target into memory, or the demo workspace when no target
// is given. Saves never reach the disk.
func openMemory(ctx context.Context, opts workspaceOptions) (*workspace, error) {
	var (
		p   *filesystem.MemoryProvider
		err error
	)
	if opts.demo || opts.target == "" {
		p, err = filesystem.NewDemoProvider()
	} else {
		p = filesystem.NewMemoryProvider(opts.target)
		err = p.LoadFS(os.DirFS(opts.target), ".")
	}
	if err != nil {
		return nil, fmt.Errorf("load workspace: %w: %w", fsedit.ErrPickerDenied, err)
	}

	root, err := p.PickDirectory(ctx)
	if err != nil {
		return nil, err
	}
	return &workspace{provider: p, root: root}, nil
}

func openS3(ctx context.Context, cfg *config.Config, opts workspaceOptions) (*workspace, error) {
	s3cfg := cfg.S3
	if opts.target != "" {
		s3cfg.Prefix = opts.target
	}
	p, err := objectstore.NewFromConfig(ctx, s3cfg, objectstore.WithLogger(opts.logger))
	if err != nil {
		return nil, err
	}
	root, err := p.PickDirectory(ctx)
	if err != nil {
		return nil, err
	}
	return &workspace{provider: p, root: root}, nil
}

func openPostgres(ctx context.Context, cfg *config.Config, opts workspaceOptions) (*workspace, error) {
	connConfig, err := db.FromConfig(cfg.Postgres)
	if err != nil {
		return nil, err
	}
	table := cfg.Postgres.Table
	if opts.target != "" {
		table = opts.target
	}
	if err := dbstore.ValidateTableName(table); err != nil {
		return nil, err
	}

	pool, release, err := db.Open(ctx, connConfig, db.WithLogger(opts.logger))
	if err != nil {
		return nil, err
	}
	p, err := dbstore.New(pool, table, dbstore.WithLogger(opts.logger))
	if err != nil {
		release()
		return nil, err
	}
	if err := p.EnsureSchema(ctx); err != nil {
		release()
		return nil, fmt.Errorf("prepare table: %w: %w", fsedit.ErrConnectionFailed, err)
	}
	root, err := p.PickDirectory(ctx)
	if err != nil {
		release()
		return nil, err
	}
	return &workspace{provider: p, root: root, release: release}, nil
}
