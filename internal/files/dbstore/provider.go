// Package dbstore implements fsedit.Provider over a PostgreSQL table.
//
// Each row is one entry keyed by its slash-separated path relative to the
// root; the root itself has the empty path and no row. Enumeration streams
// the rows whose parent is the directory. A write updates a single row inside
// a transaction, so the previous content survives any failure.
package dbstore

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"path"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/fsedit/internal/logging"
	"github.com/vvka-141/fsedit/internal/retry"
	"github.com/vvka-141/fsedit/pkg/fsedit"
)

// DB is the subset of *pgxpool.Pool the provider uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// ValidateTableName rejects names that are not plain SQL identifiers.
func ValidateTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("table name %q: %w", name, fsedit.ErrInvalidConfig)
	}
	return nil
}

// dbHandle is the capability handle issued by Provider
type dbHandle struct {
	owner *Provider
	path  string
}

// Provider implements fsedit.Provider over one table.
// Safe for concurrent use by multiple goroutines.
type Provider struct {
	db       DB
	table    string
	ident    string
	logger   fsedit.Logger
	strategy fsedit.BackoffStrategy
}

var _ fsedit.Provider = (*Provider)(nil)

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger for retry diagnostics.
func WithLogger(logger fsedit.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithBackoff replaces the retry strategy.
func WithBackoff(strategy fsedit.BackoffStrategy) Option {
	return func(p *Provider) {
		if strategy != nil {
			p.strategy = strategy
		}
	}
}

// New creates a provider over table. The table name must pass ValidateTableName.
func New(db DB, table string, opts ...Option) (*Provider, error) {
	if err := ValidateTableName(table); err != nil {
		return nil, err
	}
	p := &Provider{
		db:       db,
		table:    table,
		ident:    pgx.Identifier{table}.Sanitize(),
		logger:   logging.NewNullLogger(),
		strategy: retry.DefaultBackoff(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Table returns the table name.
func (p *Provider) Table() string { return p.table }

func (p *Provider) executor(what string) *retry.Executor {
	return retry.NewExecutor(retry.NewPostgreSQLErrorClassifier(), p.strategy).WithLogger(p.logger, what)
}

func display(rel string) string {
	if rel == "" {
		return "."
	}
	return rel
}

func (p *Provider) handle(c *fsedit.Capability, kind fsedit.Kind) (string, error) {
	h, err := fsedit.HandleAs[dbHandle](c, kind)
	if err != nil {
		return "", err
	}
	if h.owner != p {
		return "", fmt.Errorf("%s was issued by another table provider: %w", c, fsedit.ErrKindMismatch)
	}
	return h.path, nil
}

func (p *Provider) capability(kind fsedit.Kind, name, rel string) *fsedit.Capability {
	return fsedit.NewCapability(kind, name, dbHandle{owner: p, path: rel})
}

// PickDirectory grants the root of the table.
func (p *Provider) PickDirectory(ctx context.Context) (*fsedit.Capability, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pick directory: %w", fsedit.ErrPickerCancelled)
	}
	return p.capability(fsedit.KindDirectory, p.table, ""), nil
}

// Children streams the rows directly below dir.
func (p *Provider) Children(ctx context.Context, dir *fsedit.Capability) iter.Seq2[fsedit.Child, error] {
	rel, err := p.handle(dir, fsedit.KindDirectory)
	if err != nil {
		return fsedit.EnumerationError(fmt.Errorf("enumerate: %w: %w", fsedit.ErrEnumerationFailed, err))
	}

	return func(yield func(fsedit.Child, error) bool) {
		fail := func(err error) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				yield(fsedit.Child{}, ctxErr)
				return
			}
			yield(fsedit.Child{}, fmt.Errorf("enumerate %s: %w: %w", display(rel), fsedit.ErrEnumerationFailed, err))
		}

		if rel != "" {
			if err := p.requireDirectory(ctx, rel); err != nil {
				fail(err)
				return
			}
		}

		rows, err := retry.Do(ctx, p.executor("list "+display(rel)), func(ctx context.Context) (pgx.Rows, error) {
			return p.db.Query(ctx, `SELECT path, name, is_dir FROM `+p.ident+` WHERE parent = $1 ORDER BY name`, rel)
		})
		if err != nil {
			fail(err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var childPath, name string
			var isDir bool
			if err := rows.Scan(&childPath, &name, &isDir); err != nil {
				fail(err)
				return
			}
			kind := fsedit.KindFile
			if isDir {
				kind = fsedit.KindDirectory
			}
			if err := ctx.Err(); err != nil {
				yield(fsedit.Child{}, err)
				return
			}
			if !yield(fsedit.Child{Name: name, Kind: kind, Capability: p.capability(kind, name, childPath)}, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			fail(err)
		}
	}
}

func (p *Provider) requireDirectory(ctx context.Context, rel string) error {
	var isDir bool
	err := p.db.QueryRow(ctx, `SELECT is_dir FROM `+p.ident+` WHERE path = $1`, rel).Scan(&isDir)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && !isDir) {
		return fsedit.ErrNotFound
	}
	return err
}

// ReadText returns the content of a file row.
func (p *Provider) ReadText(ctx context.Context, file *fsedit.Capability) (string, error) {
	rel, err := p.handle(file, fsedit.KindFile)
	if err != nil {
		return "", fmt.Errorf("read: %w: %w", fsedit.ErrReadFailed, err)
	}

	content, err := retry.Do(ctx, p.executor("read "+rel), func(ctx context.Context) (string, error) {
		var content string
		err := p.db.QueryRow(ctx,
			`SELECT coalesce(content, '') FROM `+p.ident+` WHERE path = $1 AND NOT is_dir`, rel,
		).Scan(&content)
		return content, err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("read %s: %w: %w", rel, fsedit.ErrReadFailed, fsedit.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w: %w", rel, fsedit.ErrReadFailed, err)
	}
	return content, nil
}

// WriteText replaces the content of an existing file row in a transaction.
func (p *Provider) WriteText(ctx context.Context, file *fsedit.Capability, content string) error {
	rel, err := p.handle(file, fsedit.KindFile)
	if err != nil {
		return fmt.Errorf("write: %w: %w", fsedit.ErrWriteFailed, err)
	}

	err = p.executor("write "+rel).Execute(ctx, func(ctx context.Context) error {
		return pgx.BeginFunc(ctx, p.db, func(tx pgx.Tx) error {
			var isDir bool
			err := tx.QueryRow(ctx, `SELECT is_dir FROM `+p.ident+` WHERE path = $1 FOR UPDATE`, rel).Scan(&isDir)
			if errors.Is(err, pgx.ErrNoRows) || (err == nil && isDir) {
				return fsedit.ErrNotFound
			}
			if err != nil {
				return err
			}
			_, err = tx.Exec(ctx, `UPDATE `+p.ident+` SET content = $2, updated_at = now() WHERE path = $1`, rel, content)
			return err
		})
	})
	if err != nil {
		return fmt.Errorf("write %s: %w: %w", rel, fsedit.ErrWriteFailed, err)
	}
	return nil
}

// DisplayName returns the base name of the entry.
func (p *Provider) DisplayName(c *fsedit.Capability) string { return c.Name() }

// Kind returns the kind the capability was issued for.
func (p *Provider) Kind(c *fsedit.Capability) fsedit.Kind { return c.Kind() }

// parentOf returns the parent path of rel; top-level entries have parent "".
func parentOf(rel string) string {
	dir := path.Dir(rel)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

// cleanPath normalizes rel to the stored form: no leading slash, no dots.
func cleanPath(rel string) string {
	return strings.Trim(path.Clean("/"+rel), "/")
}
