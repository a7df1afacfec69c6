package dbstore

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
)

// EnsureSchema creates the entries table and its parent index if missing.
func (p *Provider) EnsureSchema(ctx context.Context) error {
	index := pgx.Identifier{p.table + "_parent_idx"}.Sanitize()
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
	path       text PRIMARY KEY,
	parent     text NOT NULL,
	name       text NOT NULL,
	is_dir     boolean NOT NULL,
	content    text,
	updated_at timestamptz NOT NULL DEFAULT now(),
	CHECK (is_dir OR content IS NOT NULL)
);
CREATE INDEX IF NOT EXISTS %[2]s ON %[1]s (parent, name);`, p.ident, index)

	if _, err := p.db.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", p.table, err)
	}
	return nil
}

// Entry is one row for Seed.
type Entry struct {
	Path    string
	IsDir   bool
	Content string
}

// Insert upserts entries in one batch. Missing parent directories are added.
func (p *Provider) Insert(ctx context.Context, entries []Entry) error {
	rows := map[string]Entry{}
	var order []string
	add := func(e Entry) {
		if _, ok := rows[e.Path]; !ok {
			order = append(order, e.Path)
		}
		rows[e.Path] = e
	}
	for _, e := range entries {
		e.Path = cleanPath(e.Path)
		if e.Path == "" {
			continue
		}
		for dir := parentOf(e.Path); dir != ""; dir = parentOf(dir) {
			if _, ok := rows[dir]; !ok {
				add(Entry{Path: dir, IsDir: true})
			}
		}
		add(e)
	}
	if len(order) == 0 {
		return nil
	}

	upsert := `INSERT INTO ` + p.ident + ` (path, parent, name, is_dir, content)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (path) DO UPDATE
SET is_dir = EXCLUDED.is_dir, content = EXCLUDED.content, updated_at = now()`

	batch := &pgx.Batch{}
	for _, rel := range order {
		e := rows[rel]
		var content *string
		if !e.IsDir {
			c := e.Content
			content = &c
		}
		batch.Queue(upsert, rel, parentOf(rel), path.Base(rel), e.IsDir, content)
	}

	results := p.db.SendBatch(ctx, batch)
	for _, rel := range order {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert %s: %w", rel, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to complete batch insert: %w", err)
	}
	return nil
}

// Seed copies every directory and UTF-8 file of fsys into the table.
// Files that are not valid UTF-8 are skipped.
func (p *Provider) Seed(ctx context.Context, fsys fs.FS) (int, error) {
	var entries []Entry
	err := fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if name == "." {
			return nil
		}
		if d.IsDir() {
			entries = append(entries, Entry{Path: name, IsDir: true})
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		if !utf8.Valid(data) {
			p.logger.Verbose("Skipping %s: not UTF-8 text", name)
			return nil
		}
		entries = append(entries, Entry{Path: name, Content: string(data)})
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seed from fs: %w", err)
	}
	if err := p.Insert(ctx, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}
