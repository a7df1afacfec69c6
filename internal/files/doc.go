// Package files groups the fsedit.Provider implementations, one sub-package per backend:
//   - filesystem: local directories (OS) and in-memory trees, including the demo workspace
//   - objectstore: objects below an S3 bucket prefix
//   - dbstore: rows of a PostgreSQL table
//
// # Usage
//
//	import (
//	    "github.com/vvka-141/fsedit/internal/files/filesystem"
//	    "github.com/vvka-141/fsedit/internal/traversal"
//	)
//
//	provider := filesystem.NewOSProvider(filesystem.StaticPicker("./notes"))
//	root, err := provider.PickDirectory(ctx)
//	entries, err := traversal.New(provider, store.New()).Refresh(ctx, root)
//
// # Organization
//
// Every provider issues capabilities tagged with its own handle type and
// rejects capabilities issued by another provider with fsedit.ErrKindMismatch.
// Writes are all-or-nothing: a temp file and rename on disk, a single PUT for
// objects, a transaction for rows.
package files
