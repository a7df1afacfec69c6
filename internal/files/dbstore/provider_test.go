package dbstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/fsedit/internal/files/filesystem"
	"github.com/vvka-141/fsedit/pkg/fsedit"
)

func TestValidateTableName(t *testing.T) {
	for _, name := range []string{"fsedit_entries", "Docs", "_t1"} {
		assert.NoError(t, ValidateTableName(name), name)
	}
	for _, name := range []string{"", "1abc", "a-b", "a;drop table x", "schema.table", string(make([]byte, 64))} {
		assert.ErrorIs(t, ValidateTableName(name), fsedit.ErrInvalidConfig, name)
	}
}

func TestNew_RejectsInvalidTable(t *testing.T) {
	p, err := New(nil, "bad name")
	assert.Nil(t, p)
	assert.ErrorIs(t, err, fsedit.ErrInvalidConfig)
}

func TestPathHelpers(t *testing.T) {
	assert.Equal(t, "", parentOf("a.md"))
	assert.Equal(t, "docs", parentOf("docs/a.md"))
	assert.Equal(t, "docs/deep", parentOf("docs/deep/a.md"))

	assert.Equal(t, "docs/a.md", cleanPath("/docs//a.md"))
	assert.Equal(t, "a.md", cleanPath("./x/../a.md"))
	assert.Equal(t, "", cleanPath("/"))
}

func TestPickDirectory(t *testing.T) {
	p, err := New(nil, "notes")
	require.NoError(t, err)

	root, err := p.PickDirectory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "notes", root.Name())
	assert.True(t, root.IsDir())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.PickDirectory(ctx)
	assert.ErrorIs(t, err, fsedit.ErrPickerCancelled)
}

// Foreign capabilities are rejected before any query runs, so a nil DB is safe.
func TestRejectsForeignCapabilities(t *testing.T) {
	p, err := New(nil, "notes")
	require.NoError(t, err)
	other, err := New(nil, "notes")
	require.NoError(t, err)

	root, err := other.PickDirectory(context.Background())
	require.NoError(t, err)
	for _, err := range p.Children(context.Background(), root) {
		assert.ErrorIs(t, err, fsedit.ErrEnumerationFailed)
		assert.ErrorIs(t, err, fsedit.ErrKindMismatch)
	}

	mem := filesystem.NewMemoryProvider("/")
	mem.AddFile("a.md", "a")
	file, err := mem.Capability("a.md")
	require.NoError(t, err)

	_, err = p.ReadText(context.Background(), file)
	assert.ErrorIs(t, err, fsedit.ErrReadFailed)
	assert.ErrorIs(t, err, fsedit.ErrKindMismatch)
	assert.ErrorIs(t, p.WriteText(context.Background(), file, "x"), fsedit.ErrKindMismatch)

	ownRoot, err := p.PickDirectory(context.Background())
	require.NoError(t, err)
	_, err = p.ReadText(context.Background(), ownRoot)
	assert.ErrorIs(t, err, fsedit.ErrKindMismatch, "a directory capability cannot be read")
}
