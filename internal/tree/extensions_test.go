package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtensionSet_Supports(t *testing.T) {
	exts := DefaultExtensionSet()

	tests := []struct {
		name string
		want bool
	}{
		{"b.md", true},
		{"README.MD", true},
		{"main.rs", true},
		{"app.js", true},
		{"package.json", true},
		{"a.txt", false},
		{"image.png", false},
		{"json", false},
		{"archive.md.gz", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exts.Supports(tt.name))
		})
	}
}

func TestNewExtensionSet_Normalizes(t *testing.T) {
	exts := NewExtensionSet("YAML", ".yml", " .Toml ", "yaml", "", ".")

	assert.Equal(t, []string{".yaml", ".yml", ".toml"}, exts.List())
	assert.True(t, exts.Supports("config.TOML"))
	assert.Equal(t, ".yaml,.yml,.toml", exts.String())
}

func TestExtensionSet_EmptyAllowsNothing(t *testing.T) {
	exts := NewExtensionSet()
	assert.False(t, exts.Supports("b.md"))
}

func TestExtensionSet_Editable(t *testing.T) {
	exts := DefaultExtensionSet()

	assert.True(t, exts.Editable(NewFile("b.md", nil)))
	assert.False(t, exts.Editable(NewFile("a.txt", nil)))
	assert.False(t, exts.Editable(NewDirectory("docs.md", nil, nil)), "directories are never editable")
	assert.False(t, exts.Editable(nil))
}
