package tree

import (
	"strings"

	"github.com/vvka-141/fsedit/pkg/fsedit"
)

// ExtensionSet is the case-insensitive suffix allow-list of editable files.
type ExtensionSet struct {
	suffixes []string
}

// NewExtensionSet normalizes the given suffixes (lowercased, leading dot added,
// duplicates dropped). An empty set makes nothing editable.
func NewExtensionSet(exts ...string) ExtensionSet {
	seen := make(map[string]bool, len(exts))
	var suffixes []string
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" || ext == "." {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if seen[ext] {
			continue
		}
		seen[ext] = true
		suffixes = append(suffixes, ext)
	}
	return ExtensionSet{suffixes: suffixes}
}

// DefaultExtensionSet returns the set built from fsedit.DefaultExtensions.
func DefaultExtensionSet() ExtensionSet {
	return NewExtensionSet(fsedit.DefaultExtensions...)
}

// Supports reports whether name ends with one of the suffixes, ignoring case.
func (s ExtensionSet) Supports(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range s.suffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// Editable reports whether e is a file with a supported extension.
func (s ExtensionSet) Editable(e *Entry) bool {
	return e != nil && !e.IsDirectory && s.Supports(e.Name)
}

// List returns the normalized suffixes in configuration order.
func (s ExtensionSet) List() []string {
	out := make([]string, len(s.suffixes))
	copy(out, s.suffixes)
	return out
}

// String joins the suffixes with commas.
func (s ExtensionSet) String() string {
	return strings.Join(s.suffixes, ",")
}
