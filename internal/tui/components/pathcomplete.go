package components

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ReadDirFunc lists a directory the way os.ReadDir does.
type ReadDirFunc func(dir string) ([]fs.DirEntry, error)

// PathCompleter provides tab-completion and cycling for filesystem paths.
// It tracks state across Tab presses to cycle through matches.
//
//	completer := NewPathCompleter(true) // dirs only
//
//	// On Tab press:
//	input.SetValue(completer.Next(input.Value()))
//
//	// On any other keypress:
//	completer.Reset()
type PathCompleter struct {
	readDir    ReadDirFunc
	dirsOnly   bool
	matches    []match
	cycleIndex int
	lastParent string
}

type match struct {
	name string
	dir  bool
}

// NewPathCompleter creates a completer over the local filesystem.
// If dirsOnly is true, only directories are matched.
func NewPathCompleter(dirsOnly bool) *PathCompleter {
	return &PathCompleter{readDir: os.ReadDir, dirsOnly: dirsOnly}
}

// WithReadDir replaces the directory lister.
func (c *PathCompleter) WithReadDir(fn ReadDirFunc) *PathCompleter {
	c.readDir = fn
	c.Reset()
	return c
}

// Next returns the next completion for input.
// The first call for a parent directory extends input to the longest common
// prefix of the matches, or to the first match. Later calls with the same
// parent cycle through the matches.
func (c *PathCompleter) Next(input string) string {
	parent, prefix := splitPath(input)

	if parent != c.lastParent || c.matches == nil {
		c.matches = c.findMatches(parent, prefix)
		c.cycleIndex = 0
		c.lastParent = parent

		if len(c.matches) == 0 {
			return input
		}
		if len(c.matches) > 1 {
			names := make([]string, len(c.matches))
			for i, m := range c.matches {
				names[i] = m.name
			}
			candidate := filepath.Join(parent, longestCommonPrefix(names))
			if len(candidate) > len(input) {
				return candidate
			}
		}
		return c.format(parent, c.matches[0])
	}

	if len(c.matches) == 0 {
		return input
	}
	c.cycleIndex = (c.cycleIndex + 1) % len(c.matches)
	return c.format(parent, c.matches[c.cycleIndex])
}

// Matches returns the names found by the last Next call.
func (c *PathCompleter) Matches() []string {
	out := make([]string, len(c.matches))
	for i, m := range c.matches {
		out[i] = m.name
	}
	return out
}

// Reset clears the cycle state. Call this when the user types a non-Tab key.
func (c *PathCompleter) Reset() {
	c.matches = nil
	c.cycleIndex = 0
	c.lastParent = ""
}

func (c *PathCompleter) findMatches(parent, prefix string) []match {
	entries, err := c.readDir(parent)
	if err != nil {
		return nil
	}

	var matches []match
	lowPrefix := strings.ToLower(prefix)
	for _, entry := range entries {
		isDir := entry.IsDir()
		if entry.Type()&fs.ModeSymlink != 0 {
			if info, err := os.Stat(filepath.Join(parent, entry.Name())); err == nil {
				isDir = info.IsDir()
			}
		}
		if c.dirsOnly && !isDir {
			continue
		}
		if strings.HasPrefix(strings.ToLower(entry.Name()), lowPrefix) {
			matches = append(matches, match{name: entry.Name(), dir: isDir})
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].name < matches[j].name })
	return matches
}

func (c *PathCompleter) format(parent string, m match) string {
	result := filepath.Join(parent, m.name)
	if m.dir {
		result += string(filepath.Separator)
	}
	return result
}

// splitPath splits an input into parent directory and name prefix.
//
//	"./src/com" → ("src", "com")
//	"./src/"    → ("./src", "")
//	"my"        → (".", "my")
//	""          → (".", "")
//	"/"         → ("/", "")
func splitPath(input string) (parent, prefix string) {
	if input == "" || input == "." {
		return ".", ""
	}
	if strings.HasSuffix(input, string(filepath.Separator)) || strings.HasSuffix(input, "/") {
		trimmed := strings.TrimRight(input, `/\`)
		if trimmed == "" {
			return string(filepath.Separator), ""
		}
		return trimmed, ""
	}
	return filepath.Dir(input), filepath.Base(input)
}

// longestCommonPrefix finds the longest common prefix among strs (case-insensitive).
func longestCommonPrefix(strs []string) string {
	if len(strs) == 0 {
		return ""
	}
	first := strings.ToLower(strs[0])
	for i := 0; i < len(first); i++ {
		for _, s := range strs[1:] {
			if i >= len(s) || strings.ToLower(s[i:i+1]) != first[i:i+1] {
				return strs[0][:i]
			}
		}
	}
	return strs[0]
}
