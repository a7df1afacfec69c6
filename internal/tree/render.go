package tree

import (
	"fmt"
	"io"
	"path"
)

// Render writes the tree as indented text. Directory names end with a slash.
func Render(w io.Writer, entries []*Entry) error {
	return render(w, "", entries)
}

func render(w io.Writer, indent string, entries []*Entry) error {
	for i, e := range entries {
		branch, next := "├── ", "│   "
		if i == len(entries)-1 {
			branch, next = "└── ", "    "
		}
		name := e.Name
		if e.IsDirectory {
			name += "/"
		}
		if _, err := fmt.Fprintf(w, "%s%s%s\n", indent, branch, name); err != nil {
			return err
		}
		if e.IsDirectory {
			if err := render(w, indent+next, e.Children); err != nil {
				return err
			}
		}
	}
	return nil
}

// View is the serializable form of an entry.
type View struct {
	Name     string `yaml:"name" json:"name"`
	Type     string `yaml:"type" json:"type"`
	Editable bool   `yaml:"editable,omitempty" json:"editable,omitempty"`
	Children []View `yaml:"children,omitempty" json:"children,omitempty"`
}

// Views converts the tree to its serializable form.
func Views(entries []*Entry, exts ExtensionSet) []View {
	out := make([]View, 0, len(entries))
	for _, e := range entries {
		v := View{Name: e.Name, Type: "file", Editable: exts.Editable(e)}
		if e.IsDirectory {
			v.Type = "directory"
			v.Children = Views(e.Children, exts)
		}
		out = append(out, v)
	}
	return out
}

// Row is one visible line of a flattened tree.
type Row struct {
	Entry *Entry
	Path  string
	Depth int
}

// Flatten lists entries in display order, skipping the children of
// directories whose path is in collapsed.
func Flatten(entries []*Entry, collapsed map[string]bool) []Row {
	var rows []Row
	flatten(&rows, "", 0, entries, collapsed)
	return rows
}

func flatten(rows *[]Row, prefix string, depth int, entries []*Entry, collapsed map[string]bool) {
	for _, e := range entries {
		p := path.Join(prefix, e.Name)
		*rows = append(*rows, Row{Entry: e, Path: p, Depth: depth})
		if e.IsDirectory && !collapsed[p] {
			flatten(rows, p, depth+1, e.Children, collapsed)
		}
	}
}
