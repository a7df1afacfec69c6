package filesystem

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
)

//go:embed all:demo
var demoFS embed.FS

// DemoRoot is the virtual root of the demo workspace.
const DemoRoot = "/demo"

// NewDemoProvider returns a memory provider seeded with the embedded demo workspace.
func NewDemoProvider() (*MemoryProvider, error) {
	p := NewMemoryProvider(DemoRoot)
	if err := p.LoadFS(demoFS, "demo"); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadFS copies the tree under dir of fsys into the provider root.
// Any fs.FS works: embed.FS for the demo, fstest.MapFS in tests, os.DirFS for fixtures.
func (p *MemoryProvider) LoadFS(fsys fs.FS, dir string) error {
	dir = path.Clean(dir)
	return fs.WalkDir(fsys, dir, func(filePath string, entry fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", filePath, err)
		}
		if filePath == dir {
			return nil
		}

		rel := filePath
		if dir != "." {
			rel = filePath[len(dir)+1:]
		}

		if entry.IsDir() {
			p.AddDir(rel)
			return nil
		}

		content, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			return fmt.Errorf("read %s: %w", filePath, err)
		}
		p.AddFile(rel, string(content))
		return nil
	})
}
