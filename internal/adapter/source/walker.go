package source

import (
	"fmt"
	"io/fs"
	"path/filepath"
)

// DirLister enumerates every regular file under a directory, recursively.
// filepath.WalkDir visits entries in lexical order, which gives the stable
// traversal the gate needs for reproducible output.
type DirLister struct{}

// NewDirLister creates the default full-walk file lister.
func NewDirLister() *DirLister {
	return &DirLister{}
}

// List returns the regular files under dir.
func (l *DirLister) List(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return files, nil
}
