package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	goGit "github.com/go-git/go-git/v5"
)

// StagedLister narrows the scan to files staged in the enclosing git
// repository's index. This is the natural pre-commit refinement of the full
// walk: only what is about to be committed gets sent to the model.
type StagedLister struct {
	repoDir string
}

// NewStagedLister creates a lister rooted at the given repository directory.
// The repository is discovered upward from repoDir the way git itself does.
func NewStagedLister(repoDir string) *StagedLister {
	return &StagedLister{repoDir: repoDir}
}

// List returns the staged regular files located under dir, in lexical order.
// Staged deletions have no file on disk and are skipped. Not being inside a
// repository is an error: asking for staged files outside git is a
// misconfiguration, not an empty result.
func (l *StagedLister) List(dir string) ([]string, error) {
	repo, err := goGit.PlainOpenWithOptions(l.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repo at %s: %w", l.repoDir, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("resolve worktree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("read worktree status: %w", err)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	root := worktree.Filesystem.Root()

	var files []string
	for rel, st := range status {
		if st.Staging == goGit.Unmodified || st.Staging == goGit.Untracked || st.Staging == goGit.Deleted {
			continue
		}

		path := filepath.Join(root, filepath.FromSlash(rel))
		if !underDir(absDir, path) {
			continue
		}

		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, path)
	}

	sort.Strings(files)
	return files, nil
}

// underDir reports whether path sits inside dir.
func underDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
