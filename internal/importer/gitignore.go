package importer

import (
	"os"
	"path/filepath"

	gitignore "github.com/sabhiram/go-gitignore"
)

// ignoreMatcher wraps a gitignore pattern matcher rooted at the
// directory being walked.
type ignoreMatcher struct {
	gi *gitignore.GitIgnore
}

// newIgnoreMatcher loads "<root>/.gitignore". If none is found, or it
// fails to parse, the matcher accepts everything.
func newIgnoreMatcher(root string) *ignoreMatcher {
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return &ignoreMatcher{}
	}
	gi, err := gitignore.CompileIgnoreFile(path)
	if err != nil {
		return &ignoreMatcher{}
	}
	return &ignoreMatcher{gi: gi}
}

// match returns true if relPath (relative to root) should be skipped.
func (m *ignoreMatcher) match(relPath string) bool {
	if m.gi == nil {
		return false
	}
	return m.gi.MatchesPath(relPath)
}
