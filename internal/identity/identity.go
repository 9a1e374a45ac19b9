// Package identity derives the per-project container identifier and
// normalises named-container labels. Display attributes (project
// name, repo URL, user name/email) are best-effort provenance lookups;
// their absence never fails an operation.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// ProjectContainerTag returns the "project:<H>" tag for the given
// working directory, where H is the first 16 hex chars of SHA-256 over
// the VCS worktree-common directory if discoverable, else over the
// working directory itself. Worktrees of the same repository therefore
// share one tag.
func ProjectContainerTag(workdir string) string {
	identitySource := workdir
	if common, ok := CommonDir(workdir); ok {
		identitySource = common
	}
	sum := sha256.Sum256([]byte(identitySource))
	return "project:" + hex.EncodeToString(sum[:])[:16]
}

var nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases x, collapses any run of non [a-z0-9] characters
// to a single '-', and trims outer '-'. It is idempotent:
// Slugify(Slugify(x)) == Slugify(x) whenever x slugifies non-empty.
func Slugify(x string) string {
	lower := strings.ToLower(x)
	collapsed := nonSlugRun.ReplaceAllString(lower, "-")
	return strings.Trim(collapsed, "-")
}

// NamedContainerTag returns the "container:<slug>" tag for a
// user-supplied container name. A name whose slug is empty is rejected
// with an error.
func NamedContainerTag(name string) (string, error) {
	slug := Slugify(name)
	if slug == "" {
		return "", fmt.Errorf("identity: container name %q slugifies to empty", name)
	}
	return "container:" + slug, nil
}

// ProjectRoot returns the parent of the VCS common directory if
// discoverable, otherwise the given working directory.
func ProjectRoot(workdir string) string {
	if common, ok := CommonDir(workdir); ok {
		return commonDirProjectRoot(common)
	}
	return workdir
}

// Provenance is the best-effort set of attributes recorded on inserted
// records. Every field is optional and absence is non-fatal.
type Provenance struct {
	ProjectName string
	ProjectPath string
	GitRepoURL  string
	UserName    string
	UserEmail   string
}

// CaptureProvenance gathers best-effort provenance for workdir. Any
// lookup that fails leaves the corresponding field empty.
func CaptureProvenance(workdir string) Provenance {
	root := ProjectRoot(workdir)
	p := Provenance{
		ProjectPath: root,
		ProjectName: baseName(root),
	}
	p.GitRepoURL = gitOutput(workdir, "config", "--get", "remote.origin.url")
	p.UserName = gitOutput(workdir, "config", "user.name")
	p.UserEmail = gitOutput(workdir, "config", "user.email")
	return p
}

func baseName(path string) string {
	path = strings.TrimRight(path, "/")
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

func currentWorkdir() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}
