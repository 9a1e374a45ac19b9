package identity

import (
	"os/exec"
	"path/filepath"
	"strings"
)

// CommonDir returns the absolute path of the VCS common directory for
// workdir (shared across all worktrees of one repository), and
// whether one was discoverable. All errors are swallowed: if git is
// not installed or workdir is not a repository, ok is false.
func CommonDir(workdir string) (string, bool) {
	out := gitOutput(workdir, "rev-parse", "--path-format=absolute", "--git-common-dir")
	if out == "" {
		// Older git versions lack --path-format; fall back and resolve manually.
		out = gitOutput(workdir, "rev-parse", "--git-common-dir")
		if out == "" {
			return "", false
		}
		if !filepath.IsAbs(out) {
			out = filepath.Join(workdir, out)
		}
	}
	abs, err := filepath.Abs(out)
	if err != nil {
		return "", false
	}
	return filepath.Clean(abs), true
}

// commonDirProjectRoot derives the project root from a discovered
// common directory: its parent. commonDir is shared across the main
// checkout and every linked worktree ("<root>/.git" in both cases), so
// this resolves to the same project root — and therefore the same
// .memo/memo.db — for all of them.
func commonDirProjectRoot(commonDir string) string {
	return filepath.Dir(commonDir)
}

// gitOutput runs a git command rooted at dir and returns trimmed
// stdout, or "" on any error.
func gitOutput(dir string, args ...string) string {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
