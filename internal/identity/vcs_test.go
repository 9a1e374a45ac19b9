package identity

import (
	"os/exec"
	"path/filepath"
	"testing"
)

func requireGit(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func TestProjectRootSharedAcrossLinkedWorktree(t *testing.T) {
	requireGit(t)

	main := t.TempDir()
	run := func(dir string, args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	run(main, "init", "-q")
	run(main, "config", "user.email", "test@example.com")
	run(main, "config", "user.name", "test")
	run(main, "commit", "--allow-empty", "-q", "-m", "init")

	worktree := filepath.Join(t.TempDir(), "linked")
	run(main, "worktree", "add", "-q", worktree, "-b", "feature")

	mainRoot := ProjectRoot(main)
	worktreeRoot := ProjectRoot(worktree)

	if mainRoot != worktreeRoot {
		t.Fatalf("main root %q != worktree root %q, want equal (spec S7)", mainRoot, worktreeRoot)
	}
}
