package importer

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIgnoreMatcherNoGitignore(t *testing.T) {
	m := newIgnoreMatcher("/tmp/memo-nonexistent-dir")
	if m.match("anything.md") {
		t.Error("expected no-op matcher to accept all files")
	}
}

func TestIgnoreMatcherWithGitignore(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("drafts/\nCHANGELOG.md\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := newIgnoreMatcher(dir)
	if !m.match("drafts/scratch.md") {
		t.Error("expected drafts/ to be ignored")
	}
	if !m.match("CHANGELOG.md") {
		t.Error("expected CHANGELOG.md to be ignored")
	}
	if m.match("README.md") {
		t.Error("expected README.md to NOT be ignored")
	}
}

func TestWalkMarkdownSkipsGitignoredFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("draft.md\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "draft.md"), []byte("# draft"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "keep.md"), []byte("# keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	files, err := WalkMarkdown(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("got %d files, want 1 (draft.md should be gitignored)", len(files))
	}
	if filepath.Base(files[0].SourceKey) != "keep.md" {
		t.Fatalf("got %q, want keep.md", files[0].SourceKey)
	}
}
