package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeRepoMap(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "map.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadRepoMapBasic(t *testing.T) {
	dir := t.TempDir()
	path := writeRepoMap(t, dir, `[
		{"path": "internal/a.go", "language": "go", "symbols": ["Foo", "Bar"], "content": "package a"},
		{"path": "internal/b.go"}
	]`)

	sourceKey, records, err := LoadRepoMap(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(sourceKey, "repo-map:") {
		t.Fatalf("source key = %q", sourceKey)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Content != "internal/a.go [go] Foo Bar\npackage a" {
		t.Fatalf("got %q", records[0].Content)
	}
	if records[1].Content != "internal/b.go [unknown] " {
		t.Fatalf("got %q", records[1].Content)
	}
}

func TestLoadRepoMapRejectsNonArray(t *testing.T) {
	dir := t.TempDir()
	path := writeRepoMap(t, dir, `{"path": "x"}`)
	if _, _, err := LoadRepoMap(path); err == nil {
		t.Fatal("expected an error for non-array JSON")
	}
}

func TestLoadRepoMapRejectsMissingPath(t *testing.T) {
	dir := t.TempDir()
	path := writeRepoMap(t, dir, `[{"language": "go"}]`)
	if _, _, err := LoadRepoMap(path); err == nil {
		t.Fatal("expected an error for an entry missing path")
	}
}

func TestLoadRepoMapMissingFile(t *testing.T) {
	if _, _, err := LoadRepoMap("/nonexistent/map.json"); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
