package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestChunkMarkdownRespectsMaxChars(t *testing.T) {
	var lines []string
	for i := 0; i < 50; i++ {
		lines = append(lines, strings.Repeat("word ", 10))
	}
	text := strings.Join(lines, "\n")

	chunks := ChunkMarkdown(text, ChunkOptions{ChunkTokens: 10, OverlapTokens: 2})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if len(c.Text) > 40+50 { // generous slack for one line crossing the boundary
			t.Errorf("chunk exceeds budget: %d chars", len(c.Text))
		}
	}
}

func TestChunkMarkdownLineRanges(t *testing.T) {
	text := "line1\nline2\nline3"
	chunks := ChunkMarkdown(text, ChunkOptions{ChunkTokens: 400, OverlapTokens: 0})
	if len(chunks) != 1 {
		t.Fatalf("expected a single chunk, got %d", len(chunks))
	}
	if chunks[0].StartLine != 1 || chunks[0].EndLine != 3 {
		t.Fatalf("got range %d-%d, want 1-3", chunks[0].StartLine, chunks[0].EndLine)
	}
}

func TestChunkMarkdownDiscardsWhitespaceOnly(t *testing.T) {
	chunks := ChunkMarkdown("   \n\t\n  ", ChunkOptions{})
	if len(chunks) != 0 {
		t.Fatalf("expected whitespace-only input to produce no chunks, got %d", len(chunks))
	}
}

func TestChunkMarkdownSplitsOverlongLine(t *testing.T) {
	text := strings.Repeat("x", 100)
	chunks := ChunkMarkdown(text, ChunkOptions{ChunkTokens: 10, OverlapTokens: 0}) // maxChars=40
	if len(chunks) < 2 {
		t.Fatalf("expected the overlong line to split across chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if c.StartLine != 1 || c.EndLine != 1 {
			t.Errorf("split segments of one source line should keep line 1, got %d-%d", c.StartLine, c.EndLine)
		}
	}
}

func TestChunkMarkdownCarriesOverlap(t *testing.T) {
	lines := make([]string, 0)
	for i := 0; i < 10; i++ {
		lines = append(lines, strings.Repeat("a", 20))
	}
	text := strings.Join(lines, "\n")
	chunks := ChunkMarkdown(text, ChunkOptions{ChunkTokens: 10, OverlapTokens: 5}) // maxChars=40, overlapChars=20
	if len(chunks) < 2 {
		t.Fatal("expected multiple chunks to exercise overlap")
	}
	// The tail of chunk i should reappear at the head of chunk i+1.
	tailOfFirst := chunks[0].Text[len(chunks[0].Text)-20:]
	if !strings.HasPrefix(chunks[1].Text, tailOfFirst) {
		t.Errorf("expected chunk 1 to start with the overlap tail of chunk 0")
	}
}

func TestWalkMarkdownSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	if err := os.WriteFile(path, []byte("# hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	files, err := WalkMarkdown(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].Content != "# hello" {
		t.Fatalf("got %+v", files)
	}
}

func TestWalkMarkdownRejectsUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := WalkMarkdown(path); err == nil {
		t.Fatal("expected an error for an unsupported extension")
	}
}

func TestWalkMarkdownDirectorySortedAscending(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.md", "a.md", "c.markdown"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	files, err := WalkMarkdown(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Fatalf("got %d files, want 3", len(files))
	}
	for i := 1; i < len(files); i++ {
		if filepath.Base(files[i-1].SourceKey) > filepath.Base(files[i].SourceKey) {
			t.Fatalf("files not sorted ascending: %v", files)
		}
	}
}

func TestWalkMarkdownMissingPath(t *testing.T) {
	if _, err := WalkMarkdown("/nonexistent/path/does/not/exist.md"); err == nil {
		t.Fatal("expected an error for a missing path")
	}
}
