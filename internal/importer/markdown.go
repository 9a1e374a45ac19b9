// Package importer turns a filesystem path or a JSON repo-map file
// into a deterministic set of prospective records, each labelled with
// a stable source key for Store's replace-by-source protocol.
package importer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/memoproj/memo/internal/memerr"
)

// Chunk is one prospective markdown chunk, carrying the original
// file's 1-based inclusive line range.
type Chunk struct {
	Text      string
	StartLine int
	EndLine   int
	Hash      string // SHA-256 of Text
}

// ChunkOptions configures the sliding window. Zero values fall back
// to the documented defaults (400/80 tokens -> 1600/320 chars).
type ChunkOptions struct {
	ChunkTokens   int
	OverlapTokens int
}

func (o ChunkOptions) resolve() (maxChars, overlapChars int) {
	chunkTokens := o.ChunkTokens
	if chunkTokens == 0 {
		chunkTokens = 400
	}
	overlapTokens := o.OverlapTokens
	if overlapTokens == 0 {
		overlapTokens = 80
	}
	maxChars = maxInt(32, chunkTokens*4)
	overlapChars = maxInt(0, overlapTokens*4)
	return
}

// ChunkMarkdown walks text's lines and emits chunks by a line-aware
// sliding window: a chunk is closed whenever appending the next
// (possibly split) line would exceed maxChars, then the tail of the
// closing chunk — the line-granularity suffix whose total length
// first reaches overlapChars — carries into the next chunk.
// Whitespace-only chunks are discarded.
func ChunkMarkdown(text string, opts ChunkOptions) []Chunk {
	maxChars, overlapChars := opts.resolve()

	lines := splitLinesKeepNumbers(text, maxChars)

	var chunks []Chunk
	var cur []numberedLine
	curLen := 0

	flush := func() {
		if len(cur) == 0 {
			return
		}
		joined := joinLines(cur)
		if strings.TrimSpace(joined) != "" {
			sum := sha256.Sum256([]byte(joined))
			chunks = append(chunks, Chunk{
				Text:      joined,
				StartLine: cur[0].originalLine,
				EndLine:   cur[len(cur)-1].originalLine,
				Hash:      hex.EncodeToString(sum[:]),
			})
		}
	}

	carryOverlap := func() {
		// Keep the suffix of cur whose total length first reaches
		// overlapChars, at line granularity.
		if overlapChars == 0 {
			cur = nil
			curLen = 0
			return
		}
		var tail []numberedLine
		tailLen := 0
		for i := len(cur) - 1; i >= 0; i-- {
			tail = append([]numberedLine{cur[i]}, tail...)
			tailLen += len(cur[i].text) + 1
			if tailLen >= overlapChars {
				break
			}
		}
		cur = tail
		curLen = tailLen
	}

	for _, ln := range lines {
		addLen := len(ln.text) + 1 // +1 for the joining newline
		if curLen > 0 && curLen+addLen > maxChars {
			flush()
			carryOverlap()
		}
		cur = append(cur, ln)
		curLen += addLen
	}
	flush()

	return chunks
}

type numberedLine struct {
	text         string
	originalLine int
}

// splitLinesKeepNumbers splits text into lines, carrying the original
// 1-based line number on every line, and further splits any line
// longer than maxChars into maxChars-wide segments (all tagged with
// the same original line number, since they come from one source line).
func splitLinesKeepNumbers(text string, maxChars int) []numberedLine {
	raw := strings.Split(text, "\n")
	var out []numberedLine
	for i, line := range raw {
		lineNo := i + 1
		if len(line) <= maxChars {
			out = append(out, numberedLine{text: line, originalLine: lineNo})
			continue
		}
		for len(line) > 0 {
			n := maxChars
			if n > len(line) {
				n = len(line)
			}
			out = append(out, numberedLine{text: line[:n], originalLine: lineNo})
			line = line[n:]
		}
	}
	return out
}

func joinLines(lines []numberedLine) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.text
	}
	return strings.Join(parts, "\n")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

var markdownExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".mdx":      true,
}

// MarkdownFile is one file discovered by WalkMarkdown, read and ready
// to be chunked, paired with its stable source key.
type MarkdownFile struct {
	SourceKey string // real-path, '/'-normalised
	Content   string
}

// WalkMarkdown accepts a single markdown file or a directory, and
// returns every markdown file found, sorted by filename ascending.
// Symlinks are skipped silently during a directory walk and rejected
// when passed directly.
func WalkMarkdown(path string) ([]MarkdownFile, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, memerr.Wrap(memerr.NotFound, fmt.Sprintf("importer: path %q not found", path), err)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		return nil, memerr.New(memerr.InvalidInput, fmt.Sprintf("importer: %q is a symlink; pass its target instead", path))
	}

	if !info.IsDir() {
		if !markdownExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil, memerr.New(memerr.InvalidInput, fmt.Sprintf("importer: unsupported extension on %q", path))
		}
		f, err := readMarkdownFile(path)
		if err != nil {
			return nil, err
		}
		return []MarkdownFile{f}, nil
	}

	ignore := newIgnoreMatcher(path)

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		entryInfo, err := os.Lstat(p)
		if err != nil {
			return err
		}
		if entryInfo.Mode()&os.ModeSymlink != 0 {
			return nil // skip symlinks silently during a directory walk
		}
		if !markdownExtensions[strings.ToLower(filepath.Ext(p))] {
			return nil
		}
		if rel, err := filepath.Rel(path, p); err == nil && ignore.match(rel) {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("importer: walk %q: %w", path, err)
	}

	sort.Slice(files, func(i, j int) bool {
		return filepath.Base(files[i]) < filepath.Base(files[j])
	})

	out := make([]MarkdownFile, 0, len(files))
	for _, f := range files {
		mf, err := readMarkdownFile(f)
		if err != nil {
			return nil, err
		}
		out = append(out, mf)
	}
	return out, nil
}

func readMarkdownFile(path string) (MarkdownFile, error) {
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		real = path
	}
	abs, err := filepath.Abs(real)
	if err != nil {
		abs = real
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return MarkdownFile{}, fmt.Errorf("importer: read %q: %w", path, err)
	}
	return MarkdownFile{
		SourceKey: filepath.ToSlash(abs),
		Content:   string(data),
	}, nil
}
