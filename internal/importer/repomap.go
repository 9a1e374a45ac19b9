package importer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/memoproj/memo/internal/memerr"
)

// RepoMapEntry is one element of a JSON repo-map array. Path is
// required; the others default when absent.
type RepoMapEntry struct {
	Path    string   `json:"path"`
	Language string  `json:"language"`
	Symbols []string `json:"symbols"`
	Content string   `json:"content"`
}

// RepoMapRecord is one synthesised record derived from a repo-map entry.
type RepoMapRecord struct {
	Content string
	Entry   RepoMapEntry
}

// LoadRepoMap parses file as a JSON array of repo-map entries and
// synthesises one record per entry (no chunking). The source key is
// "repo-map:" + the real path of the JSON file, shared by every
// record produced from it.
func LoadRepoMap(file string) (sourceKey string, records []RepoMapRecord, err error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return "", nil, memerr.Wrap(memerr.NotFound, fmt.Sprintf("importer: repo-map file %q not found", file), err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", nil, memerr.Wrap(memerr.InvalidInput, "importer: repo-map must be a JSON array", err)
	}

	entries := make([]RepoMapEntry, 0, len(raw))
	for i, r := range raw {
		var e struct {
			Path     *string  `json:"path"`
			Language *string  `json:"language"`
			Symbols  []string `json:"symbols"`
			Content  *string  `json:"content"`
		}
		if err := json.Unmarshal(r, &e); err != nil {
			return "", nil, memerr.Wrap(memerr.InvalidInput, fmt.Sprintf("importer: repo-map entry %d is malformed", i), err)
		}
		if e.Path == nil || *e.Path == "" {
			return "", nil, memerr.New(memerr.InvalidInput, fmt.Sprintf("importer: repo-map entry %d is missing \"path\"", i))
		}
		entry := RepoMapEntry{Path: *e.Path, Language: "unknown", Symbols: []string{}, Content: ""}
		if e.Language != nil {
			entry.Language = *e.Language
		}
		if e.Symbols != nil {
			entry.Symbols = e.Symbols
		}
		if e.Content != nil {
			entry.Content = *e.Content
		}
		entries = append(entries, entry)
	}

	real, err := filepath.EvalSymlinks(file)
	if err != nil {
		real = file
	}
	abs, err := filepath.Abs(real)
	if err != nil {
		abs = real
	}
	sourceKey = "repo-map:" + filepath.ToSlash(abs)

	for _, e := range entries {
		records = append(records, RepoMapRecord{Content: synthesizeRepoMapContent(e), Entry: e})
	}
	return sourceKey, records, nil
}

// synthesizeRepoMapContent builds "{path} [{language}] {symbols}\n{content}",
// omitting the trailing newline+content when content is empty.
func synthesizeRepoMapContent(e RepoMapEntry) string {
	header := fmt.Sprintf("%s [%s] %s", e.Path, e.Language, strings.Join(e.Symbols, " "))
	if e.Content == "" {
		return header
	}
	return header + "\n" + e.Content
}
