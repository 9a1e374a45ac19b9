package cli

import "encoding/json"

// markdownChunkMetadata is the opaque-to-Store metadata JSON attached
// to records produced by a markdown import.
type markdownChunkMetadata struct {
	SourcePath string `json:"sourcePath"`
	SourceKey  string `json:"sourceKey"`
	StartLine  int    `json:"startLine"`
	EndLine    int    `json:"endLine"`
	ChunkIndex int    `json:"chunkIndex"`
	ChunkCount int    `json:"chunkCount"`
	ChunkHash  string `json:"chunkHash"`
}

// repoMapEntryMetadata is the opaque-to-Store metadata JSON attached
// to records produced by a repo-map import.
type repoMapEntryMetadata struct {
	SourcePath string   `json:"sourcePath"`
	SourceKey  string   `json:"sourceKey"`
	Language   string   `json:"language"`
	Symbols    []string `json:"symbols"`
	ImportType string   `json:"importType"`
}

func encodeMetadata(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// decodeDocChunkMetadata reports the sourcePath:startLine-endLine
// annotation line used by search result rendering, or ok=false if
// metadata isn't a markdown-chunk shape (e.g. it came from a repo-map
// import, or the record isn't a doc_chunk at all).
func decodeDocChunkMetadata(raw string) (m markdownChunkMetadata, ok bool) {
	if raw == "" {
		return markdownChunkMetadata{}, false
	}
	var candidate struct {
		markdownChunkMetadata
		ImportType string `json:"importType"`
	}
	if err := json.Unmarshal([]byte(raw), &candidate); err != nil {
		return markdownChunkMetadata{}, false
	}
	if candidate.ImportType == "repo-map" || candidate.SourcePath == "" {
		return markdownChunkMetadata{}, false
	}
	return candidate.markdownChunkMetadata, true
}
