// Package config produces the process-wide frozen configuration record
// by overlaying a JSON-with-comments file atop built-in defaults. There
// are no mutable globals elsewhere; Load returns the record by value and
// every component receives the settings it needs at construction.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the frozen, fully-resolved configuration. Once returned
// from Load it is never mutated.
type Config struct {
	StoragePath                      string  `json:"storagePath"`
	CustomSqlitePath                 string  `json:"customSqlitePath"`
	EmbeddingModel                   string  `json:"embeddingModel"`
	EmbeddingDimensions              int     `json:"embeddingDimensions"`
	SimilarityThreshold              float64 `json:"similarityThreshold"`
	MinVectorSimilarity              float64 `json:"minVectorSimilarity"`
	MaxMemories                      int     `json:"maxMemories"`
	DeduplicationEnabled             bool    `json:"deduplicationEnabled"`
	DeduplicationSimilarityThreshold float64 `json:"deduplicationSimilarityThreshold"`
	SearchCacheEnabled               bool    `json:"searchCacheEnabled"`
	SearchCacheSize                  int     `json:"searchCacheSize"`
}

// Defaults returns the built-in configuration before any file overlay.
func Defaults() Config {
	storageRoot, err := os.UserConfigDir()
	if err != nil {
		storageRoot = "."
	}
	return Config{
		StoragePath:                      filepath.Join(storageRoot, "memo", "data"),
		CustomSqlitePath:                 "",
		EmbeddingModel:                   "Xenova/nomic-embed-text-v1",
		EmbeddingDimensions:              768,
		SimilarityThreshold:              0.5,
		MinVectorSimilarity:              0.6,
		MaxMemories:                      10,
		DeduplicationEnabled:             true,
		DeduplicationSimilarityThreshold: 0.9,
		SearchCacheEnabled:               false,
		SearchCacheSize:                  256,
	}
}

// Path returns the location of the user-level config file, honouring
// the JSONC extension with a fallback to plain .json.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve user config dir: %w", err)
	}
	base := filepath.Join(dir, "memo")
	jsonc := filepath.Join(base, "config.jsonc")
	if _, err := os.Stat(jsonc); err == nil {
		return jsonc, nil
	}
	plain := filepath.Join(base, "config.json")
	if _, err := os.Stat(plain); err == nil {
		return plain, nil
	}
	return jsonc, nil
}

// Load overlays the JSONC config file (if any) atop Defaults. If no
// config file exists yet, it writes a fully-commented template at the
// default path and returns the untouched defaults.
func Load() (Config, error) {
	cfg := Defaults()

	path, err := Path()
	if err != nil {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if werr := writeTemplate(path); werr != nil {
			return cfg, nil // template write is best-effort
		}
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	stripped := StripJSONC(string(data))
	if err := json.Unmarshal([]byte(stripped), &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func writeTemplate(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	d := Defaults()
	template := fmt.Sprintf(`{
  // Global cache & log root.
  // "storagePath": %q,

  // Path to a loadable-extension-capable sqlite3 shared library. Only
  // reported in the error shown when the vector table cannot be created;
  // the sqlite3 built into the binary is always the one used.
  // "customSqlitePath": "",

  // Embedding model id.
  // "embeddingModel": %q,

  // Embedding vector width; must match the model's hidden size.
  // "embeddingDimensions": %d,

  // Stage-6 final similarity cutoff.
  // "similarityThreshold": %v,

  // Stage-1 KNN gate cutoff.
  // "minVectorSimilarity": %v,

  // Default result count for search/list.
  // "maxMemories": %d,

  // Whether to block exact/near-duplicate inserts.
  // "deduplicationEnabled": %v,

  // Cosine-similarity cutoff for near-duplicate detection.
  // "deduplicationSimilarityThreshold": %v,

  // Cache full search responses; purged on every write. Off by default.
  // "searchCacheEnabled": %v,

  // Maximum number of cached responses when searchCacheEnabled is true.
  // "searchCacheSize": %d
}
`, d.StoragePath, d.EmbeddingModel, d.EmbeddingDimensions, d.SimilarityThreshold,
		d.MinVectorSimilarity, d.MaxMemories, d.DeduplicationEnabled, d.DeduplicationSimilarityThreshold,
		d.SearchCacheEnabled, d.SearchCacheSize)
	return os.WriteFile(path, []byte(template), 0o644)
}
