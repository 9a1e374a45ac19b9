package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
)

// OllamaModel drives a local Ollama server's /api/embed endpoint. It
// is the default-compiled backend (no cgo, no onnxruntime shared
// library required) and is selected whenever the "onnx" build tag is
// not set; the choice of backend depends on the build tag alone.
type OllamaModel struct {
	host       string
	modelID    string
	dimensions int
	client     *http.Client
}

// NewOllamaModel builds a model backed by host (e.g.
// "http://localhost:11434") using the named Ollama embedding model.
func NewOllamaModel(host, modelID string, dimensions int) *OllamaModel {
	return &OllamaModel{
		host:       strings.TrimRight(host, "/"),
		modelID:    modelID,
		dimensions: dimensions,
		client:     &http.Client{},
	}
}

func (o *OllamaModel) Dimensions() int { return o.dimensions }
func (o *OllamaModel) ModelID() string { return o.modelID }
func (o *OllamaModel) Close() error    { return nil }

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed calls Ollama for a single prefixed text and L2-normalises the
// result, since Ollama's pooling strategy is opaque to this caller
// and the contract requires a unit-length output regardless of
// backend.
func (o *OllamaModel) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: o.modelID, Input: []string{text}})
	if err != nil {
		return nil, fmt.Errorf("embed: ollama marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.host+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embed: ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed: ollama call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embed: ollama: unexpected status %d", resp.StatusCode)
	}

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("embed: ollama decode: %w", err)
	}
	if len(result.Embeddings) != 1 {
		return nil, fmt.Errorf("embed: ollama returned %d embeddings, want 1", len(result.Embeddings))
	}

	vec := result.Embeddings[0]
	if len(vec) != o.dimensions {
		return nil, fmt.Errorf("embed: ollama returned %d dims, store expects %d", len(vec), o.dimensions)
	}
	return ollamaNormalize(vec), nil
}

func ollamaNormalize(vec []float32) []float32 {
	var normSq float64
	for _, v := range vec {
		normSq += float64(v) * float64(v)
	}
	if normSq == 0 {
		return vec
	}
	scale := 1.0 / math.Sqrt(normSq)
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) * scale)
	}
	return out
}
