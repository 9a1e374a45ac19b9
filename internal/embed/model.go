// Package embed maps text to a unit-length Float32 vector under a
// cached singleton model, backed by a two-tier cache (in-process FIFO
// plus a persistent content-addressed table) and a 30s inference
// timeout.
package embed

import "context"

// Model is the black-box text -> vector backend. Implementations own
// tokenisation, the forward pass, mean-pooling and normalisation;
// Embed must already return a unit-length vector.
type Model interface {
	// Embed runs inference for one prefixed text and returns a
	// unit-length Float32 vector of length Dimensions().
	Embed(ctx context.Context, text string) ([]float32, error)
	// Dimensions returns the model's hidden width.
	Dimensions() int
	// ModelID identifies the model for cache-key scoping; changing it
	// naturally invalidates the L2 cache for texts embedded under the
	// previous model.
	ModelID() string
	// Close releases any backend resources (sessions, HTTP clients).
	Close() error
}

// clusteringPrefix is prepended to every text fed to inference, for
// both stored content and queries, so identical texts always produce
// identical vectors.
const clusteringPrefix = "clustering: "
