package memory

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Float32SliceToBlob encodes a vector as a contiguous little-endian
// Float32 buffer, matching the wire format the vec0 virtual table and
// the embedding_cache column both expect.
func Float32SliceToBlob(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// BlobToFloat32Slice decodes a little-endian Float32 buffer produced
// by Float32SliceToBlob. It aliases no memory beyond the returned
// slice's own backing array.
func BlobToFloat32Slice(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("memory: vector blob length %d is not a multiple of 4", len(b))
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out, nil
}

// L2Norm returns the Euclidean length of v.
func L2Norm(v []float32) float64 {
	var sumSq float64
	for _, f := range v {
		sumSq += float64(f) * float64(f)
	}
	return math.Sqrt(sumSq)
}

// Normalize returns a copy of v scaled to unit length. A zero vector
// is returned unchanged (there is no meaningful direction to pick).
func Normalize(v []float32) []float32 {
	norm := L2Norm(v)
	if norm == 0 {
		out := make([]float32, len(v))
		copy(out, v)
		return out
	}
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(float64(f) / norm)
	}
	return out
}
