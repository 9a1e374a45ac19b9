//go:build onnx

package embed

import "os"

// DefaultLoader builds the onnx-backed Loader used when the binary is
// compiled with the "onnx" build tag. Model and tokenizer paths come
// from the environment since they point at files downloaded once per
// machine, not per-project config.
func DefaultLoader(modelID string, dims int) Loader {
	return func() (Model, error) {
		return NewONNXModel(ONNXConfig{
			ModelID:           modelID,
			ModelPath:         os.Getenv("MEMO_ONNX_MODEL_PATH"),
			TokenizerPath:     os.Getenv("MEMO_ONNX_TOKENIZER_PATH"),
			SharedLibraryPath: os.Getenv("MEMO_ONNX_LIBRARY_PATH"),
			Dimensions:        dims,
		})
	}
}
