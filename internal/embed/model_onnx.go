//go:build onnx

package embed

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/memoproj/memo/internal/logging"
)

// bertTokenizer performs BERT-style WordPiece tokenisation against a
// HuggingFace tokenizer.json vocabulary.
type bertTokenizer struct {
	vocab    map[string]int
	clsToken int
	sepToken int
	unkToken int
}

// ONNXConfig configures the default local inference backend.
type ONNXConfig struct {
	ModelID           string // cache-scoping identifier, e.g. "Xenova/nomic-embed-text-v1"
	ModelPath         string
	TokenizerPath     string
	SharedLibraryPath string // empty lets onnxruntime_go use its platform default
	Dimensions        int
	MaxSequenceLength int // default 128
}

// onnxModel runs inference locally via ONNX Runtime.
type onnxModel struct {
	session    *ort.DynamicAdvancedSession
	tokenizer  *bertTokenizer
	dimensions int
	maxLen     int
	modelID    string

	mu sync.Mutex // ort sessions are not documented safe for concurrent Run
}

var ortEnvInit sync.Once
var ortEnvErr error

// NewONNXModel loads the tokenizer and ONNX session described by cfg.
func NewONNXModel(cfg ONNXConfig) (Model, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("embed: ONNXConfig.ModelPath is required")
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = 768
	}
	if cfg.MaxSequenceLength == 0 {
		cfg.MaxSequenceLength = 128
	}

	ortEnvInit.Do(func() {
		if cfg.SharedLibraryPath != "" {
			ort.SetSharedLibraryPath(cfg.SharedLibraryPath)
		}
		ortEnvErr = ort.InitializeEnvironment()
	})
	if ortEnvErr != nil {
		return nil, fmt.Errorf("embed: initialize onnxruntime: %w", ortEnvErr)
	}

	tok, err := loadBERTTokenizer(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("embed: load tokenizer: %w", err)
	}

	inputNames := []string{"input_ids", "attention_mask", "token_type_ids"}
	outputNames := []string{"last_hidden_state"}
	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, inputNames, outputNames, nil)
	if err != nil {
		return nil, fmt.Errorf("embed: create onnx session: %w", err)
	}

	modelID := cfg.ModelID
	if modelID == "" {
		modelID = cfg.ModelPath
	}

	return &onnxModel{
		session:    session,
		tokenizer:  tok,
		dimensions: cfg.Dimensions,
		maxLen:     cfg.MaxSequenceLength,
		modelID:    modelID,
	}, nil
}

func (m *onnxModel) Dimensions() int { return m.dimensions }
func (m *onnxModel) ModelID() string { return m.modelID }

func (m *onnxModel) Close() error {
	if m.session == nil {
		return nil
	}
	return m.session.Destroy()
}

func (m *onnxModel) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tokens := m.tokenizer.tokenize(text)

	maxLen := m.maxLen
	inputIDs := make([]int64, maxLen)
	attentionMask := make([]int64, maxLen)
	tokenTypeIDs := make([]int64, maxLen)

	inputIDs[0] = int64(m.tokenizer.clsToken)
	attentionMask[0] = 1

	tokenLen := len(tokens)
	if tokenLen > maxLen-2 {
		tokenLen = maxLen - 2
	}
	for i := 0; i < tokenLen; i++ {
		inputIDs[i+1] = tokens[i]
		attentionMask[i+1] = 1
	}
	endPos := tokenLen + 1
	inputIDs[endPos] = int64(m.tokenizer.sepToken)
	attentionMask[endPos] = 1

	shape := ort.NewShape(1, int64(maxLen))
	inputIDsTensor, err := ort.NewTensor(shape, inputIDs)
	if err != nil {
		return nil, fmt.Errorf("embed: input_ids tensor: %w", err)
	}
	defer inputIDsTensor.Destroy()

	attentionMaskTensor, err := ort.NewTensor(shape, attentionMask)
	if err != nil {
		return nil, fmt.Errorf("embed: attention_mask tensor: %w", err)
	}
	defer attentionMaskTensor.Destroy()

	tokenTypeIDsTensor, err := ort.NewTensor(shape, tokenTypeIDs)
	if err != nil {
		return nil, fmt.Errorf("embed: token_type_ids tensor: %w", err)
	}
	defer tokenTypeIDsTensor.Destroy()

	inputTensors := []ort.Value{inputIDsTensor, attentionMaskTensor, tokenTypeIDsTensor}
	outputTensors := []ort.Value{nil}

	if err := m.session.Run(inputTensors, outputTensors); err != nil {
		return nil, fmt.Errorf("embed: onnx inference: %w", err)
	}
	defer func() {
		for _, o := range outputTensors {
			if o != nil {
				o.Destroy()
			}
		}
	}()

	if len(outputTensors) == 0 || outputTensors[0] == nil {
		return nil, fmt.Errorf("embed: no output tensors returned")
	}
	outputTensor, ok := outputTensors[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("embed: unexpected output tensor type")
	}

	outputData := outputTensor.GetData()
	outputShape := outputTensor.GetShape()

	var vec []float32
	switch len(outputShape) {
	case 2:
		if len(outputData) < m.dimensions {
			return nil, fmt.Errorf("embed: output dimension mismatch: got %d, expected %d", len(outputData), m.dimensions)
		}
		vec = make([]float32, m.dimensions)
		copy(vec, outputData[:m.dimensions])
	case 3:
		batchSize, seqLen, hiddenSize := outputShape[0], outputShape[1], outputShape[2]
		if batchSize != 1 {
			return nil, fmt.Errorf("embed: expected batch size 1, got %d", batchSize)
		}
		if hiddenSize != int64(m.dimensions) {
			return nil, fmt.Errorf("embed: hidden size mismatch: got %d, expected %d", hiddenSize, m.dimensions)
		}
		vec = make([]float32, m.dimensions)
		var attended float32
		for i := 0; i < int(seqLen); i++ {
			if attentionMask[i] == 0 {
				continue
			}
			attended++
			offset := i * int(hiddenSize)
			for j := 0; j < int(hiddenSize); j++ {
				vec[j] += outputData[offset+j]
			}
		}
		if attended == 0 {
			return nil, fmt.Errorf("embed: no attended tokens to pool")
		}
		for j := range vec {
			vec[j] /= attended
		}
	default:
		return nil, fmt.Errorf("embed: unexpected output shape %v", outputShape)
	}

	return onnxNormalize(vec), nil
}

func onnxNormalize(vec []float32) []float32 {
	var normSq float64
	for _, v := range vec {
		normSq += float64(v) * float64(v)
	}
	if normSq == 0 {
		return vec
	}
	norm := float32(math.Sqrt(normSq))
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = v / norm
	}
	return out
}

func loadBERTTokenizer(path string) (*bertTokenizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Model struct {
			Vocab map[string]int `json:"vocab"`
		} `json:"model"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}
	return &bertTokenizer{
		vocab:    parsed.Model.Vocab,
		clsToken: 101,
		sepToken: 102,
		unkToken: 100,
	}, nil
}

func (t *bertTokenizer) tokenize(text string) []int64 {
	text = strings.ToLower(text)
	words := strings.Fields(text)

	var tokens []int64
	for _, word := range words {
		word = strings.Trim(word, ".,!?;:\"'")
		if word == "" {
			continue
		}
		if id, ok := t.vocab[word]; ok {
			tokens = append(tokens, int64(id))
			continue
		}
		for _, sub := range t.wordPieceTokenize(word) {
			if id, ok := t.vocab[sub]; ok {
				tokens = append(tokens, int64(id))
			} else {
				tokens = append(tokens, int64(t.unkToken))
			}
		}
	}
	if len(tokens) == 0 {
		logging.Debug("embed: onnx tokenizer produced no tokens", "text", text)
	}
	return tokens
}

func (t *bertTokenizer) wordPieceTokenize(word string) []string {
	if len(word) == 0 {
		return nil
	}
	var subwords []string
	start := 0
	for start < len(word) {
		end := len(word)
		found := false
		for end > start {
			substr := word[start:end]
			if start > 0 {
				substr = "##" + substr
			}
			if _, ok := t.vocab[substr]; ok {
				subwords = append(subwords, substr)
				start = end
				found = true
				break
			}
			end--
		}
		if !found {
			subwords = append(subwords, "[UNK]")
			start++
		}
	}
	return subwords
}
