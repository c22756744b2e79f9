//go:build cgo
// +build cgo

package entity

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/hyperjump/docanalyzer/internal/config"
	"github.com/hyperjump/docanalyzer/internal/models"
)

// ONNX runs a BERT-style token-classification model through ONNX Runtime. It requires
// CGO and the onnxruntime shared library.
type ONNX struct {
	session   *ort.AdvancedSession
	tokenizer *WordPiece
	labels    []string
	maxTokens int
	maxInput  int
	// Pre-allocated tensors for Run(); we update input data and read output.
	inputIDsTensor      *ort.Tensor[int64]
	attentionMaskTensor *ort.Tensor[int64]
	tokenTypeIDsTensor  *ort.Tensor[int64]
	outputTensor        *ort.Tensor[float32]
	mu                  sync.Mutex
}

// NewONNX loads the model and vocabulary named in cfg.ONNX. InitializeEnvironment is
// called if not already done.
func NewONNX(cfg config.EntityConfig) (*ONNX, error) {
	oc := cfg.ONNX
	if oc.ModelPath == "" || oc.VocabPath == "" {
		return nil, models.NewUnavailableError("entities", "onnx model_path and vocab_path must be set")
	}
	if len(oc.Labels) == 0 {
		return nil, models.NewUnavailableError("entities", "onnx labels must be set")
	}
	if oc.MaxTokens < 8 {
		return nil, fmt.Errorf("onnx max_tokens %d is too small", oc.MaxTokens)
	}
	vocab, err := LoadVocab(oc.VocabPath)
	if err != nil {
		return nil, err
	}

	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
		}
	}

	maxTokens := int64(oc.MaxTokens)
	inputIDsTensor, err := ort.NewEmptyTensor[int64](ort.NewShape(1, maxTokens))
	if err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	attentionMaskTensor, err := ort.NewEmptyTensor[int64](ort.NewShape(1, maxTokens))
	if err != nil {
		inputIDsTensor.Destroy()
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	tokenTypeIDsTensor, err := ort.NewEmptyTensor[int64](ort.NewShape(1, maxTokens))
	if err != nil {
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		return nil, fmt.Errorf("failed to create token_type_ids tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, maxTokens, int64(len(oc.Labels))))
	if err != nil {
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		tokenTypeIDsTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		oc.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{oc.OutputName},
		[]ort.ArbitraryTensor{inputIDsTensor, attentionMaskTensor, tokenTypeIDsTensor},
		[]ort.ArbitraryTensor{outputTensor},
		nil,
	)
	if err != nil {
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		tokenTypeIDsTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	maxInput := cfg.MaxInputChars
	if maxInput <= 0 {
		maxInput = DefaultMaxInput
	}
	return &ONNX{
		session:             session,
		tokenizer:           NewWordPiece(vocab, oc.Lowercase),
		labels:              oc.Labels,
		maxTokens:           oc.MaxTokens,
		maxInput:            maxInput,
		inputIDsTensor:      inputIDsTensor,
		attentionMaskTensor: attentionMaskTensor,
		tokenTypeIDsTensor:  tokenTypeIDsTensor,
		outputTensor:        outputTensor,
	}, nil
}

// Extract classifies text in windows of maxTokens-2 word pieces.
func (o *ONNX) Extract(ctx context.Context, text string) ([]models.Entity, error) {
	tokens := o.tokenizer.Tokenize(text)
	window := o.maxTokens - 2

	var raw []models.Entity
	for start := 0; start < len(tokens); {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + window
		if end > len(tokens) {
			end = len(tokens)
		}
		// Do not cut a word between its pieces unless it fills the whole window.
		for end < len(tokens) && end > start+1 && tokens[end].Subword {
			end--
		}
		labels, err := o.classify(tokens[start:end])
		if err != nil {
			return nil, err
		}
		raw = append(raw, decodeBIO(text, tokens[start:end], labels)...)
		start = end
	}
	return Clean(text, raw), nil
}

func (o *ONNX) classify(tokens []Token) ([]string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	inputIDs, attentionMask, tokenTypeIDs := o.tokenizer.Encode(tokens, o.maxTokens)
	copy(o.inputIDsTensor.GetData(), inputIDs)
	copy(o.attentionMaskTensor.GetData(), attentionMask)
	copy(o.tokenTypeIDsTensor.GetData(), tokenTypeIDs)

	if err := o.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	return argmaxLabels(o.outputTensor.GetData(), len(tokens), o.labels), nil
}

func (o *ONNX) MaxInputLength() int { return o.maxInput }

func (o *ONNX) Available() error { return nil }

func (o *ONNX) Name() string { return "onnx" }

// Close destroys the session and tensors.
func (o *ONNX) Close() error {
	var err error
	if o.session != nil {
		err = o.session.Destroy()
		o.session = nil
	}
	for _, t := range []interface{ Destroy() error }{o.inputIDsTensor, o.attentionMaskTensor, o.tokenTypeIDsTensor} {
		_ = t.Destroy()
	}
	if o.outputTensor != nil {
		_ = o.outputTensor.Destroy()
	}
	return err
}
