//go:build llama

package manager

import (
	"context"
	"errors"
	"strings"

	llama "github.com/go-skynet/go-llama.cpp"
)

// llamaAdapter constructs in-process go-llama.cpp handles.
type llamaAdapter struct{}

// NewLlamaAdapter returns the in-process llama.cpp runtime.
func NewLlamaAdapter() InferenceAdapter { return &llamaAdapter{} }

// llamaHandle owns the loaded model
type llamaHandle struct {
	model     *llama.LLama
	threads   int
	ctxSize   int
	gpuLayers int
}

func (a *llamaAdapter) Load(cfg ModelConfig) (ModelHandle, error) {
	if strings.TrimSpace(cfg.ModelPath) == "" {
		return nil, errors.New("model path is empty")
	}
	// offload_kqv, flash_attn and n_threads_batch have no go-llama.cpp
	// equivalent; they are accepted and logged but not forwarded.
	mo := []llama.ModelOption{
		llama.SetContext(cfg.ContextSize),
		llama.SetGPULayers(cfg.GPULayers),
		llama.SetMMap(cfg.UseMMap),
	}
	if cfg.Batch > 0 {
		mo = append(mo, llama.SetNBatch(cfg.Batch))
	}
	if cfg.UseMLock {
		mo = append(mo, llama.EnableMLock)
	}
	m, err := llama.New(cfg.ModelPath, mo...)
	if err != nil {
		return nil, err
	}
	return &llamaHandle{model: m, threads: cfg.Threads, ctxSize: cfg.ContextSize, gpuLayers: cfg.GPULayers}, nil
}

func (h *llamaHandle) Generate(ctx context.Context, prompt string, params InferParams) (Completion, error) {
	if h.model == nil {
		return Completion{}, errors.New("llama model not initialized")
	}
	tokens := 0
	stopped := false
	// The callback is per-model state; the Manager guarantees one caller at a time.
	h.model.SetTokenCallback(func(tok string) bool {
		select {
		case <-ctx.Done():
			stopped = true
			return false
		default:
		}
		tokens++
		return true
	})
	defer h.model.SetTokenCallback(nil)

	text, err := h.model.Predict(prompt, mapInferParamsToPredictOptions(params, h.threads)...)
	if err != nil {
		if ctx.Err() != nil {
			return Completion{}, ctx.Err()
		}
		return Completion{}, err
	}
	reason := "stop"
	switch {
	case stopped:
		reason = "canceled"
	case params.MaxTokens > 0 && tokens >= params.MaxTokens:
		reason = "length"
	}
	return Completion{
		Choices: []Choice{{Text: text, FinishReason: reason}},
		Usage:   &Usage{CompletionTokens: tokens, TotalTokens: tokens},
	}, nil
}

func (h *llamaHandle) Backend() string {
	if h.gpuLayers > 0 {
		return "cuda"
	}
	return "cpu"
}

func (h *llamaHandle) ContextSize() int { return h.ctxSize }

func (h *llamaHandle) Close() error {
	if h.model != nil {
		h.model.Free()
		h.model = nil
	}
	return nil
}

// helpers
func zn(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func zf(v, def float32) float32 {
	if v > 0 {
		return v
	}
	return def
}

// mapInferParamsToPredictOptions converts our adapter params into go-llama.cpp options
func mapInferParamsToPredictOptions(params InferParams, threads int) []llama.PredictOption {
	po := []llama.PredictOption{
		llama.SetTokens(max(1, params.MaxTokens)),
		llama.SetThreads(max(1, threads)),
		llama.SetTopP(zf(params.TopP, llama.DefaultOptions.TopP)),
		llama.SetTopK(zn(params.TopK, llama.DefaultOptions.TopK)),
		llama.SetTemperature(zf(params.Temperature, llama.DefaultOptions.Temperature)),
		llama.SetPenalty(zf(params.RepeatPenalty, llama.DefaultOptions.Penalty)),
	}
	if params.Seed != 0 {
		po = append(po, llama.SetSeed(params.Seed))
	}
	if len(params.Stop) > 0 {
		po = append(po, llama.SetStopWords(params.Stop...))
	}
	return po
}
