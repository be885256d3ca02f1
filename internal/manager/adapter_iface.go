package manager

import "context"

// InferenceAdapter abstracts the model runtime used by the Manager.
// Concrete implementations (e.g., llama.cpp) should satisfy this interface.
type InferenceAdapter interface {
	// Load constructs a handle for the resolved configuration. It may block
	// for as long as the weights take to map into memory.
	Load(cfg ModelConfig) (ModelHandle, error)
}

// ModelHandle owns the native resources of one loaded model. Implementations
// are not required to be reentrant; the Manager serializes Generate calls.
type ModelHandle interface {
	// Generate runs one completion. Implementations should return when ctx is
	// canceled if the runtime allows it.
	Generate(ctx context.Context, prompt string, params InferParams) (Completion, error)
	// Backend reports the acceleration mode, "cuda" or "cpu".
	Backend() string
	// ContextSize reports the context window the handle was built with.
	ContextSize() int
	// Close releases native resources. Calling it twice is safe.
	Close() error
}

// InferParams captures generation parameters passed to the adapter.
type InferParams struct {
	Temperature   float32
	TopP          float32
	TopK          int
	MaxTokens     int
	Stop          []string
	Seed          int
	RepeatPenalty float32
}

// Completion is the raw engine output. Choices and Usage are both required;
// a completion missing either is rejected as a generation error.
type Completion struct {
	Choices []Choice
	Usage   *Usage
}

// Choice is one generated alternative.
type Choice struct {
	Text         string
	FinishReason string
}

// Usage contains token accounting.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
