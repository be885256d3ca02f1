//go:build !llama

package manager

// This file provides a no-CGO stub for the llama adapter. It is compiled when
// the 'llama' build tag is NOT set, keeping default builds and CI CGO-free.
// The real adapter lives in adapter_llama.go (tagged 'llama').

// llamaAdapter refuses to load without the 'llama' build tag. This avoids
// any mocked behavior in production binaries built without CGO support.
type llamaAdapter struct{}

// NewLlamaAdapter returns the stub runtime.
func NewLlamaAdapter() InferenceAdapter { return &llamaAdapter{} }

func (a *llamaAdapter) Load(cfg ModelConfig) (ModelHandle, error) {
	// Fail fast: llama runtime not available in this build.
	return nil, ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
}
