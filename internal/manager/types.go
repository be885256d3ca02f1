package manager

import (
	"github.com/rs/zerolog"
)

// State represents the lifecycle state of the model.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StateReady         State = "ready"
	StateFailed        State = "failed"
	StateShuttingDown  State = "shutting_down"
	StateTerminated    State = "terminated"
)

var allStates = []State{
	StateUninitialized, StateInitializing, StateReady,
	StateFailed, StateShuttingDown, StateTerminated,
}

// ModelConfig holds runtime parameters used to construct a model handle.
// Keys follow the llama.cpp constructor names so overrides read naturally.
type ModelConfig struct {
	ModelPath    string `mapstructure:"model_path"`
	ContextSize  int    `mapstructure:"n_ctx"`
	GPULayers    int    `mapstructure:"n_gpu_layers"`
	Threads      int    `mapstructure:"n_threads"`
	ThreadsBatch int    `mapstructure:"n_threads_batch"`
	Batch        int    `mapstructure:"n_batch"`
	OffloadKQV   bool   `mapstructure:"offload_kqv"`
	UseMMap      bool   `mapstructure:"use_mmap"`
	UseMLock     bool   `mapstructure:"use_mlock"`
	FlashAttn    bool   `mapstructure:"flash_attn"`
}

// DefaultModelConfig returns the runtime defaults used when nothing else is set.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		ContextSize:  2048,
		GPULayers:    35,
		Threads:      6,
		ThreadsBatch: 6,
		Batch:        512,
		OffloadKQV:   true,
		UseMMap:      false,
		UseMLock:     false,
		FlashAttn:    true,
	}
}

// logDict renders every field except the artifact path.
func (c ModelConfig) logDict() *zerolog.Event {
	return zerolog.Dict().
		Int("n_ctx", c.ContextSize).
		Int("n_gpu_layers", c.GPULayers).
		Int("n_threads", c.Threads).
		Int("n_threads_batch", c.ThreadsBatch).
		Int("n_batch", c.Batch).
		Bool("offload_kqv", c.OffloadKQV).
		Bool("use_mmap", c.UseMMap).
		Bool("use_mlock", c.UseMLock).
		Bool("flash_attn", c.FlashAttn)
}

// Snapshot is a read-only projection of the manager state.
type Snapshot struct {
	State       State
	Backend     string
	ContextSize int
	Err         string
}
