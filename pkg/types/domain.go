package types

// Model describes a GGUF artifact discovered on disk.
type Model struct {
	// File name including extension.
	// example: mistral-7b-instruct-v0.2.Q4_K_M.gguf
	ID string `json:"id" example:"mistral-7b-instruct-v0.2.Q4_K_M.gguf"`
	// Absolute path to the model file on disk.
	Path string `json:"path"`
	// Size of the file in bytes.
	// example: 4368439296
	SizeBytes int64 `json:"size_bytes" example:"4368439296"`
	// Quantization tag parsed from the file name, if any.
	// example: Q4_K_M
	Quant string `json:"quant,omitempty" example:"Q4_K_M"`
}
