package types

// ChatRequest is the payload accepted by POST /api/v1/chat/chat.
// Optional fields are pointers so "unset" can be told apart from zero.
type ChatRequest struct {
	// User message, 1 to 500 characters.
	// example: What is 2+2?
	Message string `json:"message" example:"What is 2+2?"`
	// Maximum number of new tokens to generate (10-500). Defaults to 150.
	// example: 150
	MaxTokens *int `json:"max_tokens,omitempty" example:"150"`
	// Sampling temperature (0.1-1.0). Defaults to 0.5.
	// example: 0.5
	Temperature *float64 `json:"temperature,omitempty" example:"0.5"`
	// Nucleus sampling probability (0.1-1.0). Defaults to 0.9.
	// example: 0.9
	TopP *float64 `json:"top_p,omitempty" example:"0.9"`
}

// ChatResponse is returned by POST /api/v1/chat/chat.
type ChatResponse struct {
	// Generated assistant text.
	// example: 4
	Response string `json:"response" example:"4"`
	// Number of completion tokens produced.
	// example: 3
	TokensUsed int `json:"tokens_used" example:"3"`
	// Wall-clock processing time in seconds, two decimals.
	// example: 0.42
	ProcessingTime float64 `json:"processing_time" example:"0.42"`
	// Completion tokens per second, one decimal.
	// example: 7.1
	TokensPerSec float64 `json:"tokens_per_sec" example:"7.1"`
	// Model status at the time the response was built.
	ModelStatus ModelStatus `json:"model_status"`
}

// ModelStatus is a read-only view of the model lifecycle.
type ModelStatus struct {
	// Lifecycle state: uninitialized, initializing, ready, failed, shutting_down, terminated.
	// example: ready
	Status string `json:"status" example:"ready"`
	// Acceleration backend inferred from the loaded handle.
	// example: cuda
	Backend string `json:"backend" example:"cuda"`
	// Context window of the loaded handle, "0" when none is loaded.
	// example: 2048
	ContextSize string `json:"context_size" example:"2048"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	// ok when the model is ready, unhealthy otherwise.
	// example: ok
	Status string `json:"status" example:"ok"`
	// Server time in unix seconds (fractional).
	// example: 1700000000.5
	Timestamp float64 `json:"timestamp" example:"1700000000.5"`
	// Current model status.
	ModelStatus ModelStatus `json:"model_status"`
	// API version string.
	// example: 2.0.0
	APIVersion string `json:"api_version" example:"2.0.0"`
}

// RootResponse is returned by GET /.
type RootResponse struct {
	// example: chatd API is operational
	Message string `json:"message" example:"chatd API is operational"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: message: must be between 1 and 500 characters
	Error string `json:"error" example:"message: must be between 1 and 500 characters"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
