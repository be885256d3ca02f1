package chat

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"chatd/pkg/types"
)

// Request bounds and defaults.
const (
	MinMaxTokens = 10
	MaxMaxTokens = 500
	MinSampling  = 0.1
	MaxSampling  = 1.0

	DefaultMaxTokens     = 150
	DefaultTemperature   = 0.5
	DefaultTopP          = 0.9
	DefaultRepeatPenalty = 1.1
)

// ValidationError reports a request field outside its bounds.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Reason }

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// Validate checks req against the request bounds. Absent optional fields are valid.
func Validate(req types.ChatRequest) error {
	if n := utf8.RuneCountInString(req.Message); n < 1 || n > MaxInputLength {
		return &ValidationError{Field: "message", Reason: fmt.Sprintf("must be between 1 and %d characters", MaxInputLength)}
	}
	if req.MaxTokens != nil && (*req.MaxTokens < MinMaxTokens || *req.MaxTokens > MaxMaxTokens) {
		return &ValidationError{Field: "max_tokens", Reason: fmt.Sprintf("must be between %d and %d", MinMaxTokens, MaxMaxTokens)}
	}
	if err := checkSampling("temperature", req.Temperature); err != nil {
		return err
	}
	return checkSampling("top_p", req.TopP)
}

func checkSampling(field string, v *float64) error {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || *v < MinSampling || *v > MaxSampling {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("must be between %.1f and %.1f", MinSampling, MaxSampling)}
	}
	return nil
}
