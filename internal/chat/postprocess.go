package chat

import (
	"errors"
	"math"
	"regexp"
	"strings"
	"time"

	"chatd/internal/manager"
	"chatd/pkg/types"
)

var newlineRun = regexp.MustCompile(`\n+`)

// CleanText extracts the assistant reply from raw model text: the segment
// after the last instruction close marker, or the last non-blank segment
// when the marker is trailing.
func CleanText(raw string) string {
	parts := strings.Split(raw, InstClose)
	for i := len(parts) - 1; i >= 0; i-- {
		if text := cleanSegment(parts[i]); text != "" {
			return text
		}
	}
	return ""
}

func cleanSegment(s string) string {
	s = strings.ReplaceAll(s, EOS, "")
	s = strings.ReplaceAll(s, BOS, "")
	s = newlineRun.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

// Postprocess builds the response body from a completion. ModelStatus is
// left for the caller to attach.
func Postprocess(c manager.Completion, elapsed time.Duration) (types.ChatResponse, error) {
	if len(c.Choices) == 0 || c.Usage == nil {
		return types.ChatResponse{}, errors.New("postprocess: completion has no choices or usage")
	}
	secs := elapsed.Seconds()
	if secs < 0 {
		secs = 0
	}
	tokens := c.Usage.CompletionTokens
	pt := round(secs, 2)
	tps := 0.0
	if pt > 0 {
		tps = round(float64(tokens)/secs, 1)
	}
	if math.IsNaN(tps) || math.IsInf(tps, 0) {
		tps = 0
	}
	return types.ChatResponse{
		Response:       CleanText(c.Choices[0].Text),
		TokensUsed:     tokens,
		ProcessingTime: pt,
		TokensPerSec:   tps,
	}, nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
