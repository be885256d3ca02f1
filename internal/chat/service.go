package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chatd/internal/manager"
	"chatd/pkg/types"
)

// Generator is the part of the model manager the pipeline needs.
type Generator interface {
	Generate(ctx context.Context, prompt string, params manager.InferParams) (manager.Completion, error)
	Status() types.ModelStatus
	Ready() bool
}

// Service runs the chat pipeline for one request at a time per caller.
type Service struct {
	gen Generator
	log zerolog.Logger
	now func() time.Time
}

// NewService returns a Service over gen.
func NewService(gen Generator, log zerolog.Logger) *Service {
	return &Service{gen: gen, log: log.With().Str("component", "chat").Logger(), now: time.Now}
}

// Chat validates, sanitizes and formats the message, generates a reply and
// postprocesses it. Errors from the manager are returned unchanged so the
// caller can map them.
func (s *Service) Chat(ctx context.Context, req types.ChatRequest) (types.ChatResponse, error) {
	log := s.log.With().Str("chat_id", uuid.NewString()).Logger()
	if err := Validate(req); err != nil {
		log.Info().Err(err).Msg("chat request rejected")
		return types.ChatResponse{}, err
	}
	text := Sanitize(req.Message)
	if text == "" {
		log.Warn().Msg("message empty after sanitizing")
	}
	params := inferParams(req)
	log.Debug().Int("chars", len([]rune(text))).Int("max_tokens", params.MaxTokens).Msg("chat request")

	start := s.now()
	c, err := s.gen.Generate(ctx, FormatPrompt(text), params)
	elapsed := s.now().Sub(start)
	if err != nil {
		log.Error().Err(err).Dur("elapsed", elapsed).Msg("chat generation failed")
		return types.ChatResponse{}, err
	}
	resp, err := Postprocess(c, elapsed)
	if err != nil {
		log.Error().Err(err).Msg("chat postprocess failed")
		return types.ChatResponse{}, err
	}
	resp.ModelStatus = s.gen.Status()
	log.Info().
		Int("tokens", resp.TokensUsed).
		Float64("processing_time", resp.ProcessingTime).
		Float64("tokens_per_sec", resp.TokensPerSec).
		Msg("chat completed")
	return resp, nil
}

// Status returns the model status.
func (s *Service) Status() types.ModelStatus { return s.gen.Status() }

// Ready reports whether the model accepts generations.
func (s *Service) Ready() bool { return s.gen.Ready() }

func inferParams(req types.ChatRequest) manager.InferParams {
	p := manager.InferParams{
		MaxTokens:     DefaultMaxTokens,
		Temperature:   DefaultTemperature,
		TopP:          DefaultTopP,
		RepeatPenalty: DefaultRepeatPenalty,
		Stop:          append([]string(nil), manager.DefaultStops...),
	}
	if req.MaxTokens != nil {
		p.MaxTokens = *req.MaxTokens
	}
	if req.Temperature != nil {
		p.Temperature = float32(*req.Temperature)
	}
	if req.TopP != nil {
		p.TopP = float32(*req.TopP)
	}
	return p
}
