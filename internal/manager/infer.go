package manager

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultStops end generation at the end-of-sequence marker or when the model
// starts a new instruction block.
var DefaultStops = []string{"</s>", "[INST]"}

// Generate runs one completion against the ready handle. Calls are
// serialized; the engine runs on its own goroutine so the caller can give up
// on ctx without waiting. A caller that gives up does not stop the native
// call: the execution lock is held until the engine returns.
func (m *Manager) Generate(ctx context.Context, prompt string, params InferParams) (Completion, error) {
	if _, err := m.readyHandle(); err != nil {
		generationsTotal.WithLabelValues("unavailable").Inc()
		return Completion{}, err
	}
	if err := m.exec.Acquire(ctx, 1); err != nil {
		generationsTotal.WithLabelValues("abandoned").Inc()
		return Completion{}, err
	}
	// State may have changed while waiting for the lock.
	h, err := m.readyHandle()
	if err != nil {
		m.exec.Release(1)
		generationsTotal.WithLabelValues("unavailable").Inc()
		return Completion{}, err
	}
	params.Stop = withStops(params.Stop)

	type result struct {
		c   Completion
		err error
	}
	done := make(chan result, 1)
	start := time.Now()
	go func() {
		defer m.exec.Release(1)
		c, err := callEngine(ctx, h, prompt, params)
		generationDuration.Observe(time.Since(start).Seconds())
		done <- result{c: c, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(r.err, ctxErr) {
				generationsTotal.WithLabelValues("abandoned").Inc()
				return Completion{}, r.err
			}
			generationsTotal.WithLabelValues("error").Inc()
			m.log.Error().Err(r.err).Dur("dur", time.Since(start)).Msg("generation failed")
			return Completion{}, r.err
		}
		if err := validateCompletion(r.c); err != nil {
			generationsTotal.WithLabelValues("error").Inc()
			m.log.Error().Err(err).Interface("output", r.c).Msg("invalid model output")
			return Completion{}, err
		}
		generationsTotal.WithLabelValues("ok").Inc()
		completionTokensTotal.Add(float64(r.c.Usage.CompletionTokens))
		return r.c, nil
	case <-ctx.Done():
		generationsTotal.WithLabelValues("abandoned").Inc()
		m.log.Warn().Err(ctx.Err()).Dur("waited", time.Since(start)).Msg("caller gave up on generation")
		return Completion{}, ctx.Err()
	}
}

func (m *Manager) readyHandle() (ModelHandle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != StateReady || m.handle == nil {
		return nil, ErrModelUnavailable(m.state)
	}
	return m.handle, nil
}

// callEngine isolates engine panics so one request cannot take the process down.
func callEngine(ctx context.Context, h ModelHandle, prompt string, params InferParams) (c Completion, err error) {
	defer func() {
		if r := recover(); r != nil {
			c = Completion{}
			err = generationError{msg: "engine panic", err: fmt.Errorf("%v", r)}
		}
	}()
	c, err = h.Generate(ctx, prompt, params)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return Completion{}, err
		}
		return Completion{}, generationError{msg: "engine error", err: err}
	}
	return c, nil
}

func validateCompletion(c Completion) error {
	if len(c.Choices) == 0 {
		return generationError{msg: "model output has no choices"}
	}
	if c.Usage == nil {
		return generationError{msg: "model output has no usage counters"}
	}
	if c.Usage.CompletionTokens < 0 {
		return generationError{msg: fmt.Sprintf("negative completion token count %d", c.Usage.CompletionTokens)}
	}
	return nil
}

// withStops returns stop plus any DefaultStops it lacks.
func withStops(stop []string) []string {
	out := append([]string(nil), stop...)
	for _, d := range DefaultStops {
		found := false
		for _, s := range out {
			if s == d {
				found = true
				break
			}
		}
		if !found {
			out = append(out, d)
		}
	}
	return out
}
