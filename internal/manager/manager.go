package manager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/semaphore"
)

// warmupParams force lazy allocation with the smallest possible generation.
var warmupParams = InferParams{MaxTokens: 1}

// Manager owns the single model handle.
//
// Lock order: life, then exec, then mu. mu is only held for field access,
// never across a load or an engine call.
type Manager struct {
	life *semaphore.Weighted // serializes Initialize and Shutdown
	exec *semaphore.Weighted // execution lock: one generation at a time

	mu          sync.RWMutex
	state       State
	handle      ModelHandle
	cfg         ModelConfig
	backend     string
	contextSize int
	lastErr     error

	defaults      ModelConfig
	overrides     map[string]any
	loader        *Loader
	warmupRetries int
	warmupBackoff time.Duration
	publisher     EventPublisher
	log           zerolog.Logger
}

// New constructs a Manager with the in-process llama adapter.
func New(model ModelConfig, log zerolog.Logger) *Manager {
	// Delegate to NewWithConfig to centralize defaults and option parsing
	return NewWithConfig(ManagerConfig{Model: model, Logger: &log})
}

// SetEventPublisher replaces the event publisher. Call before Initialize.
func (m *Manager) SetEventPublisher(p EventPublisher) {
	if p == nil {
		p = noopPublisher{}
	}
	_ = m.life.Acquire(context.Background(), 1)
	m.publisher = p
	m.life.Release(1)
}

// Initialize loads and warms up the model. It is idempotent once ready; after
// a failure it returns the recorded error without loading again.
func (m *Manager) Initialize(ctx context.Context) error {
	if err := m.life.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("initialize: wait for lifecycle lock: %w", err)
	}
	defer m.life.Release(1)

	m.mu.RLock()
	st, lastErr := m.state, m.lastErr
	m.mu.RUnlock()
	switch st {
	case StateReady:
		return nil
	case StateFailed:
		return lastErr
	case StateShuttingDown, StateTerminated:
		return ErrModelUnavailable(st)
	}

	attempt := uuid.NewString()
	start := time.Now()
	m.setState(StateInitializing)
	m.log.Info().Str("attempt", attempt).Msg("initializing model")
	m.emit("init_start", attempt, nil)

	h, cfg, err := m.loader.Load(ctx, m.defaults, m.overrides)
	if err != nil {
		return m.fail(attempt, err)
	}
	m.emit("load_done", attempt, map[string]any{"dur_ms": time.Since(start).Milliseconds()})

	if err := m.warmup(ctx, attempt, h); err != nil {
		if cerr := h.Close(); cerr != nil {
			m.log.Warn().Err(cerr).Msg("close after failed warm-up")
		}
		return m.fail(attempt, loadError{stage: "warmup", err: err})
	}

	m.mu.Lock()
	m.handle = h
	m.cfg = cfg
	m.backend = h.Backend()
	m.contextSize = h.ContextSize()
	m.state = StateReady
	m.lastErr = nil
	backend := m.backend
	m.mu.Unlock()
	recordState(StateReady)

	dur := time.Since(start)
	modelLoadSeconds.Set(dur.Seconds())
	m.log.Info().Str("attempt", attempt).Str("backend", backend).Dur("dur", dur).Msg("model ready")
	m.emit("ready", attempt, map[string]any{"dur_ms": dur.Milliseconds(), "backend": backend})
	return nil
}

// warmup runs one minimal generation, retrying up to warmupRetries times.
func (m *Manager) warmup(ctx context.Context, attempt string, h ModelHandle) error {
	b := retry.WithMaxRetries(uint64(m.warmupRetries), retry.NewConstant(m.warmupBackoff))
	tries := 0
	return retry.Do(ctx, b, func(ctx context.Context) error {
		tries++
		if tries > 1 {
			m.log.Warn().Str("attempt", attempt).Int("try", tries).Msg("retrying warm-up")
			m.emit("warmup_retry", attempt, map[string]any{"try": tries})
		}
		if _, err := callEngine(ctx, h, "", warmupParams); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (m *Manager) fail(attempt string, err error) error {
	m.mu.Lock()
	m.state = StateFailed
	m.lastErr = err
	m.mu.Unlock()
	recordState(StateFailed)
	m.log.Error().Err(err).Str("attempt", attempt).Msg("model initialization failed")
	m.emit("init_failed", attempt, map[string]any{"error": err.Error()})
	return err
}

// Shutdown releases the handle. It waits, bounded by ctx, for a running
// Initialize and for an in-flight generation to finish first. Before
// initialization or after a failure it does nothing.
func (m *Manager) Shutdown(ctx context.Context) error {
	if err := m.life.Acquire(ctx, 1); err != nil {
		m.log.Error().Err(err).Msg("shutdown gave up waiting for initialization")
		return fmt.Errorf("shutdown: wait for initialization: %w", err)
	}
	defer m.life.Release(1)

	m.mu.Lock()
	h := m.handle
	if m.state != StateReady || h == nil {
		m.mu.Unlock()
		return nil
	}
	m.state = StateShuttingDown
	m.mu.Unlock()
	recordState(StateShuttingDown)
	m.log.Info().Msg("shutting down model")
	m.emit("shutdown_start", "", nil)

	if err := m.exec.Acquire(ctx, 1); err != nil {
		// Freeing under a running native call is unsafe; leave the handle to
		// the generation goroutine and let the process exit reclaim it.
		m.mu.Lock()
		m.handle = nil
		m.state = StateTerminated
		m.mu.Unlock()
		recordState(StateTerminated)
		m.log.Error().Err(err).Msg("shutdown gave up waiting for generation; native resources not released")
		err = fmt.Errorf("shutdown: wait for in-flight generation: %w", err)
		m.emit("shutdown_done", "", map[string]any{"error": err.Error()})
		return err
	}
	defer m.exec.Release(1)

	cerr := h.Close()
	m.mu.Lock()
	m.handle = nil
	m.state = StateTerminated
	m.mu.Unlock()
	recordState(StateTerminated)
	if cerr != nil {
		m.log.Error().Err(cerr).Msg("release model resources")
		err := fmt.Errorf("shutdown: close handle: %w", cerr)
		m.emit("shutdown_done", "", map[string]any{"error": err.Error()})
		return err
	}
	m.log.Info().Msg("model resources cleaned up")
	m.emit("shutdown_done", "", nil)
	return nil
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
	recordState(s)
}

func (m *Manager) emit(name, attempt string, fields map[string]any) {
	m.publisher.Publish(Event{Name: name, Attempt: attempt, Time: time.Now(), Fields: fields})
}
