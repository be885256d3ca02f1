package manager

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// createModelFile creates a small placeholder artifact and returns its path.
func createModelFile(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("GGUF"), 0o644); err != nil {
		t.Fatalf("create file: %v", err)
	}
	return p
}

// fakeAdapter is a lightweight in-memory adapter used for tests.
type fakeAdapter struct {
	mu        sync.Mutex
	loads     int
	gotCfg    ModelConfig
	loadErr   error
	loadPanic bool
	loadDelay time.Duration
	gate      chan struct{} // when set, Load waits for it to close
	handle    *fakeHandle
}

func (a *fakeAdapter) Load(cfg ModelConfig) (ModelHandle, error) {
	a.mu.Lock()
	a.loads++
	a.gotCfg = cfg
	a.mu.Unlock()
	if a.loadDelay > 0 {
		time.Sleep(a.loadDelay)
	}
	if a.gate != nil {
		<-a.gate
	}
	if a.loadPanic {
		panic("native crash")
	}
	if a.loadErr != nil {
		return nil, a.loadErr
	}
	if a.handle == nil {
		a.handle = &fakeHandle{out: okCompletion("ok", 1)}
	}
	return a.handle, nil
}

func (a *fakeAdapter) loadCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loads
}

// fakeHandle records calls. The first failFirst calls return an error; when
// block is set, Generate waits on it after signalling started.
type fakeHandle struct {
	mu        sync.Mutex
	calls     int
	prompts   []string
	params    []InferParams
	failFirst int
	out       Completion
	genErr    error
	panicGen  bool
	block     chan struct{}
	started   chan struct{}
	backend   string
	closed    int
	closeErr  error

	inflight    atomic.Int32
	maxInflight atomic.Int32
}

func (h *fakeHandle) Generate(ctx context.Context, prompt string, params InferParams) (Completion, error) {
	h.mu.Lock()
	h.calls++
	n := h.calls
	h.prompts = append(h.prompts, prompt)
	h.params = append(h.params, params)
	h.mu.Unlock()

	cur := h.inflight.Add(1)
	defer h.inflight.Add(-1)
	for {
		old := h.maxInflight.Load()
		if cur <= old || h.maxInflight.CompareAndSwap(old, cur) {
			break
		}
	}

	if n <= h.failFirst {
		return Completion{}, errors.New("warm-up boom")
	}
	if h.started != nil {
		h.started <- struct{}{}
	}
	if h.block != nil {
		<-h.block
	}
	if h.panicGen {
		panic("engine exploded")
	}
	if h.genErr != nil {
		return Completion{}, h.genErr
	}
	return h.out, nil
}

func (h *fakeHandle) Backend() string {
	if h.backend == "" {
		return "cpu"
	}
	return h.backend
}

func (h *fakeHandle) ContextSize() int { return 2048 }

func (h *fakeHandle) Close() error {
	h.mu.Lock()
	h.closed++
	h.mu.Unlock()
	return h.closeErr
}

func (h *fakeHandle) callCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

func (h *fakeHandle) closeCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *fakeHandle) lastParams() InferParams {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.params[len(h.params)-1]
}

func okCompletion(text string, tokens int) Completion {
	return Completion{
		Choices: []Choice{{Text: text, FinishReason: "stop"}},
		Usage:   &Usage{CompletionTokens: tokens, TotalTokens: tokens},
	}
}

// newTestManager builds a manager over a real placeholder artifact.
func newTestManager(t *testing.T, a *fakeAdapter, pub EventPublisher) *Manager {
	t.Helper()
	p := createModelFile(t, t.TempDir(), "m.gguf")
	return NewWithConfig(ManagerConfig{
		Model:         ModelConfig{ModelPath: p, ContextSize: 2048},
		Adapter:       a,
		WarmupBackoff: time.Millisecond,
		Publisher:     pub,
	})
}

// newReadyManager returns an initialized manager over h.
func newReadyManager(t *testing.T, h *fakeHandle) (*Manager, *fakeAdapter) {
	t.Helper()
	a := &fakeAdapter{handle: h}
	m := newTestManager(t, a, nil)
	if err := m.Initialize(testCtx(t)); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return m, a
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}
