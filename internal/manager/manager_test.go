package manager

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestNewWithConfigDefaults(t *testing.T) {
	m := NewWithConfig(ManagerConfig{Adapter: &fakeAdapter{}})
	if m.warmupRetries != defaultWarmupRetries {
		t.Fatalf("expected default warmupRetries=%d got %d", defaultWarmupRetries, m.warmupRetries)
	}
	if m.warmupBackoff != defaultWarmupBackoff {
		t.Fatalf("expected default warmupBackoff=%v got %v", defaultWarmupBackoff, m.warmupBackoff)
	}
	if m.Snapshot().State != StateUninitialized {
		t.Fatalf("expected uninitialized, got %s", m.Snapshot().State)
	}
	m = NewWithConfig(ManagerConfig{Adapter: &fakeAdapter{}, WarmupRetries: -1})
	if m.warmupRetries != 0 {
		t.Fatalf("negative retries should disable retrying, got %d", m.warmupRetries)
	}
}

func TestNewWithConfigCopiesOverrides(t *testing.T) {
	ov := map[string]any{"n_ctx": 4096}
	m := NewWithConfig(ManagerConfig{Adapter: &fakeAdapter{}, Overrides: ov})
	ov["n_ctx"] = 1
	if m.overrides["n_ctx"] != 4096 {
		t.Fatalf("overrides aliased caller map: %v", m.overrides)
	}
}

func TestInitialize_ConcurrentCallsLoadOnce(t *testing.T) {
	a := &fakeAdapter{loadDelay: 20 * time.Millisecond}
	m := newTestManager(t, a, nil)
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- m.Initialize(context.Background())
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("initialize: %v", err)
		}
	}
	if got := a.loadCount(); got != 1 {
		t.Fatalf("expected exactly one load, got %d", got)
	}
	if !m.Ready() {
		t.Fatalf("expected ready")
	}
}

func TestInitialize_ArtifactNotFoundIsTerminal(t *testing.T) {
	a := &fakeAdapter{}
	m := NewWithConfig(ManagerConfig{Model: ModelConfig{ModelPath: "/definitely/missing.gguf"}, Adapter: a})
	err := m.Initialize(context.Background())
	if !IsArtifactNotFound(err) {
		t.Fatalf("expected artifact not found, got %v", err)
	}
	if s := m.Snapshot(); s.State != StateFailed || s.Err == "" {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
	// failed is terminal: no retry, same error
	err2 := m.Initialize(context.Background())
	if !IsArtifactNotFound(err2) {
		t.Fatalf("expected recorded error, got %v", err2)
	}
	if a.loadCount() != 0 {
		t.Fatalf("adapter must not be called for a missing artifact")
	}
}

func TestInitialize_LoadErrorIsTerminal(t *testing.T) {
	a := &fakeAdapter{loadErr: errors.New("bad magic")}
	m := newTestManager(t, a, nil)
	if err := m.Initialize(context.Background()); !IsLoadError(err) {
		t.Fatalf("expected load error, got %v", err)
	}
	if err := m.Initialize(context.Background()); !IsLoadError(err) {
		t.Fatalf("expected recorded load error, got %v", err)
	}
	if a.loadCount() != 1 {
		t.Fatalf("expected a single load attempt, got %d", a.loadCount())
	}
	if m.Ready() {
		t.Fatalf("must not be ready after failure")
	}
}

func TestInitialize_LoadPanicBecomesLoadError(t *testing.T) {
	m := newTestManager(t, &fakeAdapter{loadPanic: true}, nil)
	err := m.Initialize(context.Background())
	if !IsLoadError(err) {
		t.Fatalf("expected load error from panic, got %v", err)
	}
	if m.Snapshot().State != StateFailed {
		t.Fatalf("expected failed state")
	}
}

func TestInitialize_WarmupUsesMinimalParams(t *testing.T) {
	h := &fakeHandle{out: okCompletion("x", 1)}
	newReadyManager(t, h)
	if h.callCount() != 1 {
		t.Fatalf("expected one warm-up call, got %d", h.callCount())
	}
	if h.prompts[0] != "" || h.params[0].MaxTokens != 1 {
		t.Fatalf("unexpected warm-up call: prompt=%q params=%+v", h.prompts[0], h.params[0])
	}
}

func TestInitialize_WarmupRetriedOnce(t *testing.T) {
	h := &fakeHandle{failFirst: 1, out: okCompletion("x", 1)}
	pub := NewMemoryPublisher()
	m := newTestManager(t, &fakeAdapter{handle: h}, pub)
	if err := m.Initialize(testCtx(t)); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if h.callCount() != 2 {
		t.Fatalf("expected 2 warm-up calls, got %d", h.callCount())
	}
	found := false
	for _, n := range pub.Names() {
		if n == "warmup_retry" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected warmup_retry event, got %v", pub.Names())
	}
}

func TestInitialize_WarmupFailureClosesHandle(t *testing.T) {
	h := &fakeHandle{failFirst: 10}
	m := newTestManager(t, &fakeAdapter{handle: h}, nil)
	err := m.Initialize(testCtx(t))
	if !IsLoadError(err) {
		t.Fatalf("expected load error, got %v", err)
	}
	if h.callCount() != 2 {
		t.Fatalf("expected initial try plus one retry, got %d", h.callCount())
	}
	if h.closeCount() != 1 {
		t.Fatalf("expected handle closed once, got %d", h.closeCount())
	}
	if st := m.Status(); st.Status != string(StateFailed) || st.ContextSize != "0" {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestInitialize_WarmupRetryDisabled(t *testing.T) {
	h := &fakeHandle{failFirst: 1}
	p := createModelFile(t, t.TempDir(), "m.gguf")
	m := NewWithConfig(ManagerConfig{Model: ModelConfig{ModelPath: p}, Adapter: &fakeAdapter{handle: h}, WarmupRetries: -1})
	if err := m.Initialize(testCtx(t)); err == nil {
		t.Fatalf("expected failure")
	}
	if h.callCount() != 1 {
		t.Fatalf("expected no retry, got %d calls", h.callCount())
	}
}

func TestInitialize_PassesMergedConfig(t *testing.T) {
	a := &fakeAdapter{}
	p := createModelFile(t, t.TempDir(), "m.gguf")
	m := NewWithConfig(ManagerConfig{
		Model:     ModelConfig{ModelPath: p, ContextSize: 2048, Threads: 6},
		Overrides: map[string]any{"n_ctx": "4096"},
		Adapter:   a,
	})
	if err := m.Initialize(testCtx(t)); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if a.gotCfg.ContextSize != 4096 || a.gotCfg.Threads != 6 || a.gotCfg.ModelPath != p {
		t.Fatalf("unexpected config: %+v", a.gotCfg)
	}
}

func TestShutdown_BeforeInitializeIsNoop(t *testing.T) {
	a := &fakeAdapter{}
	m := newTestManager(t, a, nil)
	if err := m.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if m.Snapshot().State != StateUninitialized {
		t.Fatalf("state changed: %s", m.Snapshot().State)
	}
	// still initializable afterwards
	if err := m.Initialize(testCtx(t)); err != nil {
		t.Fatalf("initialize after no-op shutdown: %v", err)
	}
}

func TestShutdown_AfterFailureIsNoop(t *testing.T) {
	m := newTestManager(t, &fakeAdapter{loadErr: errors.New("x")}, nil)
	_ = m.Initialize(context.Background())
	if err := m.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if m.Snapshot().State != StateFailed {
		t.Fatalf("expected failed to persist")
	}
}

func TestShutdown_ReleasesHandle(t *testing.T) {
	h := &fakeHandle{out: okCompletion("x", 1)}
	m, _ := newReadyManager(t, h)
	if err := m.Shutdown(testCtx(t)); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if h.closeCount() != 1 {
		t.Fatalf("expected close, got %d", h.closeCount())
	}
	if m.Ready() || m.Snapshot().State != StateTerminated {
		t.Fatalf("expected terminated, got %+v", m.Snapshot())
	}
	if _, err := m.Generate(testCtx(t), "p", InferParams{}); !IsModelUnavailable(err) {
		t.Fatalf("expected unavailable after shutdown, got %v", err)
	}
	if err := m.Initialize(testCtx(t)); !IsModelUnavailable(err) {
		t.Fatalf("expected unavailable on initialize after shutdown, got %v", err)
	}
	// second shutdown is a no-op
	if err := m.Shutdown(testCtx(t)); err != nil || h.closeCount() != 1 {
		t.Fatalf("second shutdown: err=%v closes=%d", err, h.closeCount())
	}
}

func TestShutdown_WaitsForInflightGeneration(t *testing.T) {
	h := &fakeHandle{out: okCompletion("x", 1)}
	m, _ := newReadyManager(t, h)
	h.block = make(chan struct{})
	h.started = make(chan struct{}, 1)

	genDone := make(chan error, 1)
	go func() {
		_, err := m.Generate(context.Background(), "p", InferParams{})
		genDone <- err
	}()
	<-h.started

	shutDone := make(chan error, 1)
	go func() { shutDone <- m.Shutdown(context.Background()) }()

	select {
	case <-shutDone:
		t.Fatalf("shutdown returned while a generation was running")
	case <-time.After(50 * time.Millisecond):
	}
	if h.closeCount() != 0 {
		t.Fatalf("handle closed under a running generation")
	}
	if st := m.Status().Status; st != string(StateShuttingDown) {
		t.Fatalf("expected shutting_down, got %s", st)
	}
	close(h.block)
	if err := <-genDone; err != nil {
		t.Fatalf("in-flight generation failed: %v", err)
	}
	if err := <-shutDone; err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if h.closeCount() != 1 {
		t.Fatalf("expected handle closed after generation")
	}
}

func TestShutdown_DeadlineLeavesHandleOpen(t *testing.T) {
	h := &fakeHandle{out: okCompletion("x", 1)}
	m, _ := newReadyManager(t, h)
	h.block = make(chan struct{})
	h.started = make(chan struct{}, 1)
	defer close(h.block)

	go func() { _, _ = m.Generate(context.Background(), "p", InferParams{}) }()
	<-h.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := m.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if h.closeCount() != 0 {
		t.Fatalf("handle must not be freed under a running generation")
	}
	if m.Snapshot().State != StateTerminated {
		t.Fatalf("expected terminated")
	}
}

func TestSnapshotAndStatus(t *testing.T) {
	m := NewWithConfig(ManagerConfig{Adapter: &fakeAdapter{}})
	st := m.Status()
	if st.Status != "uninitialized" || st.Backend != "cpu" || st.ContextSize != "0" {
		t.Fatalf("unexpected initial status: %+v", st)
	}
	h := &fakeHandle{out: okCompletion("x", 1), backend: "cuda"}
	m2, _ := newReadyManager(t, h)
	st = m2.Status()
	if st.Status != "ready" || st.Backend != "cuda" || st.ContextSize != "2048" {
		t.Fatalf("unexpected ready status: %+v", st)
	}
	s := m2.Snapshot()
	if s.State != StateReady || s.Backend != "cuda" || s.ContextSize != 2048 || s.Err != "" {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
}

func TestShutdown_DeadlineWhileInitializing(t *testing.T) {
	a := &fakeAdapter{gate: make(chan struct{})}
	m := newTestManager(t, a, nil)

	initDone := make(chan error, 1)
	go func() { initDone <- m.Initialize(context.Background()) }()
	deadline := time.Now().Add(time.Second)
	for a.loadCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	if err := m.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("shutdown ignored its deadline")
	}
	if st := m.Snapshot().State; st != StateInitializing {
		t.Fatalf("expected initializing, got %s", st)
	}

	close(a.gate)
	if err := <-initDone; err != nil {
		t.Fatalf("initialize: %v", err)
	}
	// a later shutdown still releases the handle
	if err := m.Shutdown(testCtx(t)); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if m.Snapshot().State != StateTerminated {
		t.Fatalf("expected terminated")
	}
}
