package manager

import (
	"strconv"

	"chatd/pkg/types"
)

// Snapshot returns a read-only view of the manager state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Snapshot{State: m.state, Backend: m.backend, ContextSize: m.contextSize}
	if m.lastErr != nil {
		s.Err = m.lastErr.Error()
	}
	return s
}

// Status builds the wire status. It only takes the field read-lock, so it
// never waits on a generation in progress.
func (m *Manager) Status() types.ModelStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := types.ModelStatus{Status: string(m.state), Backend: "cpu", ContextSize: "0"}
	if m.handle != nil {
		st.Backend = m.backend
		st.ContextSize = strconv.Itoa(m.contextSize)
	}
	return st
}

// Ready reports whether a handle is loaded and accepting generations.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == StateReady && m.handle != nil
}
