// Package manager owns the single model handle: loading, warm-up, serialized
// generation and shutdown. It is structured into small files by concern:
//
//   - manager.go: Manager type, Initialize/Shutdown lifecycle.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: State, ModelConfig, Snapshot.
//   - loader.go: Loader and override merging.
//   - infer.go: Generate, the execution lock and output shape checks.
//   - status_report.go: Status/Snapshot/Ready.
//   - errors.go: error types and helpers (IsArtifactNotFound, IsModelUnavailable, ...).
//   - events.go, eventpub_*.go: lifecycle events (memory for tests, NATS).
//   - metrics.go: Prometheus collectors.
//
// Build tags and runtimes:
//
//   - In-process llama: uses the go-llama.cpp adapter. Enabled with `-tags=llama`.
//     Files: adapter_llama.go, llama_cgo.go (linker rpath hints).
//     A no-CGO stub exists when the tag is not set: adapter_llama_stub.go.
//
// External packages should treat this package as the orchestration layer and use
// public methods only (New/NewWithConfig, Initialize, Generate, Status, Shutdown).
package manager
