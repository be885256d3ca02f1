package manager

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"

	"chatd/internal/common/fsutil"
	"chatd/internal/registry"
)

// Loader resolves a ModelConfig and constructs a handle through an adapter.
type Loader struct {
	adapter InferenceAdapter
	log     zerolog.Logger
}

// NewLoader returns a Loader backed by adapter.
func NewLoader(adapter InferenceAdapter, log zerolog.Logger) *Loader {
	return &Loader{adapter: adapter, log: log}
}

// MergeModelConfig applies overrides onto defaults key by key. Keys use the
// mapstructure names of ModelConfig; string values are converted, so flag and
// env input can be passed through unchanged. Unknown keys are rejected.
func MergeModelConfig(defaults ModelConfig, overrides map[string]any) (ModelConfig, error) {
	cfg := defaults
	if len(overrides) == 0 {
		return cfg, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return defaults, err
	}
	if err := dec.Decode(overrides); err != nil {
		return defaults, fmt.Errorf("apply overrides: %w", err)
	}
	return cfg, nil
}

// Load merges overrides onto defaults, checks that the artifact exists and
// constructs the handle. It never panics: adapter panics become load errors.
func (l *Loader) Load(ctx context.Context, defaults ModelConfig, overrides map[string]any) (h ModelHandle, cfg ModelConfig, err error) {
	cfg, err = MergeModelConfig(defaults, overrides)
	if err != nil {
		l.log.Error().Err(err).Msg("model config rejected")
		return nil, cfg, loadError{stage: "config", err: err}
	}
	if strings.TrimSpace(cfg.ModelPath) == "" {
		return nil, cfg, artifactNotFoundError{reason: "model path not configured"}
	}
	art, err := registry.ResolveArtifact(cfg.ModelPath)
	if err != nil {
		return nil, cfg, artifactNotFoundError{path: cfg.ModelPath, reason: err.Error()}
	}
	if !fsutil.PathExists(art.Path) {
		return nil, cfg, artifactNotFoundError{path: art.Path}
	}
	cfg.ModelPath = art.Path
	if err := ctx.Err(); err != nil {
		return nil, cfg, loadError{stage: "construct", err: err}
	}

	l.log.Info().
		Dict("config", cfg.logDict()).
		Str("artifact_size", humanize.Bytes(uint64(art.SizeBytes))).
		Str("quant", art.Quant).
		Msg("loading model")

	defer func() {
		if r := recover(); r != nil {
			h = nil
			err = loadError{stage: "construct", err: fmt.Errorf("panic: %v", r)}
			l.log.Error().Err(err).Dict("config", cfg.logDict()).Msg("model loading failed")
		}
	}()
	h, err = l.adapter.Load(cfg)
	if err != nil {
		l.log.Error().Err(err).Dict("config", cfg.logDict()).Msg("model loading failed")
		return nil, cfg, loadError{stage: "construct", err: err}
	}
	if h == nil {
		return nil, cfg, loadError{stage: "construct", err: fmt.Errorf("adapter returned no handle")}
	}
	return h, cfg, nil
}
