package manager

import (
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultWarmupRetries = 1
	defaultWarmupBackoff = 250 * time.Millisecond
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	// Model holds the environment-derived defaults.
	Model ModelConfig
	// Overrides replace Model fields key by key (mapstructure names).
	Overrides map[string]any
	// Adapter defaults to NewLlamaAdapter().
	Adapter InferenceAdapter
	// WarmupRetries is the number of extra warm-up attempts. Zero uses the
	// default (1); negative disables retrying.
	WarmupRetries int
	WarmupBackoff time.Duration
	Publisher     EventPublisher
	Logger        *zerolog.Logger
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		state:     StateUninitialized,
		defaults:  cfg.Model,
		life:      semaphore.NewWeighted(1),
		exec:      semaphore.NewWeighted(1),
		publisher: noopPublisher{},
		log:       zerolog.Nop(),
	}
	if len(cfg.Overrides) > 0 {
		m.overrides = make(map[string]any, len(cfg.Overrides))
		for k, v := range cfg.Overrides {
			m.overrides[k] = v
		}
	}
	if cfg.Logger != nil {
		m.log = cfg.Logger.With().Str("component", "manager").Logger()
	}
	if cfg.Publisher != nil {
		m.publisher = cfg.Publisher
	}
	// Apply defaults if unset
	switch {
	case cfg.WarmupRetries == 0:
		m.warmupRetries = defaultWarmupRetries
	case cfg.WarmupRetries < 0:
		m.warmupRetries = 0
	default:
		m.warmupRetries = cfg.WarmupRetries
	}
	if cfg.WarmupBackoff <= 0 {
		m.warmupBackoff = defaultWarmupBackoff
	} else {
		m.warmupBackoff = cfg.WarmupBackoff
	}
	adapter := cfg.Adapter
	if adapter == nil {
		adapter = NewLlamaAdapter()
	}
	m.loader = NewLoader(adapter, m.log)
	recordState(m.state)
	return m
}
