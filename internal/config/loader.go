package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"chatd/internal/manager"
)

// Config holds runtime parameters for the service.
type Config struct {
	// Model runtime
	ModelPath    string `json:"model_path" yaml:"model_path" toml:"model_path"`
	CtxSize      int    `json:"ctx_size" yaml:"ctx_size" toml:"ctx_size"`
	GPULayers    int    `json:"gpu_layers" yaml:"gpu_layers" toml:"gpu_layers"`
	Threads      int    `json:"threads" yaml:"threads" toml:"threads"`
	ThreadsBatch int    `json:"threads_batch" yaml:"threads_batch" toml:"threads_batch"`
	Batch        int    `json:"batch" yaml:"batch" toml:"batch"`
	OffloadKQV   bool   `json:"offload_kqv" yaml:"offload_kqv" toml:"offload_kqv"`
	UseMMap      bool   `json:"use_mmap" yaml:"use_mmap" toml:"use_mmap"`
	UseMLock     bool   `json:"use_mlock" yaml:"use_mlock" toml:"use_mlock"`
	FlashAttn    bool   `json:"flash_attn" yaml:"flash_attn" toml:"flash_attn"`

	WarmupRetries int `json:"warmup_retries" yaml:"warmup_retries" toml:"warmup_retries"`

	// HTTP
	Host           string   `json:"host" yaml:"host" toml:"host"`
	Port           int      `json:"port" yaml:"port" toml:"port"`
	CORSOrigins    []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	RequestTimeout int      `json:"request_timeout" yaml:"request_timeout" toml:"request_timeout"`
	MaxBodyBytes   int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`

	// Logging
	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`

	// Lifecycle events; disabled when NATSURL is empty.
	NATSURL     string `json:"nats_url" yaml:"nats_url" toml:"nats_url"`
	NATSSubject string `json:"nats_subject" yaml:"nats_subject" toml:"nats_subject"`
}

// Default returns the built-in configuration.
func Default() Config {
	m := manager.DefaultModelConfig()
	return Config{
		CtxSize:       m.ContextSize,
		GPULayers:     m.GPULayers,
		Threads:       m.Threads,
		ThreadsBatch:  m.ThreadsBatch,
		Batch:         m.Batch,
		OffloadKQV:    m.OffloadKQV,
		UseMMap:       m.UseMMap,
		UseMLock:      m.UseMLock,
		FlashAttn:     m.FlashAttn,
		WarmupRetries: 1,
		Host:          "0.0.0.0",
		Port:          8000,
		CORSOrigins:   []string{"*"},
		MaxBodyBytes:  1 << 20,
		LogLevel:      "info",
		LogFormat:     "json",
		NATSSubject:   "chatd.events",
	}
}

// Load reads a configuration file based on its extension and overlays it on
// Default(). Keys absent from the file keep their default.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	case ".toml":
		err = toml.Unmarshal(b, &cfg)
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overlays environment variables onto cfg. Empty values are ignored.
func ApplyEnv(cfg Config, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	var errs []string
	setInt := func(key string, dst *int) {
		if v, ok := get(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s=%q: not an integer", key, v))
				return
			}
			*dst = n
		}
	}
	setBool := func(key string, dst *bool) {
		if v, ok := get(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s=%q: not a boolean", key, v))
				return
			}
			*dst = b
		}
	}
	setStr := func(key string, dst *string) {
		if v, ok := get(key); ok {
			*dst = v
		}
	}

	setStr("MISTRAL_MODEL_PATH", &cfg.ModelPath)
	setInt("MODEL_CTX", &cfg.CtxSize)
	setInt("GPU_LAYERS", &cfg.GPULayers)
	setInt("THREADS", &cfg.Threads)
	setInt("THREADS_BATCH", &cfg.ThreadsBatch)
	setBool("OFFLOAD_KQV", &cfg.OffloadKQV)
	setBool("USE_MMAP", &cfg.UseMMap)
	setBool("USE_MLOCK", &cfg.UseMLock)
	setBool("FLASH_ATTN", &cfg.FlashAttn)
	setStr("HOST", &cfg.Host)
	setInt("PORT", &cfg.Port)
	setInt("REQUEST_TIMEOUT", &cfg.RequestTimeout)
	setStr("LOG_LEVEL", &cfg.LogLevel)
	setStr("LOG_FORMAT", &cfg.LogFormat)
	setStr("NATS_URL", &cfg.NATSURL)
	setStr("NATS_SUBJECT", &cfg.NATSSubject)
	if v, ok := get("CORS_ORIGINS"); ok {
		cfg.CORSOrigins = SplitList(v)
	}
	if len(errs) > 0 {
		return cfg, fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate rejects values the server cannot start with.
func (c Config) Validate() error {
	// 0 picks an ephemeral port.
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative")
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("log_format must be json or console, got %q", c.LogFormat)
	}
	return nil
}

// Addr is the listen address.
func (c Config) Addr() string { return net.JoinHostPort(c.Host, strconv.Itoa(c.Port)) }

// Timeout is the per-request deadline, zero when disabled.
func (c Config) Timeout() time.Duration { return time.Duration(c.RequestTimeout) * time.Second }

// ModelConfig converts the runtime fields for the manager.
func (c Config) ModelConfig() manager.ModelConfig {
	return manager.ModelConfig{
		ModelPath:    c.ModelPath,
		ContextSize:  c.CtxSize,
		GPULayers:    c.GPULayers,
		Threads:      c.Threads,
		ThreadsBatch: c.ThreadsBatch,
		Batch:        c.Batch,
		OffloadKQV:   c.OffloadKQV,
		UseMMap:      c.UseMMap,
		UseMLock:     c.UseMLock,
		FlashAttn:    c.FlashAttn,
	}
}
