package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"chatd/internal/config"
	"chatd/internal/manager"
)

// newAdapter builds the inference runtime; tests swap it for a fake.
var newAdapter = manager.NewLlamaAdapter

// app carries state shared by subcommands after flags are parsed.
type app struct {
	configPath string
	cfg        config.Config
	log        zerolog.Logger
	overrides  map[string]string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "chatd",
		Short:         "Single-model chat inference gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (.yaml, .json or .toml)")
	root.PersistentFlags().String("log-level", "", "Log level: debug|info|warn|error (defaults LOG_LEVEL or info)")
	root.PersistentFlags().String("log-format", "", "Log format: json|console (defaults LOG_FORMAT or json)")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(a.configPath, os.LookupEnv, cmd.Flags())
		if err != nil {
			return err
		}
		a.cfg = cfg
		a.log = newLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
		return nil
	}

	root.AddCommand(newServeCmd(a), newVerifyCmd(a), newChatCmd(), newVersionCmd())
	return root
}

// addModelFlags registers flags that override model and server settings.
func addModelFlags(fs *pflag.FlagSet, a *app) {
	fs.String("model-path", "", "Path to the .gguf model file or a directory holding one (MISTRAL_MODEL_PATH)")
	fs.Int("ctx-size", 0, "Context window in tokens (MODEL_CTX)")
	fs.Int("gpu-layers", 0, "Layers offloaded to the GPU (GPU_LAYERS)")
	fs.Int("threads", 0, "Generation threads (THREADS)")
	fs.Int("warmup-retries", 0, "Extra warm-up attempts; negative disables retrying")
	fs.StringToStringVar(&a.overrides, "set", nil, "Model config override key=value, e.g. --set n_ctx=4096 (repeatable)")
}

// resolveConfig applies defaults < file < environment < flags.
func resolveConfig(path string, lookup config.LookupFunc, fs *pflag.FlagSet) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		c, err := config.Load(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = c
	}
	cfg, err := config.ApplyEnv(cfg, lookup)
	if err != nil {
		return cfg, err
	}
	if err := applyFlags(&cfg, fs); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// applyFlags copies explicitly set flags onto cfg.
func applyFlags(cfg *config.Config, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "log-level":
			cfg.LogLevel = f.Value.String()
		case "log-format":
			cfg.LogFormat = f.Value.String()
		case "model-path":
			cfg.ModelPath = f.Value.String()
		case "host":
			cfg.Host = f.Value.String()
		case "nats-url":
			cfg.NATSURL = f.Value.String()
		case "cors-origins":
			cfg.CORSOrigins = config.SplitList(f.Value.String())
		case "ctx-size":
			cfg.CtxSize, err = fs.GetInt(f.Name)
		case "gpu-layers":
			cfg.GPULayers, err = fs.GetInt(f.Name)
		case "threads":
			cfg.Threads, err = fs.GetInt(f.Name)
		case "warmup-retries":
			cfg.WarmupRetries, err = fs.GetInt(f.Name)
		case "port":
			cfg.Port, err = fs.GetInt(f.Name)
		case "request-timeout":
			var d time.Duration
			if d, err = fs.GetDuration(f.Name); err != nil {
				return
			}
			if d%time.Second != 0 {
				err = fmt.Errorf("--request-timeout %s: must be a whole number of seconds", d)
				return
			}
			cfg.RequestTimeout = int(d / time.Second)
		}
	})
	return err
}

// newLogger builds the process logger. Unknown levels fall back to info.
func newLogger(w io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "chatd").Logger()
}

// managerConfig builds the manager settings from the resolved config.
func (a *app) managerConfig() manager.ManagerConfig {
	var ov map[string]any
	if len(a.overrides) > 0 {
		ov = make(map[string]any, len(a.overrides))
		for k, v := range a.overrides {
			ov[k] = v
		}
	}
	log := a.log
	return manager.ManagerConfig{
		Model:         a.cfg.ModelConfig(),
		Overrides:     ov,
		Adapter:       newAdapter(),
		WarmupRetries: a.cfg.WarmupRetries,
		Logger:        &log,
	}
}
