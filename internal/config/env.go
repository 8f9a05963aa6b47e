package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Env carries process-level tuning read from TABLEKIT_* environment
// variables. These are deployment knobs rather than recipe semantics, so
// they live outside the recipe file; a recipe's explicit runtime values
// still win over them.
type Env struct {
	// Workers bounds per-partition parallelism when the recipe does not set
	// runtime.workers. 0 keeps the engine sequential.
	Workers int `envconfig:"WORKERS" default:"0"`

	// BatchSize is the fallback row-batch size for database writes.
	BatchSize int `envconfig:"BATCH_SIZE" default:"5000"`

	// ChannelBuffer is the fallback buffer between writer stages.
	ChannelBuffer int `envconfig:"CHANNEL_BUFFER" default:"1024"`

	// LogLevel and LogFormat configure the process logger ("debug", "info",
	// "warn", "error"; "text" or "json").
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	// MetricsBackend selects the metrics sink ("pushgateway" or "none");
	// PushgatewayURL is its base URL. Flags override both.
	MetricsBackend string `envconfig:"METRICS_BACKEND"`
	PushgatewayURL string `envconfig:"PUSHGATEWAY_URL"`
}

// LoadEnv reads Env from the process environment.
func LoadEnv() (Env, error) {
	var e Env
	if err := envconfig.Process("tablekit", &e); err != nil {
		return Env{}, fmt.Errorf("read environment: %w", err)
	}
	return e, nil
}

// EffectiveRuntime resolves the runtime knobs for one run: explicit recipe
// values first, environment values otherwise.
func (e Env) EffectiveRuntime(r RuntimeConfig) RuntimeConfig {
	return RuntimeConfig{
		Workers:       pickInt(r.Workers, e.Workers),
		BatchSize:     pickInt(r.BatchSize, e.BatchSize),
		ChannelBuffer: pickInt(r.ChannelBuffer, e.ChannelBuffer),
	}
}

// pickInt selects a when positive, b otherwise.
func pickInt(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}
