package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tablekit/internal/config"
	"tablekit/internal/logging"
)

var (
	cfgFile            string
	flagLogLevel       string
	flagLogFormat      string
	flagMetricsBackend string
	flagPushgatewayURL string

	// env holds the resolved process settings for this invocation.
	env config.Env
)

var rootCmd = &cobra.Command{
	Use:   "tablekit",
	Short: "tablekit runs table-cleaning recipes over CSV and XLSX datasets",
	Long: `tablekit loads a delimited or Excel dataset under a column contract,
applies the recipe's transform steps (cumulative sums, ranking, duplicate
pruning, null-filling, column splits, value normalization) and delivers the
result to CSV exports, database tables or named in-memory snapshots.

Start a new dataset with "tablekit probe", check a recipe with
"tablekit validate", then execute it with "tablekit run".`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initSettings)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tablekit.yaml)")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.StringVar(&flagLogFormat, "log-format", "", "log format: text or json")
	pf.StringVar(&flagMetricsBackend, "metrics-backend", "", "metrics backend: pushgateway or none")
	pf.StringVar(&flagPushgatewayURL, "pushgateway-url", "", "Pushgateway base URL")
}

// initSettings resolves process settings before any subcommand runs:
// defaults, then the config file, then TABLEKIT_* environment variables,
// then flags. Later sources win.
func initSettings() {
	e, err := loadSettings(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	pf := rootCmd.PersistentFlags()
	if pf.Changed("log-level") {
		e.LogLevel = flagLogLevel
	}
	if pf.Changed("log-format") {
		e.LogFormat = flagLogFormat
	}
	if pf.Changed("metrics-backend") {
		e.MetricsBackend = flagMetricsBackend
	}
	if pf.Changed("pushgateway-url") {
		e.PushgatewayURL = flagPushgatewayURL
	}
	env = e

	logging.Setup(logging.Options{Format: env.LogFormat, Level: env.LogLevel})
}

// loadSettings reads the optional config file and the environment into a
// config.Env. An unreadable file named by --config is reported but does not
// stop the command; the settings built from the remaining sources are still
// returned.
func loadSettings(path string) (config.Env, error) {
	v := viper.New()
	v.SetEnvPrefix("tablekit")
	v.AutomaticEnv()

	// Defaults mirror the envconfig tags on config.Env.
	v.SetDefault("workers", 0)
	v.SetDefault("batch_size", 5000)
	v.SetDefault("channel_buffer", 1024)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("metrics_backend", "")
	v.SetDefault("pushgateway_url", "")

	var readErr error
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			readErr = fmt.Errorf("read config %s: %w", path, err)
		}
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigName(".tablekit")
		v.SetConfigType("yaml")
		// The default config file is optional.
		_ = v.ReadInConfig()
	}

	return config.Env{
		Workers:        v.GetInt("workers"),
		BatchSize:      v.GetInt("batch_size"),
		ChannelBuffer:  v.GetInt("channel_buffer"),
		LogLevel:       v.GetString("log_level"),
		LogFormat:      v.GetString("log_format"),
		MetricsBackend: v.GetString("metrics_backend"),
		PushgatewayURL: v.GetString("pushgateway_url"),
	}, readErr
}
