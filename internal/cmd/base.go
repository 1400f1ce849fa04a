package cmd

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/rflorenc/cloudmc-client/internal/config"
)

// baseCommand holds what every subcommand shares: the logger, the UI and
// the flags that overlay the config file.
type baseCommand struct {
	Log hclog.Logger
	UI  cli.Ui

	flagConfig       string
	flagEndpoint     string
	flagLogLevel     string
	flagTimeout      time.Duration
	flagPollStrategy string
	flagPollInterval time.Duration
	flagPollAttempts int
}

func (c *baseCommand) flagSet(name string) *flag.FlagSet {
	f := flag.NewFlagSet(name, flag.ContinueOnError)
	f.Usage = func() {}
	f.SetOutput(&uiWriter{ui: c.UI})

	f.StringVar(&c.flagConfig, "config", "", "Path to config file (YAML)")
	f.StringVar(&c.flagEndpoint, "endpoint", "",
		"["+config.EnvEndpoint+"] API endpoint, e.g. https://cloudmc.example.com/api/v1")
	f.StringVar(&c.flagLogLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	f.DurationVar(&c.flagTimeout, "timeout", 0, "HTTP request timeout")
	f.StringVar(&c.flagPollStrategy, "poll-strategy", "", "Task polling strategy (constant, exponential)")
	f.DurationVar(&c.flagPollInterval, "poll-interval", 0, "Wait between task polls")
	f.IntVar(&c.flagPollAttempts, "poll-max-attempts", -1, "Maximum task polls, 0 for unlimited")
	return f
}

// loadConfig reads the config file and environment, then applies any flags
// that were set. The API key is read from the file or environment only.
func (c *baseCommand) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.flagConfig)
	if err != nil {
		return nil, err
	}
	if c.flagEndpoint != "" {
		cfg.Endpoint = c.flagEndpoint
	}
	if c.flagLogLevel != "" {
		cfg.LogLevel = c.flagLogLevel
	}
	if c.flagTimeout > 0 {
		cfg.Timeout = c.flagTimeout
	}
	if c.flagPollStrategy != "" {
		cfg.Polling.Strategy = c.flagPollStrategy
	}
	if c.flagPollInterval > 0 {
		cfg.Polling.Interval = c.flagPollInterval
	}
	if c.flagPollAttempts >= 0 {
		attempts := c.flagPollAttempts
		cfg.Polling.MaxAttempts = &attempts
	}

	level := hclog.LevelFromString(cfg.LogLevel)
	if level == hclog.NoLevel {
		return nil, fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}
	c.Log.SetLevel(level)
	return cfg, nil
}

// uiWriter sends flag package output to the UI's error stream.
type uiWriter struct {
	ui cli.Ui
}

func (w *uiWriter) Write(p []byte) (int, error) {
	w.ui.Error(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
