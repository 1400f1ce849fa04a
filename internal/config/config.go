package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/rflorenc/cloudmc-client/pkg/cloudmc"
)

// Environment variables overriding the config file.
const (
	EnvEndpoint = "CLOUDMC_ENDPOINT"
	EnvAPIKey   = "CLOUDMC_API_KEY"
)

// ConnectionConfig represents a pre-configured connection in the config file.
type ConnectionConfig struct {
	Name        string `yaml:"name"`
	ServiceCode string `yaml:"service_code"`
	Environment string `yaml:"environment"`
}

// PollingConfig controls how pending tasks are followed.
type PollingConfig struct {
	Strategy    string        `yaml:"strategy"` // "constant" or "exponential"
	Interval    time.Duration `yaml:"interval"`
	MaxInterval time.Duration `yaml:"max_interval"`
	// MaxAttempts of 0 polls until the task finishes; nil keeps the default.
	MaxAttempts *int `yaml:"max_attempts"`
}

// Config holds all configuration (config file, environment, CLI flags).
type Config struct {
	Endpoint    string             `yaml:"endpoint"`
	APIKey      string             `yaml:"api_key"`
	Timeout     time.Duration      `yaml:"timeout"`
	Listen      string             `yaml:"listen"`
	LogLevel    string             `yaml:"log_level"`
	Polling     PollingConfig      `yaml:"polling"`
	Connections []ConnectionConfig `yaml:"connections"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	attempts := cloudmc.DefaultPollMaxAttempts
	return &Config{
		Timeout:  30 * time.Second,
		Listen:   ":8080",
		LogLevel: "info",
		Polling: PollingConfig{
			Strategy:    string(cloudmc.PollConstant),
			Interval:    cloudmc.DefaultPollInterval,
			MaxInterval: cloudmc.DefaultPollMaxInterval,
			MaxAttempts: &attempts,
		},
	}
}

// Load reads the YAML file at path, if any, over the defaults and then
// applies environment overrides. Command flags are applied by the caller.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		if err := c.loadFile(path); err != nil {
			return nil, err
		}
	}
	c.applyEnv()
	return c, nil
}

// loadFile reads a YAML config file. Keys absent from the file keep their
// current values.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvEndpoint); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.APIKey = v
	}
}

// Validate checks the settings needed to build a client and returns every
// problem found.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Endpoint == "" {
		result = multierror.Append(result,
			fmt.Errorf("endpoint is required (set it in the config file or %s)", EnvEndpoint))
	} else if u, err := url.Parse(c.Endpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		result = multierror.Append(result,
			fmt.Errorf("endpoint must be an http or https URL, got %q", c.Endpoint))
	}
	if c.APIKey == "" {
		result = multierror.Append(result,
			fmt.Errorf("api_key is required (set it in the config file or %s)", EnvAPIKey))
	}
	if c.Timeout <= 0 {
		result = multierror.Append(result,
			fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}

	switch cloudmc.PollStrategy(c.Polling.Strategy) {
	case "", cloudmc.PollConstant, cloudmc.PollExponential:
	default:
		result = multierror.Append(result,
			fmt.Errorf("polling.strategy must be %q or %q, got %q",
				cloudmc.PollConstant, cloudmc.PollExponential, c.Polling.Strategy))
	}
	if c.Polling.Interval < 0 {
		result = multierror.Append(result,
			fmt.Errorf("polling.interval must not be negative, got %s", c.Polling.Interval))
	}
	if c.Polling.MaxInterval < 0 {
		result = multierror.Append(result,
			fmt.Errorf("polling.max_interval must not be negative, got %s", c.Polling.MaxInterval))
	}
	if c.Polling.MaxAttempts != nil && *c.Polling.MaxAttempts < 0 {
		result = multierror.Append(result,
			fmt.Errorf("polling.max_attempts must not be negative, got %d", *c.Polling.MaxAttempts))
	}

	seen := make(map[string]bool)
	for i, conn := range c.Connections {
		if conn.Name == "" || conn.ServiceCode == "" || conn.Environment == "" {
			result = multierror.Append(result,
				fmt.Errorf("connections[%d]: name, service_code and environment are required", i))
			continue
		}
		if seen[conn.Name] {
			result = multierror.Append(result,
				fmt.Errorf("connections[%d]: duplicate name %q", i, conn.Name))
		}
		seen[conn.Name] = true
	}

	return result.ErrorOrNil()
}

// ClientPolling converts the polling section to the client's type.
func (c *Config) ClientPolling() cloudmc.PollingConfig {
	p := cloudmc.PollingConfig{
		Strategy:    cloudmc.PollStrategy(c.Polling.Strategy),
		Interval:    c.Polling.Interval,
		MaxInterval: c.Polling.MaxInterval,
		MaxAttempts: cloudmc.DefaultPollMaxAttempts,
	}
	if c.Polling.MaxAttempts != nil {
		p.MaxAttempts = *c.Polling.MaxAttempts
	}
	return p
}

// ClientOptions returns the options for cloudmc.New.
func (c *Config) ClientOptions(logger hclog.Logger, metrics *cloudmc.Metrics) cloudmc.Options {
	return cloudmc.Options{
		APIKey:  c.APIKey,
		Timeout: c.Timeout,
		Polling: c.ClientPolling(),
		Logger:  logger,
		Metrics: metrics,
	}
}

// NewClient validates the configuration and builds a client from it.
func (c *Config) NewClient(logger hclog.Logger, metrics *cloudmc.Metrics) (*cloudmc.Client, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	client, err := cloudmc.New(c.Endpoint, c.ClientOptions(logger, metrics))
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	return client, nil
}
