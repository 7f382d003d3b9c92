package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"timelock-scope/internal/client"
	"timelock-scope/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	API     APIConfig      `mapstructure:"api"`
	Monitor MonitorConfig  `mapstructure:"monitor"`
	Logging logging.Config `mapstructure:"logging"`
}

// APIConfig covers backend connectivity.
type APIConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// MonitorConfig sets live-feed defaults.
type MonitorConfig struct {
	Interval    int    `mapstructure:"interval"` // seconds
	MinSeverity string `mapstructure:"min_severity"`
	Buffer      int    `mapstructure:"buffer"`
}

// Load builds configuration from file, environment, and defaults.
// Environment keys use the TLSCOPE prefix, e.g. TLSCOPE_API_BASE_URL.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TLSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://127.0.0.1:8080")
	// Backend range scans can be slow, hence the generous bound.
	v.SetDefault("api.request_timeout", "120s")

	v.SetDefault("monitor.interval", 10)
	v.SetDefault("monitor.min_severity", "info")
	v.SetDefault("monitor.buffer", 200)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must be set")
	}
	if c.API.RequestTimeout <= 0 {
		return fmt.Errorf("api.request_timeout must be greater than zero")
	}
	if c.Monitor.Interval <= 0 {
		return fmt.Errorf("monitor.interval must be greater than zero")
	}
	if c.Monitor.Buffer <= 0 {
		return fmt.Errorf("monitor.buffer must be greater than zero")
	}
	switch c.Monitor.MinSeverity {
	case "info", "warning", "critical":
	default:
		return fmt.Errorf("monitor.min_severity must be one of info, warning, critical")
	}
	return nil
}

// ClientOptions maps the API section onto client options.
func (c *Config) ClientOptions() client.Options {
	return client.Options{
		BaseURL: c.API.BaseURL,
		Timeout: c.API.RequestTimeout,
	}
}

// MonitorOptions maps the monitor section onto subscription options.
func (c *Config) MonitorOptions() client.MonitorOptions {
	return client.MonitorOptions{
		Interval:    c.Monitor.Interval,
		MinSeverity: client.Severity(c.Monitor.MinSeverity),
	}
}
