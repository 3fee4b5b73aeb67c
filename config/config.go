package config

import (
	"fmt"
	"time"

	"github.com/Zaphodious/oosikle-app/log"
	"github.com/kelseyhightower/envconfig"
)

// Prefix of every environment variable read by Load, e.g. OOSIKLE_CATALOG.
const Prefix = "oosikle"

// Config holds all application configuration.
type Config struct {
	// Catalog is the address of the file catalog, see catalog.ParseAddress.
	Catalog string `envconfig:"CATALOG" default:"sqlite://oosikle.db"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile  string `envconfig:"LOG_FILE"`
	LogJSON  bool   `envconfig:"LOG_JSON" default:"false"`

	// QueueCapacity bounds the work items waiting on the catalog shrine.
	QueueCapacity int `envconfig:"QUEUE_CAPACITY" default:"64"`
	// CallTimeout limits how long a caller waits for the catalog shrine to answer.
	CallTimeout time.Duration `envconfig:"CALL_TIMEOUT" default:"30s"`

	// MetricsAddr serves /metrics when set, e.g. ":9464".
	MetricsAddr string `envconfig:"METRICS_ADDR"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Catalog:       "sqlite://oosikle.db",
		LogLevel:      "info",
		QueueCapacity: 64,
		CallTimeout:   30 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.Catalog == "" {
		return fmt.Errorf("invalid config: catalog address must not be empty")
	}
	if c.QueueCapacity < 0 {
		return fmt.Errorf("invalid config: queue capacity %d must not be negative", c.QueueCapacity)
	}
	if c.CallTimeout < 0 {
		return fmt.Errorf("invalid config: call timeout %s must not be negative", c.CallTimeout)
	}
	if _, err := log.Parse(c.LogLevel); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Logger builds the root logger described by the logging settings.
func (c *Config) Logger() (*log.Logger, error) {
	level, err := log.Parse(c.LogLevel)
	if err != nil {
		return nil, err
	}

	logger := log.NewLogger("oosikle", level, c.LogFile, false)
	logger.JSON = c.LogJSON
	return logger, nil
}
