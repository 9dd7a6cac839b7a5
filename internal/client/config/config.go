package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/mealkeeper/internal/common"
)

// Config holds runtime settings for the mealkeeper CLI.
type Config struct {
	APIBaseURL          string        `env:"API_BASE_URL"`
	OnlineCheckInterval time.Duration `env:"ONLINE_CHECK_INTERVAL"`
	RequestTimeout      time.Duration `env:"REQUEST_TIMEOUT"`
	DatabasePath        string        `env:"DATABASE_PATH"`
	MealScope           string        `env:"MEAL_SCOPE"`

	LogFormat string `env:"LOG_FORMAT"`
	LogLevel  string `env:"LOG_LEVEL"`

	ExportDir       string `env:"EXPORT_DIR"`
	ExportBucket    string `env:"EXPORT_BUCKET"`
	ExportRegion    string `env:"EXPORT_REGION"`
	ExportEndpoint  string `env:"EXPORT_ENDPOINT"`
	ExportAccessKey string `env:"EXPORT_ACCESS_KEY"`
	ExportSecretKey string `env:"EXPORT_SECRET_KEY"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8000/api"
	c.OnlineCheckInterval = 3 * time.Second
	c.RequestTimeout = 12 * time.Second
	c.DatabasePath = common.DefaultDatabaseFile
	c.MealScope = "date"
	c.LogFormat = "text"
	c.LogLevel = "info"
	c.ExportDir = "exports"
	c.ExportRegion = "us-east-1"
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return errors.New("api base url is empty")
	}
	if c.OnlineCheckInterval <= 0 {
		return fmt.Errorf("online check interval must be positive, got %s", c.OnlineCheckInterval)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.DatabasePath == "" {
		return errors.New("database path is empty")
	}
	switch strings.ToLower(c.MealScope) {
	case "date", "all":
	default:
		return fmt.Errorf("meal scope must be date or all, got %q", c.MealScope)
	}
	return nil
}

// Load builds a Config from defaults, the environment, the JSON file named
// in args and the flags in args, in that order.
func Load(args []string, environ map[string]string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseEnv(cfg, environ); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}
	if err := parseJson(cfg, args); err != nil {
		return nil, fmt.Errorf("json config: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadConfig is Load over the process arguments and environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:], nil)
}
