package platform

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage driver names accepted by Config.Storage.Driver.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the platform configuration, loaded from YAML with environment
// overrides.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
}

// APIConfig configures the backend transport.
type APIConfig struct {
	// BaseURL is the backend origin, e.g. "https://api.flai.travel".
	BaseURL string `yaml:"base_url"`

	// Timeout bounds a single request. Zero uses the transport default.
	Timeout time.Duration `yaml:"timeout"`
}

// StorageConfig selects and configures the persistence driver.
type StorageConfig struct {
	// Driver is one of memory, file, sqlite, postgres.
	Driver string `yaml:"driver"`

	// Path is the on-device data directory. Required for the file driver;
	// for SQL drivers it holds the secure tier alongside the database.
	Path string `yaml:"path"`

	// DSN is the database connection string for the sqlite and postgres
	// drivers.
	DSN string `yaml:"dsn"`
}

// LoadConfig loads configuration from a YAML file. An empty path yields the
// defaults. A .env file in the working directory is loaded first so it can
// feed the FLAI_* overrides, which are applied last.
func LoadConfig(path string) (*Config, error) {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- path is from CLI args, controlled by the host
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides applies FLAI_* environment variables over the file
// values.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("FLAI_API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("FLAI_API_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing FLAI_API_TIMEOUT: %w", err)
		}
		cfg.API.Timeout = d
	}
	if v := os.Getenv("FLAI_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("FLAI_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("FLAI_STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverMemory
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.API.BaseURL == "" {
		errs = append(errs, "api.base_url is required")
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverFile:
		if c.Storage.Path == "" {
			errs = append(errs, "storage.path is required for the file driver")
		}
	case DriverSQLite, DriverPostgres:
		if c.Storage.DSN == "" {
			errs = append(errs, fmt.Sprintf("storage.dsn is required for the %s driver", c.Storage.Driver))
		}
		if c.Storage.Path == "" {
			errs = append(errs, fmt.Sprintf("storage.path is required for the %s driver (secure tier location)", c.Storage.Driver))
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.driver %q is not one of memory, file, sqlite, postgres", c.Storage.Driver))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}
