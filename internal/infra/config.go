package infra

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds every application setting. LoadConfig reads the YAML file
// and then applies environment-variable overrides.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Port        int      `yaml:"port"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`

	Feed struct {
		Host            string `yaml:"host"`
		Port            int    `yaml:"port"`
		ReadBufferBytes int    `yaml:"read_buffer_bytes"`
	} `yaml:"feed"`

	Cache struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTLSec   int    `yaml:"ttl_sec"`
	} `yaml:"cache"`

	Storage struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// FeedAddr returns the host:port the feed listener binds to.
func (c *Config) FeedAddr() string {
	return fmt.Sprintf("%s:%d", c.Feed.Host, c.Feed.Port)
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Feed.Port <= 0 || c.Feed.Port > 65535 {
		return fmt.Errorf("invalid feed port: %d", c.Feed.Port)
	}
	if c.Feed.ReadBufferBytes < 0 {
		return fmt.Errorf("read buffer size must not be negative")
	}
	if c.Cache.Enabled && c.Cache.Addr == "" {
		return fmt.Errorf("cache enabled but no addr configured")
	}
	if c.Storage.Enabled && c.Storage.Path == "" {
		return fmt.Errorf("storage enabled but no path configured")
	}
	return nil
}

// overrideWithEnv overrides configuration values from environment variables
// when present.
func overrideWithEnv(cfg *Config) {
	if port := os.Getenv("BRIDGE_HTTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if host := os.Getenv("BRIDGE_FEED_HOST"); host != "" {
		cfg.Feed.Host = host
	}
	if port := os.Getenv("BRIDGE_FEED_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Feed.Port = p
		}
	}
	if addr := os.Getenv("BRIDGE_REDIS_ADDR"); addr != "" {
		cfg.Cache.Enabled = true
		cfg.Cache.Addr = addr
	}
	if pass := os.Getenv("BRIDGE_REDIS_PASSWORD"); pass != "" {
		cfg.Cache.Password = pass
	}
	if db := os.Getenv("BRIDGE_REDIS_DB"); db != "" {
		if d, err := strconv.Atoi(db); err == nil {
			cfg.Cache.DB = d
		}
	}
	if path := os.Getenv("BRIDGE_DB_PATH"); path != "" {
		cfg.Storage.Enabled = true
		cfg.Storage.Path = path
	}
	if level := os.Getenv("BRIDGE_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
