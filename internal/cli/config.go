package cli

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/semsearch/semsearch/internal/remote"
)

// ServerConfig points the CLI at a live backend instead of an offline
// definition directory.
type ServerConfig struct {
	BaseURL   string        `yaml:"baseURL"`
	AuthToken string        `yaml:"authToken"`
	Timeout   time.Duration `yaml:"timeout"`
	Retries   int           `yaml:"retries"`
}

// CLIConfig is the YAML configuration file the CLI reads with --config.
type CLIConfig struct {
	Server         ServerConfig `yaml:"server"`
	CurrentUserURI string       `yaml:"currentUserURI"`
	FiltersDB      string       `yaml:"filtersDB"`
}

// LoadConfig reads and parses a YAML configuration file.
func LoadConfig(path string) (*CLIConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := &CLIConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Server.BaseURL == "" {
		return nil, fmt.Errorf("config %s: server.baseURL is required", path)
	}
	return cfg, nil
}

// NewClient builds a backend client from the configuration.
func (c *CLIConfig) NewClient() *remote.Client {
	var opts []remote.Option
	if c.Server.Timeout > 0 {
		opts = append(opts, remote.WithTimeout(c.Server.Timeout))
	}
	if c.Server.Retries > 0 {
		opts = append(opts, remote.WithRetries(c.Server.Retries))
	}
	if c.Server.AuthToken != "" {
		opts = append(opts, remote.WithAuthToken(c.Server.AuthToken))
	}
	return remote.New(c.Server.BaseURL, opts...)
}
