package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables applied by ApplyEnv.
const (
	EnvServers = "MEMCELL_SERVERS"
	EnvHTTP    = "MEMCELL_HTTP"
	EnvOutput  = "MEMCELL_OUTPUT"
	EnvTimeout = "MEMCELL_TIMEOUT"
)

// DefaultConfigPath is ~/.memcell/cli.yaml.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".memcell", "cli.yaml")
}

// Load returns the defaults overlaid with the YAML file at path, or at
// DefaultConfigPath when path is empty. A missing file is not an error.
func Load(path string) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	cfg := Default()
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return cfg, nil
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as YAML, creating the directory if needed. The file is
// readable by its owner only.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

// ApplyEnv overlays the MEMCELL_* variables returned by getenv. Unset and
// empty variables leave cfg alone.
func ApplyEnv(cfg *CLIConfig, getenv func(string) string) error {
	if v := getenv(EnvServers); v != "" {
		cfg.Servers = cfg.Servers[:0]
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				cfg.Servers = append(cfg.Servers, s)
			}
		}
	}
	if v := getenv(EnvHTTP); v != "" {
		cfg.HTTP = v
	}
	if v := getenv(EnvOutput); v != "" {
		cfg.Output = v
	}
	if v := getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		cfg.Timeout = d
	}
	return nil
}

// Validate reports settings no command can work with.
func (c *CLIConfig) Validate() error {
	var errs []error
	if len(c.Servers) == 0 {
		errs = append(errs, errors.New("no servers configured"))
	}
	for _, s := range c.Servers {
		if _, _, err := net.SplitHostPort(s); err != nil {
			errs = append(errs, fmt.Errorf("server %q: %w", s, err))
		}
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	return errors.Join(errs...)
}
