package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// Config holds the CLI's own JSONC config file fields. CLI flags always
// take precedence over anything loaded here.
type Config struct {
	Bootstrap      []string `json:"bootstrap,omitempty"`
	MaxConn        int      `json:"max_conn,omitempty"`
	RedirectionTTL int      `json:"redirection_ttl,omitempty"`
}

// getGlobalConfigPath returns $XDG_CONFIG_HOME/hicluster/config.jsonc if
// set, otherwise ~/.config/hicluster/config.jsonc. Returns "" if neither
// can be determined.
func getGlobalConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "hicluster", "config.jsonc")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "hicluster", "config.jsonc")
}

// LoadConfig loads Config with the following precedence (highest wins):
//  1. Defaults (zero value)
//  2. Global config (XDG/home, if present)
//  3. Explicit --config path (if non-empty; must exist)
func LoadConfig(explicitPath string) (Config, error) {
	var cfg Config

	if globalPath := getGlobalConfigPath(); globalPath != "" {
		loaded, err := loadConfigFile(globalPath, false)
		if err != nil {
			return Config{}, err
		}
		cfg = mergeConfig(cfg, loaded)
	}

	if explicitPath != "" {
		loaded, err := loadConfigFile(explicitPath, true)
		if err != nil {
			return Config{}, err
		}
		cfg = mergeConfig(cfg, loaded)
	}

	return cfg, nil
}

func loadConfigFile(path string, mustExist bool) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is user-controlled by design (--config)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("hicluster-cli: reading config %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("hicluster-cli: invalid JSONC in %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("hicluster-cli: invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if len(overlay.Bootstrap) > 0 {
		base.Bootstrap = overlay.Bootstrap
	}
	if overlay.MaxConn != 0 {
		base.MaxConn = overlay.MaxConn
	}
	if overlay.RedirectionTTL != 0 {
		base.RedirectionTTL = overlay.RedirectionTTL
	}
	return base
}
