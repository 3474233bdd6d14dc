package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// cliConfig holds the photoctl client settings.
type cliConfig struct {
	APIURL  string `toml:"api_url"`
	Owner   string `toml:"owner"`
	DataDir string `toml:"data_dir"`
}

func defaultConfig() (cliConfig, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return cliConfig{}, fmt.Errorf("resolve home dir: %w", err)
	}

	return cliConfig{
		APIURL:  "http://localhost:8080",
		DataDir: filepath.Join(home, ".local", "share", "photoflow"),
	}, nil
}

func defaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}

	return filepath.Join(dir, "photoflow", "config.toml"), nil
}

// loadConfig reads the TOML config file, falling back to defaults when the
// file does not exist. An explicit path that is missing is an error.
func loadConfig(path string) (cliConfig, error) {
	cfg, err := defaultConfig()
	if err != nil {
		return cliConfig{}, err
	}

	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path, err = defaultConfigPath()
		if err != nil {
			return cliConfig{}, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return cliConfig{}, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cliConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}
