package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths are the locations hsdesk uses before any config is read.
type Paths struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
	PIDFile    string
}

// DefaultPaths resolves Paths from the environment:
//   - HSDESK_CONFIG_PATH: config file (default ~/.config/hsdesk.toml)
//   - HSDESK_HOME: data directory (default ~/.local/share/hsdesk)
func DefaultPaths() (Paths, error) {
	configPath, err := fromEnvOrHome("HSDESK_CONFIG_PATH", ".config", "hsdesk.toml")
	if err != nil {
		return Paths{}, err
	}
	baseDir, err := fromEnvOrHome("HSDESK_HOME", ".local", "share", "hsdesk")
	if err != nil {
		return Paths{}, err
	}
	return Paths{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
		PIDFile:    filepath.Join(baseDir, "hsdesk.pid"),
	}, nil
}

// fromEnvOrHome returns $env when set, otherwise the path under the home directory.
func fromEnvOrHome(env string, elem ...string) (string, error) {
	if v := os.Getenv(env); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(append([]string{home}, elem...)...), nil
}
