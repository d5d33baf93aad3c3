// Package paths resolves configuration and data directory locations for the
// listmap CLI.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// CWD-relative directory name used when no override is active.
const DefaultDataDirName = ".listmap-db"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "LISTMAP_CONFIG_DIR"
	EnvDataDir   = "LISTMAP_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/listmap (fallback ~/.config/listmap)
// macOS:   ~/Library/Application Support/listmap
// Windows: %APPDATA%/listmap
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "listmap"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "listmap"), nil
	default:
		// macOS and Windows use os.UserConfigDir which returns
		// ~/Library/Application Support on macOS and %APPDATA% on Windows.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "listmap"), nil
	}
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > LISTMAP_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory for the local backend following
// the precedence chain: flag > config value > LISTMAP_DATA_DIR env >
// $(CWD)/.listmap-db.
func ResolveDataDir(flag, configValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}
