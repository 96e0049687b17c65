// Package paths resolves the configuration directory (config.yaml) and the
// data directory (seed files) used by the hometree CLI.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppDirName is the per-application directory under the platform roots.
const AppDirName = "hometree"

// DefaultSeedFile is the seed file looked up in the data directory.
const DefaultSeedFile = "home.jsonl"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "HOMETREE_CONFIG_DIR"
	EnvDataDir   = "HOMETREE_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// xdgDir resolves an XDG base directory on Linux: $env when set, otherwise
// fallback under the home directory. Other platforms use os.UserConfigDir
// for both config and data.
func xdgDir(env string, fallback ...string) (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppDirName), nil
	}
	if xdg := os.Getenv(env); xdg != "" {
		return filepath.Join(xdg, AppDirName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	parts := append([]string{home}, fallback...)
	return filepath.Join(append(parts, AppDirName)...), nil
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/hometree (fallback ~/.config/hometree)
// macOS:   ~/Library/Application Support/hometree
// Windows: %APPDATA%/hometree
func DefaultConfigDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform-specific default data directory.
//
// Linux:   $XDG_DATA_HOME/hometree (fallback ~/.local/share/hometree)
// macOS and Windows: same as the config directory.
func DefaultDataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", ".local", "share")
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > HOMETREE_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > HOMETREE_DATA_DIR env > DefaultDataDir().
func ResolveDataDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultDataDir()
}

// ResolveSeed returns the seed file path. An absolute seed is used as is,
// a relative one is taken relative to dataDir, and an empty one defaults
// to DefaultSeedFile in dataDir.
func ResolveSeed(dataDir, seed string) string {
	switch {
	case seed == "":
		return filepath.Join(dataDir, DefaultSeedFile)
	case filepath.IsAbs(seed):
		return seed
	default:
		return filepath.Join(dataDir, seed)
	}
}
