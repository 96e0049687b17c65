package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/hometree/internal/paths"
	"github.com/mesh-intelligence/hometree/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	// Config keys.
	cfgKeyBackend   = "backend"
	cfgKeySeed      = "seed"
	cfgKeyQueueSize = "queue_size"

	envPrefix = "HOMETREE"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	Backend   string `yaml:"backend"`
	Seed      string `yaml:"seed,omitempty"`
	QueueSize int    `yaml:"queue_size,omitempty"`
}

// loadConfig reads config.yaml from configDir using Viper. A missing
// config.yaml is not an error; defaults apply. HOMETREE_SEED and friends
// override file values.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeySeed, "")
	v.SetDefault(cfgKeyQueueSize, types.DefaultQueueSize)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// storeConfig builds the store configuration from Viper and the resolved
// data directory.
func (a *app) storeConfig() (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir)
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg := types.Config{
		Backend:   a.cfg.GetString(cfgKeyBackend),
		Seed:      paths.ResolveSeed(dataDir, a.cfg.GetString(cfgKeySeed)),
		QueueSize: a.cfg.GetInt(cfgKeyQueueSize),
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. If it already exists, the function returns nil (idempotent).
func writeConfigIfMissing(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	cfg := configFile{
		Backend:   types.BackendSQLite,
		Seed:      paths.DefaultSeedFile,
		QueueSize: types.DefaultQueueSize,
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	return true, os.WriteFile(path, data, 0o644)
}
