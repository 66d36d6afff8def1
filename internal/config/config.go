// Package config loads the daemon's configuration from layered sources:
// environment variables override a YAML file, which overrides built-in
// defaults, following this codebase's usual viper-based layered-search
// pattern.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// AutoInit controls the daemon's behavior when it notices an uninitialized
// directory is being actively worked in.
type AutoInit struct {
	Enabled         bool     `mapstructure:"enabled" yaml:"enabled"`
	MinFiles        int      `mapstructure:"min_files" yaml:"min_files"`
	ExcludePatterns []string `mapstructure:"exclude_patterns" yaml:"exclude_patterns"`
}

// Config is the daemon's full configuration, loaded once at startup.
type Config struct {
	SocketPath  string   `mapstructure:"socket_path" yaml:"socket_path"`
	DataDir     string   `mapstructure:"data_dir" yaml:"data_dir"`
	MaxMemory   int64    `mapstructure:"max_memory" yaml:"max_memory"`
	MaxProjects int      `mapstructure:"max_projects" yaml:"max_projects"`
	LogLevel    string   `mapstructure:"log_level" yaml:"log_level"`
	LogFile     string   `mapstructure:"log_file" yaml:"log_file"`
	PIDFile     string   `mapstructure:"pid_file" yaml:"pid_file"`
	AutoInit    AutoInit `mapstructure:"auto_init" yaml:"auto_init"`
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "ctxd")
	}
	return filepath.Join(home, ".ctxd")
}

// Load resolves configuration from (in increasing precedence): built-in
// defaults, a config.yaml under the data directory (or an explicit path if
// non-empty), then CTXD_-prefixed environment variables.
func Load(explicitPath string) (Config, error) {
	v := viper.New()

	dataDir := defaultDataDir()
	v.SetDefault("socket_path", filepath.Join(os.TempDir(), "ctxd.sock"))
	v.SetDefault("data_dir", dataDir)
	v.SetDefault("max_memory", int64(100*1024*1024))
	v.SetDefault("max_projects", 3)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("pid_file", filepath.Join(dataDir, "ctxd.pid"))
	v.SetDefault("auto_init.enabled", false)
	v.SetDefault("auto_init.min_files", 3)
	v.SetDefault("auto_init.exclude_patterns", []string{".git", "node_modules", "target", "dist"})

	v.SetConfigType("yaml")
	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(dataDir)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("config: read: %w", err)
			}
		}
	}

	v.SetEnvPrefix("CTXD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	if explicitPath == "" {
		if err := seedDefaultConfigFile(dataDir, cfg); err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}

// seedDefaultConfigFile writes the resolved configuration to
// <data_dir>/config.yaml the first time the daemon runs against a data
// directory with no config file yet, so subsequent edits have a concrete
// starting point rather than an undocumented set of defaults.
func seedDefaultConfigFile(dataDir string, cfg Config) error {
	path := filepath.Join(dataDir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("config: stat %s: %w", path, err)
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure data dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal defaults: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
