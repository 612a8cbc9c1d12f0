package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	AmariPath       string   `toml:"amari_path"`
	Script          string   `toml:"script"`
	CommandTimeout  string   `toml:"command_timeout"`
	ServiceCommand  []string `toml:"service_command"`
	ManagementHost  string   `toml:"host"`
	ManagementPort  int      `toml:"port"`
	HTTPTimeout     string   `toml:"http_timeout"`
	DataDir         string   `toml:"data_dir"`
	CollectInterval string   `toml:"interval"`
	Entities        []string `toml:"entities"`
	Limit           int      `toml:"limit"`
	MaxDataBytes    int64    `toml:"max_data_bytes"`
	Output          string   `toml:"output"`
	LogLevel        string   `toml:"log_level"`
	Once            *bool    `toml:"once"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.amaribridge/config.toml, or "" when the home
// directory is unknown.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".amaribridge", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("amari-path", fc.AmariPath, &cfg.AmariPath)
	s.setString("script", fc.Script, &cfg.Script)
	s.setStrings("service-command", fc.ServiceCommand, &cfg.ServiceCommand)
	s.setString("host", fc.ManagementHost, &cfg.ManagementHost)
	s.setString("data-dir", fc.DataDir, &cfg.DataDir)
	s.setStrings("entities", fc.Entities, &cfg.Entities)
	s.setString("output", fc.Output, &cfg.Output)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("command-timeout", fc.CommandTimeout, &cfg.CommandTimeout); err != nil {
		return err
	}
	if err := s.setDuration("http-timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("interval", fc.CollectInterval, &cfg.CollectInterval); err != nil {
		return err
	}

	s.setInt("port", fc.ManagementPort, &cfg.ManagementPort)
	s.setInt("limit", fc.Limit, &cfg.Limit)
	s.setInt64("max-data-bytes", fc.MaxDataBytes, &cfg.MaxDataBytes)
	s.setBool("once", fc.Once, &cfg.Once)

	return nil
}

// Load resolves cfg from the config file at path (skipped when missing) and
// the environment, leaving explicitly set flags untouched, then validates it.
func Load(cfg *Config, path string, changed map[string]bool) error {
	if path != "" && FileExists(path) {
		fc, err := LoadFileConfig(path)
		if err != nil {
			return err
		}
		if err := ApplyFileConfig(cfg, fc, changed); err != nil {
			return err
		}
	}
	if err := ApplyEnvConfig(cfg, changed); err != nil {
		return err
	}
	return cfg.Validate()
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
