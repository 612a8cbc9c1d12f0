package cliconfig

import "os"

// EnvPrefix prefixes every environment variable read by ApplyEnvConfig.
const EnvPrefix = "AMARIBRIDGE_"

// ApplyEnvConfig applies configuration from environment variables (AMARIBRIDGE_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(name string) string { return os.Getenv(EnvPrefix + name) }

	s.setString("amari-path", env("AMARI_PATH"), &cfg.AmariPath)
	s.setString("script", env("SCRIPT"), &cfg.Script)
	s.setFieldsFromString("service-command", env("SERVICE_COMMAND"), &cfg.ServiceCommand)
	s.setString("host", env("HOST"), &cfg.ManagementHost)
	s.setString("data-dir", env("DATA_DIR"), &cfg.DataDir)
	s.setListFromString("entities", env("ENTITIES"), &cfg.Entities)
	s.setString("output", env("OUTPUT"), &cfg.Output)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("command-timeout", env("COMMAND_TIMEOUT"), &cfg.CommandTimeout); err != nil {
		return err
	}
	if err := s.setDuration("http-timeout", env("HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("interval", env("INTERVAL"), &cfg.CollectInterval); err != nil {
		return err
	}

	if err := s.setIntFromString("port", env("PORT"), &cfg.ManagementPort); err != nil {
		return err
	}
	if err := s.setIntFromString("limit", env("LIMIT"), &cfg.Limit); err != nil {
		return err
	}
	if err := s.setInt64FromString("max-data-bytes", env("MAX_DATA_BYTES"), &cfg.MaxDataBytes); err != nil {
		return err
	}

	s.setBoolFromString("once", env("ONCE"), &cfg.Once)

	return nil
}
