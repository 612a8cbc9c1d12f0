package cliconfig

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mobilenet/amaribridge/pkg/bridge"
	"github.com/mobilenet/amaribridge/pkg/dispatch"
)

// Defaults matching a stock Amari installation.
const (
	DefaultAmariPath      = "/root/lteenb-linux-2024-12-13"
	DefaultManagementHost = "192.168.159.160"
	DefaultManagementPort = 5000
	DefaultDataDir        = "./rest_data"
)

// Output formats accepted by --output.
const (
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Config holds CLI configuration for amaribridge.
type Config struct {
	AmariPath      string
	Script         string
	CommandTimeout time.Duration
	ServiceCommand []string

	ManagementHost string
	ManagementPort int
	HTTPTimeout    time.Duration

	DataDir         string
	CollectInterval time.Duration
	Entities        []string
	Limit           int
	MaxDataBytes    int64
	Once            bool

	Output   string
	LogLevel string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AmariPath:       DefaultAmariPath,
		Script:          bridge.DefaultScript,
		CommandTimeout:  bridge.DefaultTimeout,
		ServiceCommand:  []string{"service", "lte"},
		ManagementHost:  DefaultManagementHost,
		ManagementPort:  DefaultManagementPort,
		HTTPTimeout:     5 * time.Second,
		DataDir:         DefaultDataDir,
		CollectInterval: time.Minute,
		Entities:        []string{"enb"},
		Limit:           dispatch.DefaultLimit,
		Output:          OutputJSON,
		LogLevel:        "info",
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.AmariPath == "" {
		return fmt.Errorf("amari-path is required")
	}
	if c.Script == "" {
		c.Script = bridge.DefaultScript
	}
	if c.CommandTimeout <= 0 {
		return fmt.Errorf("command timeout must be positive")
	}
	if c.ManagementPort <= 0 || c.ManagementPort > 65535 {
		return fmt.Errorf("port %d out of range", c.ManagementPort)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive")
	}
	if c.CollectInterval < time.Second {
		return fmt.Errorf("collect interval %s is below one second", c.CollectInterval)
	}
	if c.MaxDataBytes < 0 {
		return fmt.Errorf("max data bytes must not be negative")
	}
	if c.Limit <= 0 {
		c.Limit = dispatch.DefaultLimit
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}

	c.Entities = cleanList(c.Entities)
	if len(c.Entities) == 0 {
		return fmt.Errorf("at least one entity is required")
	}

	c.Output = strings.ToLower(c.Output)
	switch c.Output {
	case "":
		c.Output = OutputJSON
	case OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("unknown output format %q (want json or yaml)", c.Output)
	}
	return nil
}

// ManagementAddr returns host:port of the management host.
func (c Config) ManagementAddr() string {
	return c.ManagementHost + ":" + strconv.Itoa(c.ManagementPort)
}

func cleanList(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setStrings sets a list if non-empty and flag not changed.
func (s *configSetter) setStrings(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = append([]string(nil), value...)
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt64 sets an int64 value if positive and flag not changed.
func (s *configSetter) setInt64(flag string, value int64, dst *int64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setInt64FromString parses a string to int64 and sets the destination if valid.
func (s *configSetter) setInt64FromString(flag, value string, dst *int64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	s.setInt64(flag, i, dst)
	return nil
}

// setListFromString splits a comma-separated value.
func (s *configSetter) setListFromString(flag, value string, dst *[]string) {
	s.setStrings(flag, cleanList(strings.Split(value, ",")), dst)
}

// setFieldsFromString splits a whitespace-separated command line.
func (s *configSetter) setFieldsFromString(flag, value string, dst *[]string) {
	s.setStrings(flag, strings.Fields(value), dst)
}

// setBoolFromString accepts "true" and "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
