package cliconfig

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"AMARIBRIDGE_AMARI_PATH":      "/env/amari",
				"AMARIBRIDGE_SCRIPT":          "./ws.js",
				"AMARIBRIDGE_COMMAND_TIMEOUT": "20s",
				"AMARIBRIDGE_SERVICE_COMMAND": "systemctl  lte",
				"AMARIBRIDGE_HOST":            "10.1.1.1",
				"AMARIBRIDGE_PORT":            "5002",
				"AMARIBRIDGE_HTTP_TIMEOUT":    "3s",
				"AMARIBRIDGE_DATA_DIR":        "/data",
				"AMARIBRIDGE_INTERVAL":        "10s",
				"AMARIBRIDGE_ENTITIES":        "enb, mme,,ims",
				"AMARIBRIDGE_LIMIT":           "8",
				"AMARIBRIDGE_MAX_DATA_BYTES":  "1073741824",
				"AMARIBRIDGE_OUTPUT":          "yaml",
				"AMARIBRIDGE_LOG_LEVEL":       "warn",
				"AMARIBRIDGE_ONCE":            "1",
			},
			changed: map[string]bool{},
			expected: Config{
				AmariPath:       "/env/amari",
				Script:          "./ws.js",
				CommandTimeout:  20 * time.Second,
				ServiceCommand:  []string{"systemctl", "lte"},
				ManagementHost:  "10.1.1.1",
				ManagementPort:  5002,
				HTTPTimeout:     3 * time.Second,
				DataDir:         "/data",
				CollectInterval: 10 * time.Second,
				Entities:        []string{"enb", "mme", "ims"},
				Limit:           8,
				MaxDataBytes:    1 << 30,
				Output:          "yaml",
				LogLevel:        "warn",
				Once:            true,
			},
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"AMARIBRIDGE_AMARI_PATH": "/env/amari",
				"AMARIBRIDGE_HOST":       "10.1.1.1",
			},
			changed:  map[string]bool{"amari-path": true},
			initial:  Config{AmariPath: "/flag/amari"},
			expected: Config{AmariPath: "/flag/amari", ManagementHost: "10.1.1.1"},
		},
		{
			name:    "returns error for invalid duration",
			envVars: map[string]string{"AMARIBRIDGE_COMMAND_TIMEOUT": "forever"},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name:    "returns error for invalid int",
			envVars: map[string]string{"AMARIBRIDGE_PORT": "http"},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name:     "handles bool 'false' as false",
			envVars:  map[string]string{"AMARIBRIDGE_ONCE": "false"},
			changed:  map[string]bool{},
			initial:  Config{Once: true},
			expected: Config{Once: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)

			if tt.wantErr {
				if err == nil {
					t.Error("ApplyEnvConfig() expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyEnvConfig() unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.expected, cfg); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
