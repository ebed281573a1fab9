package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "/tmp/test.db"
mqtt:
  broker:
    host: "broker.local"
    port: 8084
    tls: true
    transport: websocket
  keep_alive: 90
dashboard:
  storage_key: "topics"
  builtin_topics: ["dev/cmd", "dev/temp"]
  control_topic: "dev/cmd"
  channels:
    - topic: "dev/temp"
      kind: temperature
      target: "temp"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if cfg.MQTT.Broker.Host != "broker.local" || cfg.MQTT.Broker.Port != 8084 {
		t.Errorf("MQTT.Broker = %+v", cfg.MQTT.Broker)
	}
	if !cfg.MQTT.Broker.TLS || cfg.MQTT.Broker.Transport != "websocket" {
		t.Errorf("MQTT.Broker TLS/transport = %v/%q", cfg.MQTT.Broker.TLS, cfg.MQTT.Broker.Transport)
	}
	if len(cfg.Dashboard.BuiltinTopics) != 2 {
		t.Errorf("BuiltinTopics = %v, want 2 entries", cfg.Dashboard.BuiltinTopics)
	}
	if len(cfg.Dashboard.Channels) != 1 || cfg.Dashboard.Channels[0].Kind != ChannelTemperature {
		t.Errorf("Channels = %+v", cfg.Dashboard.Channels)
	}
	// Defaults survive for unset keys.
	if cfg.Dashboard.ActivityLogSize != 500 {
		t.Errorf("ActivityLogSize = %d, want default 500", cfg.Dashboard.ActivityLogSize)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(path)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "mqtt:\n  broker:\n    host: from-file\n")

	t.Setenv("DASHBOARD_MQTT_HOST", "from-env")
	t.Setenv("DASHBOARD_DATABASE_PATH", "/tmp/env.db")
	t.Setenv("DASHBOARD_MQTT_PASSWORD", "secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MQTT.Broker.Host != "from-env" {
		t.Errorf("MQTT.Broker.Host = %q, want from-env", cfg.MQTT.Broker.Host)
	}
	if cfg.Database.Path != "/tmp/env.db" {
		t.Errorf("Database.Path = %q, want /tmp/env.db", cfg.Database.Path)
	}
	if cfg.MQTT.Auth.Password != "secret" {
		t.Errorf("MQTT.Auth.Password not overridden")
	}
}

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database.path",
		},
		{
			name:    "invalid qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "unknown transport",
			mutate:  func(c *Config) { c.MQTT.Broker.Transport = "quic" },
			wantErr: "mqtt.broker.transport",
		},
		{
			name:    "short jwt secret",
			mutate:  func(c *Config) { c.Security.JWT.Secret = "short" },
			wantErr: "security.jwt.secret",
		},
		{
			name:    "control topic not builtin",
			mutate:  func(c *Config) { c.Dashboard.ControlTopic = "elsewhere" },
			wantErr: "control_topic must be one of",
		},
		{
			name:    "empty builtin topic",
			mutate:  func(c *Config) { c.Dashboard.BuiltinTopics = append(c.Dashboard.BuiltinTopics, "  ") },
			wantErr: "must not contain empty topics",
		},
		{
			name: "unknown channel kind",
			mutate: func(c *Config) {
				c.Dashboard.Channels = append(c.Dashboard.Channels, ChannelConfig{Topic: "x", Kind: "pressure", Target: "p"})
			},
			wantErr: "kind \"pressure\"",
		},
		{
			name: "duplicate channel topic",
			mutate: func(c *Config) {
				c.Dashboard.Channels = append(c.Dashboard.Channels, c.Dashboard.Channels[0])
			},
			wantErr: "mapped twice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestIsChannelKind(t *testing.T) {
	for _, k := range []string{ChannelTemperature, ChannelHumidity, ChannelIlluminance, ChannelLevel, ChannelSetpoint} {
		if !IsChannelKind(k) {
			t.Errorf("IsChannelKind(%q) = false", k)
		}
	}
	if IsChannelKind("pressure") {
		t.Error("IsChannelKind(pressure) = true")
	}
}
