package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Channel kinds understood by the dashboard message router.
const (
	ChannelTemperature = "temperature"
	ChannelHumidity    = "humidity"
	ChannelIlluminance = "illuminance"
	ChannelLevel       = "level"
	ChannelSetpoint    = "setpoint"
)

// Config is the root configuration structure for the device dashboard.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker MQTTBrokerConfig `yaml:"broker"`
	Auth   MQTTAuthConfig   `yaml:"auth"`
	QoS    int              `yaml:"qos"`

	// ConnectTimeout is how long a single connect attempt may take (seconds).
	ConnectTimeout int `yaml:"connect_timeout"`

	// KeepAlive is the MQTT keep-alive interval (seconds).
	KeepAlive int `yaml:"keep_alive"`

	// AutoReconnect hands reconnection to the transport. The dashboard
	// itself never retries; it only reacts to the session coming back.
	AutoReconnect bool `yaml:"auto_reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	TLS  bool   `yaml:"tls"`

	// Transport is "tcp" (default) or "websocket".
	Transport string `yaml:"transport"`

	// Path is the HTTP path used by the websocket transport.
	Path string `yaml:"path"`

	// ClientIDPrefix is combined with a random suffix on every start.
	ClientIDPrefix string `yaml:"client_id_prefix"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`

	// PanelDir serves the dashboard page from disk instead of the
	// embedded copy when set and present.
	PanelDir string `yaml:"panel_dir"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

// JWTConfig contains JWT settings. An empty secret leaves the control
// endpoints open, which matches a dashboard on a trusted LAN.
type JWTConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
}

// DashboardConfig describes the monitored device: which topics are always
// subscribed, how inbound payloads are decoded and where commands go.
type DashboardConfig struct {
	// StorageKey is the key-value key holding the user topic list.
	StorageKey string `yaml:"storage_key"`

	// BuiltinTopics are always subscribed and can never be removed.
	BuiltinTopics []string `yaml:"builtin_topics"`

	// ControlTopic receives level commands from the slider.
	ControlTopic string `yaml:"control_topic"`

	// LevelOffLabel is shown instead of "0" on level channels.
	LevelOffLabel string `yaml:"level_off_label"`

	// Channels map topics to decode rules.
	Channels []ChannelConfig `yaml:"channels"`

	// ActivityLogSize bounds the in-memory activity log.
	ActivityLogSize int `yaml:"activity_log_size"`
}

// ChannelConfig binds one topic to a decode rule and a display target.
type ChannelConfig struct {
	Topic  string `yaml:"topic"`
	Kind   string `yaml:"kind"`
	Target string `yaml:"target"`

	// OffLabel overrides DashboardConfig.LevelOffLabel for this channel.
	OffLabel string `yaml:"off_label,omitempty"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: DASHBOARD_SECTION_KEY
// For example: DASHBOARD_DATABASE_PATH, DASHBOARD_MQTT_HOST
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration without reading a file.
// The returned value passes Validate.
func Default() *Config {
	return defaultConfig()
}

// defaultConfig returns a Config describing the reference deployment: one
// ESP32 board with a temperature, humidity and light sensor and a 32-step
// controllable level with a separate status echo topic.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        "./data/dashboard.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:           "localhost",
				Port:           1883,
				Transport:      "tcp",
				Path:           "/mqtt",
				ClientIDPrefix: "web_client_",
			},
			QoS:            1,
			ConnectTimeout: 3,
			KeepAlive:      90,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{Issuer: "dashboard"},
		},
		Dashboard: DashboardConfig{
			StorageKey: "mqtt_topics",
			BuiltinTopics: []string{
				"emqx/esp32eqw",
				"emqx/esp32eqwc",
				"emqx/esp32eqw/temp",
				"emqx/esp32eqw/humi",
				"emqx/esp32eqw/light",
			},
			ControlTopic:  "emqx/esp32eqw",
			LevelOffLabel: "off",
			Channels: []ChannelConfig{
				{Topic: "emqx/esp32eqw/temp", Kind: ChannelTemperature, Target: "temp-reading"},
				{Topic: "emqx/esp32eqw/humi", Kind: ChannelHumidity, Target: "humidity-reading"},
				{Topic: "emqx/esp32eqw/light", Kind: ChannelIlluminance, Target: "lux-reading"},
				{Topic: "emqx/esp32eqwc", Kind: ChannelLevel, Target: "actual-level-reading", OffLabel: "closed"},
				{Topic: "emqx/esp32eqw", Kind: ChannelSetpoint, Target: "current-level-setpoint"},
			},
			ActivityLogSize: 500,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: DASHBOARD_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("DASHBOARD_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("DASHBOARD_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("DASHBOARD_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("DASHBOARD_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("DASHBOARD_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("DASHBOARD_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Security
	if v := os.Getenv("DASHBOARD_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	switch c.MQTT.Broker.Transport {
	case "", "tcp", "websocket":
	default:
		errs = append(errs, "mqtt.broker.transport must be tcp or websocket")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.ConnectTimeout < 0 || c.MQTT.KeepAlive < 0 {
		errs = append(errs, "mqtt.connect_timeout and mqtt.keep_alive must not be negative")
	}

	// API
	if c.API.Port < 0 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 0 and 65535")
	}

	// Security: a short secret is worse than none because it looks protected.
	const minJWTSecretLength = 32
	if s := c.Security.JWT.Secret; s != "" && len(s) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters when set")
	}

	errs = append(errs, c.Dashboard.validate()...)

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// validate checks the dashboard section and returns individual failures.
func (d *DashboardConfig) validate() []string {
	var errs []string

	if d.StorageKey == "" {
		errs = append(errs, "dashboard.storage_key is required")
	}

	builtins := make(map[string]struct{}, len(d.BuiltinTopics))
	for _, t := range d.BuiltinTopics {
		if strings.TrimSpace(t) == "" {
			errs = append(errs, "dashboard.builtin_topics must not contain empty topics")
			continue
		}
		builtins[t] = struct{}{}
	}

	if d.ControlTopic == "" {
		errs = append(errs, "dashboard.control_topic is required")
	} else if _, ok := builtins[d.ControlTopic]; !ok {
		errs = append(errs, "dashboard.control_topic must be one of dashboard.builtin_topics")
	}

	seen := make(map[string]struct{}, len(d.Channels))
	for i, ch := range d.Channels {
		if ch.Topic == "" {
			errs = append(errs, fmt.Sprintf("dashboard.channels[%d].topic is required", i))
		}
		if _, dup := seen[ch.Topic]; dup {
			errs = append(errs, fmt.Sprintf("dashboard.channels[%d].topic %q is mapped twice", i, ch.Topic))
		}
		seen[ch.Topic] = struct{}{}
		if !IsChannelKind(ch.Kind) {
			errs = append(errs, fmt.Sprintf("dashboard.channels[%d].kind %q is not recognised", i, ch.Kind))
		}
		if ch.Target == "" {
			errs = append(errs, fmt.Sprintf("dashboard.channels[%d].target is required", i))
		}
	}

	if d.ActivityLogSize < 0 {
		errs = append(errs, "dashboard.activity_log_size must not be negative")
	}

	return errs
}

// IsChannelKind reports whether kind names a supported decode rule.
func IsChannelKind(kind string) bool {
	switch kind {
	case ChannelTemperature, ChannelHumidity, ChannelIlluminance, ChannelLevel, ChannelSetpoint:
		return true
	}
	return false
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
