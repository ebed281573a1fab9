package dashboard

import (
	"testing"

	"github.com/nerrad567/gray-logic-dashboard/internal/infrastructure/config"
)

type decodeCase struct {
	payload string
	want    string
	ok      bool
}

func runDecodeCases(t *testing.T, decode DecodeFunc, cases []decodeCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.payload, func(t *testing.T) {
			got, _, ok := decode(tc.payload)
			if ok != tc.ok {
				t.Fatalf("decode(%q) ok = %v, want %v", tc.payload, ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Errorf("decode(%q) = %q, want %q", tc.payload, got, tc.want)
			}
		})
	}
}

func TestDecodeTemperature(t *testing.T) {
	runDecodeCases(t, DecodeTemperature, []decodeCase{
		{"23.456", "23.5", true},
		{"23.44", "23.4", true},
		{"20", "20.0", true},
		{"-5.26", "-5.3", true},
		{"23.25", "23.3", true},
		{"23.75", "23.8", true},
		{"-0.25", "-0.3", true},
		{"0.05", "0.1", true},
		{"-12.5", "-12.5", true},
		{"0.15", "0.1", true}, // stored as 0.1499..., not a tie
		{" 21.0\n", "21.0", true},
		{"1e2", "100.0", true},
		{"abc", "", false},
		{"23.5C", "", false},
		{"", "", false},
		{"NaN", "", false},
		{"Inf", "", false},
		{"-Infinity", "", false},
	})
}

func TestDecodeWhole(t *testing.T) {
	runDecodeCases(t, DecodeWhole, []decodeCase{
		{"55.9", "55", true},
		{"55.1", "55", true},
		{"0", "0", true},
		{"-0.4", "0", true},
		{"-3.7", "-3", true},
		{"1200", "1200", true},
		{"bright", "", false},
		{"NaN", "", false},
	})
}

func TestLevelDecoder(t *testing.T) {
	runDecodeCases(t, LevelDecoder(""), []decodeCase{
		{"0", "off", true},
		{"1", "1", true},
		{"15", "15", true},
		{"31", "31", true},
		{"32", "", false},
		{"-1", "", false},
		{"abc", "", false},
		{"15.5", "", false},
		{"", "", false},
	})

	t.Run("custom off label", func(t *testing.T) {
		got, value, ok := LevelDecoder("closed")("0")
		if !ok || got != "closed" || value != 0 {
			t.Errorf("LevelDecoder(closed)(0) = %q, %v, %v", got, value, ok)
		}
	})
}

func TestDecodeSetpoint(t *testing.T) {
	runDecodeCases(t, DecodeSetpoint, []decodeCase{
		{"0", "0", true},
		{"17", "17", true},
		{"31", "31", true},
		{"32", "", false},
		{"-1", "", false},
		{"x", "", false},
	})
}

func TestNewRules_DefaultConfig(t *testing.T) {
	rules, err := NewRules(testDashboardConfig())
	if err != nil {
		t.Fatalf("NewRules() error = %v", err)
	}

	tests := []struct {
		topic   string
		channel string
		target  string
		payload string
		want    string
	}{
		{"emqx/esp32eqw/temp", config.ChannelTemperature, "temp-reading", "23.456", "23.5"},
		{"emqx/esp32eqw/humi", config.ChannelHumidity, "humidity-reading", "55.9", "55"},
		{"emqx/esp32eqw/light", config.ChannelIlluminance, "lux-reading", "812.7", "812"},
		{"emqx/esp32eqwc", config.ChannelLevel, "actual-level-reading", "0", "closed"},
		{"emqx/esp32eqw", config.ChannelSetpoint, "current-level-setpoint", "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			rule, ok := rules[tt.topic]
			if !ok {
				t.Fatalf("no rule for %q", tt.topic)
			}
			if rule.Channel != tt.channel || rule.Target != tt.target {
				t.Errorf("rule = %+v", rule)
			}
			if got, _, _ := rule.Decode(tt.payload); got != tt.want {
				t.Errorf("decode(%q) = %q, want %q", tt.payload, got, tt.want)
			}
		})
	}
}

func TestNewRules_CombinedTopic(t *testing.T) {
	cfg := testDashboardConfig()
	cfg.LevelOffLabel = "off"
	cfg.Channels = []config.ChannelConfig{
		{Topic: "dev/level", Kind: config.ChannelLevel, Target: "level"},
	}

	rules, err := NewRules(cfg)
	if err != nil {
		t.Fatalf("NewRules() error = %v", err)
	}
	if got, _, _ := rules["dev/level"].Decode("0"); got != "off" {
		t.Errorf("combined level decode(0) = %q, want off", got)
	}
}

func TestNewRules_Errors(t *testing.T) {
	cfg := testDashboardConfig()
	cfg.Channels = []config.ChannelConfig{{Topic: "x", Kind: "pressure", Target: "p"}}
	if _, err := NewRules(cfg); err == nil {
		t.Error("NewRules() with unknown kind = nil error")
	}

	cfg.Channels = []config.ChannelConfig{
		{Topic: "x", Kind: config.ChannelTemperature, Target: "a"},
		{Topic: "x", Kind: config.ChannelHumidity, Target: "b"},
	}
	if _, err := NewRules(cfg); err == nil {
		t.Error("NewRules() with duplicate topic = nil error")
	}
}
