package dashboard

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/nerrad567/gray-logic-dashboard/internal/infrastructure/config"
)

// Level bounds shared by the level and setpoint channels and the slider.
const (
	MinLevel = 0
	MaxLevel = 31
)

// DefaultOffLabel is shown for level 0 when no label is configured.
const DefaultOffLabel = "off"

// DecodeFunc turns a raw payload into display text and its numeric value.
// ok is false when the payload is not a number in the channel's domain.
type DecodeFunc func(payload string) (display string, value float64, ok bool)

// Rule binds a topic to a channel kind, a display target and a decoder.
type Rule struct {
	Channel string
	Target  string
	Decode  DecodeFunc
}

// Reading is a decoded, validated value ready for display.
type Reading struct {
	Topic   string  `json:"topic"`
	Channel string  `json:"channel"`
	Target  string  `json:"target"`
	Display string  `json:"display"`
	Value   float64 `json:"value"`
}

// DecodeTemperature formats with one decimal: "23.456" becomes "23.5".
// An exact tie rounds away from zero, so "23.25" becomes "23.3".
func DecodeTemperature(payload string) (string, float64, bool) {
	v, ok := parseNumber(payload)
	if !ok {
		return "", 0, false
	}
	return formatTenths(v), v, true
}

// formatTenths rounds the exact binary value of v to one decimal place.
// Non-ties are left to FormatFloat, which rounds the exact value
// correctly. Only an exact tie (x.x5 held exactly, as in 0.25 steps)
// needs handling because FormatFloat breaks it toward even.
func formatTenths(v float64) string {
	scaled := new(big.Float).SetPrec(128).SetFloat64(v)
	scaled.Mul(scaled, big.NewFloat(10))

	whole, _ := scaled.Int(nil) // truncates toward zero
	frac := new(big.Float).SetPrec(128).Sub(scaled, new(big.Float).SetInt(whole))
	if frac.Abs(frac).Cmp(big.NewFloat(0.5)) != 0 {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}

	if scaled.Sign() < 0 {
		whole.Sub(whole, big.NewInt(1))
	} else {
		whole.Add(whole, big.NewInt(1))
	}

	digits := new(big.Int).Abs(whole).String()
	if len(digits) == 1 {
		digits = "0" + digits
	}
	sign := ""
	if whole.Sign() < 0 {
		sign = "-"
	}
	return sign + digits[:len(digits)-1] + "." + digits[len(digits)-1:]
}

// DecodeWhole truncates toward zero: "55.9" becomes "55". Used for
// humidity and illuminance.
func DecodeWhole(payload string) (string, float64, bool) {
	v, ok := parseNumber(payload)
	if !ok {
		return "", 0, false
	}
	t := math.Trunc(v)
	if t == 0 {
		t = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(t, 'f', 0, 64), t, true
}

// LevelDecoder accepts integers in 0..31 and renders 0 as offLabel.
func LevelDecoder(offLabel string) DecodeFunc {
	if offLabel == "" {
		offLabel = DefaultOffLabel
	}
	return func(payload string) (string, float64, bool) {
		n, ok := parseLevel(payload)
		if !ok {
			return "", 0, false
		}
		if n == 0 {
			return offLabel, 0, true
		}
		return strconv.Itoa(n), float64(n), true
	}
}

// DecodeSetpoint accepts integers in 0..31 and renders them as numbers,
// including 0. It decodes the device's echo of the control topic.
func DecodeSetpoint(payload string) (string, float64, bool) {
	n, ok := parseLevel(payload)
	if !ok {
		return "", 0, false
	}
	return strconv.Itoa(n), float64(n), true
}

// NewRules builds the topic to Rule table from the configured channels.
func NewRules(cfg config.DashboardConfig) (map[string]Rule, error) {
	rules := make(map[string]Rule, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		var decode DecodeFunc
		switch ch.Kind {
		case config.ChannelTemperature:
			decode = DecodeTemperature
		case config.ChannelHumidity, config.ChannelIlluminance:
			decode = DecodeWhole
		case config.ChannelLevel:
			label := ch.OffLabel
			if label == "" {
				label = cfg.LevelOffLabel
			}
			decode = LevelDecoder(label)
		case config.ChannelSetpoint:
			decode = DecodeSetpoint
		default:
			return nil, fmt.Errorf("channel %q: unknown kind %q", ch.Topic, ch.Kind)
		}
		if _, dup := rules[ch.Topic]; dup {
			return nil, fmt.Errorf("channel %q: mapped twice", ch.Topic)
		}
		rules[ch.Topic] = Rule{Channel: ch.Kind, Target: ch.Target, Decode: decode}
	}
	return rules, nil
}

// parseNumber parses a finite decimal number. Surrounding whitespace is
// allowed; trailing garbage such as "23.5C" is not.
func parseNumber(payload string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(payload), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseLevel parses an integer in MinLevel..MaxLevel.
func parseLevel(payload string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(payload))
	if err != nil || n < MinLevel || n > MaxLevel {
		return 0, false
	}
	return n, true
}
