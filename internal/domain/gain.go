package domain

import (
	"fmt"
	"strings"
	"time"
)

// GainLevel is the sensor amplification setting.
// Levels are ordered from lowest to highest sensitivity.
type GainLevel uint8

const (
	GainLow GainLevel = iota
	GainMedium
	GainHigh
	GainMaximum
)

// AllGains lists every gain level in ascending sensitivity order
var AllGains = []GainLevel{GainLow, GainMedium, GainHigh, GainMaximum}

// Register returns the value written to the sensor control register
func (g GainLevel) Register() byte {
	return byte(g) << 4
}

// Valid reports whether g is one of the known levels
func (g GainLevel) Valid() bool {
	return g <= GainMaximum
}

func (g GainLevel) String() string {
	switch g {
	case GainLow:
		return "low"
	case GainMedium:
		return "med"
	case GainHigh:
		return "high"
	case GainMaximum:
		return "max"
	}
	return fmt.Sprintf("gain(%d)", uint8(g))
}

// ParseGainLevel accepts the CLI spellings low, med, high and max
func ParseGainLevel(s string) (GainLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return GainLow, nil
	case "med", "medium":
		return GainMedium, nil
	case "high":
		return GainHigh, nil
	case "max", "maximum":
		return GainMaximum, nil
	}
	return 0, fmt.Errorf("unknown gain level %q", s)
}

// ParseGainLevels parses a comma separated list such as "low,med,max"
func ParseGainLevels(s string) ([]GainLevel, error) {
	var levels []GainLevel
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		g, err := ParseGainLevel(part)
		if err != nil {
			return nil, err
		}
		levels = append(levels, g)
	}
	return levels, nil
}

// MarshalYAML and UnmarshalYAML let profiles spell gains by name
func (g GainLevel) MarshalYAML() (interface{}, error) {
	return g.String(), nil
}

func (g *GainLevel) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseGainLevel(s)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// IntegrationTime is the sensor integration time code.
// Codes index 100ms steps: 0 is 100ms, 5 is 600ms.
type IntegrationTime uint8

const (
	IntegrationTime100ms IntegrationTime = iota
	IntegrationTime200ms
	IntegrationTime300ms
	IntegrationTime400ms
	IntegrationTime500ms
	IntegrationTime600ms
)

const (
	// MaxCount100ms is the saturation ceiling at 100ms integration
	MaxCount100ms uint16 = 36863

	// MaxCount is the saturation ceiling for every longer integration time
	MaxCount uint16 = 65535
)

// Valid reports whether t is one of the known codes
func (t IntegrationTime) Valid() bool {
	return t <= IntegrationTime600ms
}

// Duration returns the wall-clock integration duration
func (t IntegrationTime) Duration() time.Duration {
	return time.Duration(t+1) * 100 * time.Millisecond
}

// Coefficient is the millisecond-equivalent timing coefficient (atime)
func (t IntegrationTime) Coefficient() float64 {
	return 100.0*float64(t) + 100.0
}

// MaxCount returns the raw count at which a channel is considered saturated
func (t IntegrationTime) MaxCount() uint16 {
	if t == IntegrationTime100ms {
		return MaxCount100ms
	}
	return MaxCount
}

func (t IntegrationTime) String() string {
	return t.Duration().String()
}

// ParseIntegrationTime accepts durations such as "100ms" or bare codes "0".."5"
func ParseIntegrationTime(s string) (IntegrationTime, error) {
	s = strings.TrimSpace(s)
	if len(s) == 1 && s[0] >= '0' && s[0] <= '5' {
		return IntegrationTime(s[0] - '0'), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("unknown integration time %q", s)
	}
	for t := IntegrationTime100ms; t <= IntegrationTime600ms; t++ {
		if t.Duration() == d {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unsupported integration time %s", d)
}

func (t IntegrationTime) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

func (t *IntegrationTime) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseIntegrationTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// RawCounts holds one reading of both photodiode channels.
// Channel0 is full spectrum, Channel1 is infrared only.
type RawCounts struct {
	Channel0 uint16
	Channel1 uint16
}

// SensorState is the gain controller's view of the sensor
type SensorState struct {
	Gain            GainLevel
	IntegrationTime IntegrationTime
	LastGainChange  time.Time
}

// GainChange is the outcome of one gain adjustment decision
type GainChange struct {
	Changed bool
	From    GainLevel
	To      GainLevel

	// Wait is the settling delay to observe before the next read is trusted.
	// Zero when nothing changed.
	Wait time.Duration
}
