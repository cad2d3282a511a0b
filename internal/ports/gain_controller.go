package ports

import (
	"context"
	"sort"
	"time"

	"github.com/quentinrf/radiometer/internal/domain"
)

// GainConfig is the deployment profile of the gain controller
type GainConfig struct {
	DefaultGain     domain.GainLevel
	IntegrationTime domain.IntegrationTime

	// EnabledGains is the usable subset of domain.AllGains, any order
	EnabledGains []domain.GainLevel

	// HighThreshold steps gain down when channel0 is at or above it
	HighThreshold uint16

	// LowThreshold steps gain up when channel0 is at or below it
	LowThreshold uint16

	// GuardInterval is the settling delay after every gain change
	GuardInterval time.Duration
}

// DefaultGainConfig returns the radiometer profile: HIGH disabled, 30000/1000 thresholds, 2s guard
func DefaultGainConfig() GainConfig {
	return GainConfig{
		DefaultGain:     domain.GainMedium,
		IntegrationTime: domain.IntegrationTime100ms,
		EnabledGains:    []domain.GainLevel{domain.GainLow, domain.GainMedium, domain.GainMaximum},
		HighThreshold:   30000,
		LowThreshold:    1000,
		GuardInterval:   2 * time.Second,
	}
}

// Validate checks the profile, returning a *domain.ConfigError
func (c GainConfig) Validate() error {
	if len(c.EnabledGains) == 0 {
		return domain.NewConfigError("enabled_gains", "at least one gain level must be enabled")
	}
	found := false
	for _, g := range c.EnabledGains {
		if !g.Valid() {
			return domain.NewConfigError("enabled_gains", "unknown gain level %d", uint8(g))
		}
		if g == c.DefaultGain {
			found = true
		}
	}
	if !found {
		return domain.NewConfigError("gain", "default gain %s is not in the enabled set", c.DefaultGain)
	}
	if !c.IntegrationTime.Valid() {
		return domain.NewConfigError("integration_time", "unknown integration time code %d", uint8(c.IntegrationTime))
	}
	if c.HighThreshold <= c.LowThreshold {
		return domain.NewConfigError("thresholds", "high threshold %d must be above low threshold %d", c.HighThreshold, c.LowThreshold)
	}
	if c.GuardInterval < 0 {
		return domain.NewConfigError("guard_interval", "must not be negative")
	}
	return nil
}

// GainController owns the sensor gain state and the auto-ranging policy.
// It reads through its RawChannelSource at the current setting; it never sleeps.
type GainController struct {
	source RawChannelSource

	// enabled is sorted ascending and free of duplicates
	enabled []domain.GainLevel
	index   int

	itime      domain.IntegrationTime
	high       uint16
	low        uint16
	guard      time.Duration
	lastChange time.Time

	now func() time.Time
}

// NewGainController validates cfg and sets the starting state
func NewGainController(source RawChannelSource, cfg GainConfig) (*GainController, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	enabled := uniqueSorted(cfg.EnabledGains)
	index := 0
	for i, g := range enabled {
		if g == cfg.DefaultGain {
			index = i
		}
	}

	return &GainController{
		source:  source,
		enabled: enabled,
		index:   index,
		itime:   cfg.IntegrationTime,
		high:    cfg.HighThreshold,
		low:     cfg.LowThreshold,
		guard:   cfg.GuardInterval,
		now:     time.Now,
	}, nil
}

func uniqueSorted(levels []domain.GainLevel) []domain.GainLevel {
	seen := make(map[domain.GainLevel]bool, len(levels))
	var out []domain.GainLevel
	for _, g := range levels {
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Gain returns the active gain level
func (c *GainController) Gain() domain.GainLevel {
	return c.enabled[c.index]
}

// EnabledGains returns a copy of the usable levels in ascending order
func (c *GainController) EnabledGains() []domain.GainLevel {
	return append([]domain.GainLevel(nil), c.enabled...)
}

// State returns a copy of the current sensor state
func (c *GainController) State() domain.SensorState {
	return domain.SensorState{
		Gain:            c.Gain(),
		IntegrationTime: c.itime,
		LastGainChange:  c.lastChange,
	}
}

// Read samples the source at the current gain and integration time
func (c *GainController) Read(ctx context.Context) (domain.RawCounts, error) {
	return c.source.ReadRaw(ctx, c.Gain(), c.itime)
}

// Adjust decides the next gain from the latest counts.
// nil counts mean the reading was unavailable and nothing changes.
// At most one enabled step is taken per call, saturating at the enabled boundary.
// A saturated channel always steps down, whatever the high threshold.
func (c *GainController) Adjust(counts *domain.RawCounts) domain.GainChange {
	from := c.Gain()
	unchanged := domain.GainChange{From: from, To: from}
	if counts == nil {
		return unchanged
	}

	ceiling := c.itime.MaxCount()
	saturated := counts.Channel0 >= ceiling || counts.Channel1 >= ceiling

	switch {
	case (saturated || counts.Channel0 >= c.high) && c.index > 0:
		c.index--
	case !saturated && counts.Channel0 <= c.low && c.index < len(c.enabled)-1:
		c.index++
	default:
		return unchanged
	}

	c.lastChange = c.now()
	return domain.GainChange{
		Changed: true,
		From:    from,
		To:      c.Gain(),
		Wait:    c.guard,
	}
}
