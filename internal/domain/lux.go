package domain

import (
	"fmt"
	"math"
)

// Calibration holds the sensor-unit constants used by the lux formula
type Calibration struct {
	// Multipliers maps each gain level to its numeric amplification (again)
	Multipliers map[GainLevel]float64 `yaml:"multipliers"`

	// LuxDF is the lux scale divisor from the datasheet
	LuxDF float64 `yaml:"lux_df"`

	CoefB float64 `yaml:"coef_b"`
	CoefC float64 `yaml:"coef_c"`
	CoefD float64 `yaml:"coef_d"`
}

// DefaultCalibration returns the TSL2591 datasheet constants
func DefaultCalibration() Calibration {
	return Calibration{
		Multipliers: map[GainLevel]float64{
			GainLow:     1.0,
			GainMedium:  25.0,
			GainHigh:    428.0,
			GainMaximum: 9876.0,
		},
		LuxDF: 408.0,
		CoefB: 1.64,
		CoefC: 0.59,
		CoefD: 0.86,
	}
}

// LuxConverter maps raw channel counts to illuminance.
// It holds only immutable calibration and is safe to share.
type LuxConverter struct {
	cal Calibration
}

// NewLuxConverter copies cal so later changes to the caller's map have no effect
func NewLuxConverter(cal Calibration) LuxConverter {
	multipliers := make(map[GainLevel]float64, len(cal.Multipliers))
	for g, m := range cal.Multipliers {
		multipliers[g] = m
	}
	cal.Multipliers = multipliers
	return LuxConverter{cal: cal}
}

// Multiplier returns again for the gain level, zero when uncalibrated
func (c LuxConverter) Multiplier(gain GainLevel) float64 {
	return c.cal.Multipliers[gain]
}

// Coefficient returns atime for the integration time
func (c LuxConverter) Coefficient(itime IntegrationTime) float64 {
	return itime.Coefficient()
}

// Convert returns the calibrated illuminance in lux.
// Saturated channels fail with ErrOverflow before any arithmetic.
// The result is the larger of the two piecewise candidates and is not clamped,
// so it may be negative.
func (c LuxConverter) Convert(raw RawCounts, gain GainLevel, itime IntegrationTime) (float64, error) {
	maxCount := itime.MaxCount()
	if raw.Channel0 >= maxCount || raw.Channel1 >= maxCount {
		return 0, fmt.Errorf("%w: ch0=%d ch1=%d max=%d", ErrOverflow, raw.Channel0, raw.Channel1, maxCount)
	}

	atime := c.Coefficient(itime)
	again := c.Multiplier(gain)

	cpl := (atime * again) / c.cal.LuxDF
	if cpl == 0 || math.IsNaN(cpl) || math.IsInf(cpl, 0) {
		return 0, fmt.Errorf("%w: atime=%.1f again=%.1f df=%.1f", ErrDivideByZero, atime, again, c.cal.LuxDF)
	}

	ch0 := float64(raw.Channel0)
	ch1 := float64(raw.Channel1)

	lux1 := (ch0 - c.cal.CoefB*ch1) / cpl
	lux2 := (c.cal.CoefC*ch0 - c.cal.CoefD*ch1) / cpl

	return math.Max(lux1, lux2), nil
}
