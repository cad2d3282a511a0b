package domain

import (
	"math"
	"time"
)

// Measurement is an optional auxiliary value.
// A failed auxiliary read leaves it invalid instead of blocking the sample.
type Measurement struct {
	Value float64
	Valid bool
}

// Some wraps a present value
func Some(v float64) Measurement {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Measurement{}
	}
	return Measurement{Value: v, Valid: true}
}

// Float returns the value or NaN when absent
func (m Measurement) Float() float64 {
	if !m.Valid {
		return math.NaN()
	}
	return m.Value
}

// Environment is one reading of the temperature/humidity/pressure sensor
type Environment struct {
	Temperature float64 // degrees Celsius
	Humidity    float64 // percent relative humidity
	Pressure    float64 // hPa
	DewPoint    Measurement
}

// CalibratedSample is one emitted acquisition result.
// It is a plain value: copies never share mutable state.
type CalibratedSample struct {
	Timestamp time.Time
	Lux       float64
	Channel0  uint16
	Channel1  uint16

	Gain                   GainLevel
	GainMultiplier         float64
	IntegrationTime        IntegrationTime
	IntegrationCoefficient float64

	Temperature       Measurement
	Humidity          Measurement
	Pressure          Measurement
	DewPoint          Measurement
	ObjectTemperature Measurement
}

// WithEnvironment returns a copy carrying the auxiliary readings
func (s CalibratedSample) WithEnvironment(env Environment) CalibratedSample {
	s.Temperature = Some(env.Temperature)
	s.Humidity = Some(env.Humidity)
	s.Pressure = Some(env.Pressure)
	s.DewPoint = env.DewPoint
	return s
}

// WithObjectTemperature returns a copy carrying the thermal sensor reading
func (s CalibratedSample) WithObjectTemperature(celsius float64) CalibratedSample {
	s.ObjectTemperature = Some(celsius)
	return s
}

// skyBrightnessZeroPoint is the lux of a 0 mag/arcsec² sky
const skyBrightnessZeroPoint = 108000.0

// SkyBrightness converts illuminance to magnitudes per square arcsecond.
// Invalid for non-positive lux.
func (s CalibratedSample) SkyBrightness() Measurement {
	if s.Lux <= 0 {
		return Measurement{}
	}
	return Some(-2.5 * math.Log10(s.Lux/skyBrightnessZeroPoint))
}

// IsDark returns true below civil-twilight illuminance
// Business rule: < 3.4 lux is the end of civil twilight
func (s CalibratedSample) IsDark() bool {
	return s.Lux < 3.4
}
