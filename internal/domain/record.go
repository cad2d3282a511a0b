package domain

import "time"

// Record is the flattened, serialisable view of a CalibratedSample.
// Absent auxiliary values are nil.
type Record struct {
	Timestamp         time.Time `json:"timestamp"`
	Lux               float64   `json:"lux"`
	SkyBrightness     *float64  `json:"sky_brightness"`
	Channel0          uint16    `json:"ch0"`
	Channel1          uint16    `json:"ch1"`
	Gain              string    `json:"gain"`
	GainMultiplier    float64   `json:"again"`
	IntegrationTime   string    `json:"integration_time"`
	IntegrationCoef   float64   `json:"atime"`
	Temperature       *float64  `json:"temperature"`
	Humidity          *float64  `json:"humidity"`
	Pressure          *float64  `json:"pressure"`
	DewPoint          *float64  `json:"dew_point"`
	ObjectTemperature *float64  `json:"object_temperature"`
}

func optional(m Measurement) *float64 {
	if !m.Valid {
		return nil
	}
	v := m.Value
	return &v
}

// Record returns the serialisable view of s
func (s CalibratedSample) Record() Record {
	return Record{
		Timestamp:         s.Timestamp,
		Lux:               s.Lux,
		SkyBrightness:     optional(s.SkyBrightness()),
		Channel0:          s.Channel0,
		Channel1:          s.Channel1,
		Gain:              s.Gain.String(),
		GainMultiplier:    s.GainMultiplier,
		IntegrationTime:   s.IntegrationTime.String(),
		IntegrationCoef:   s.IntegrationCoefficient,
		Temperature:       optional(s.Temperature),
		Humidity:          optional(s.Humidity),
		Pressure:          optional(s.Pressure),
		DewPoint:          optional(s.DewPoint),
		ObjectTemperature: optional(s.ObjectTemperature),
	}
}

// Fields returns the record as a flat map, omitting absent values.
// Timestamps are RFC 3339 strings.
func (r Record) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		"timestamp":        r.Timestamp.Format(time.RFC3339Nano),
		"lux":              r.Lux,
		"ch0":              float64(r.Channel0),
		"ch1":              float64(r.Channel1),
		"gain":             r.Gain,
		"again":            r.GainMultiplier,
		"integration_time": r.IntegrationTime,
		"atime":            r.IntegrationCoef,
	}
	for name, v := range map[string]*float64{
		"sky_brightness":     r.SkyBrightness,
		"temperature":        r.Temperature,
		"humidity":           r.Humidity,
		"pressure":           r.Pressure,
		"dew_point":          r.DewPoint,
		"object_temperature": r.ObjectTemperature,
	} {
		if v != nil {
			fields[name] = *v
		}
	}
	return fields
}
