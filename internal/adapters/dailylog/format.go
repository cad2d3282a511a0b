package dailylog

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/quentinrf/radiometer/internal/domain"
)

// TimestampLayout is the first two columns of every line
const TimestampLayout = "2006/01/02 15:04:05.000"

const (
	baseFields   = 11 // date, time, lux, ch0, ch1, again, atime, T, H, P, DP
	thermalField = 12
)

// FormatLine renders one sample as a space separated line without the newline
func FormatLine(s domain.CalibratedSample, withObjectTemperature bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %.9f %d %d %.1f %.1f %s %s %s %s",
		s.Timestamp.Format(TimestampLayout),
		s.Lux,
		s.Channel0,
		s.Channel1,
		s.GainMultiplier,
		s.IntegrationCoefficient,
		column(s.Temperature),
		column(s.Humidity),
		column(s.Pressure),
		column(s.DewPoint),
	)
	if withObjectTemperature {
		b.WriteByte(' ')
		b.WriteString(column(s.ObjectTemperature))
	}
	return b.String()
}

func column(m domain.Measurement) string {
	if !m.Valid {
		return "nan"
	}
	return strconv.FormatFloat(m.Value, 'f', 2, 64)
}

// ParseLine reads a line written by FormatLine.
// Timestamps are interpreted in loc. Channel counts written as floats are accepted.
func ParseLine(line string, loc *time.Location) (domain.CalibratedSample, error) {
	fields := strings.Fields(line)
	if len(fields) != baseFields && len(fields) != thermalField {
		return domain.CalibratedSample{}, fmt.Errorf("expected %d or %d fields, got %d", baseFields, thermalField, len(fields))
	}

	ts, err := time.ParseInLocation(TimestampLayout, fields[0]+" "+fields[1], loc)
	if err != nil {
		return domain.CalibratedSample{}, fmt.Errorf("failed to parse timestamp: %w", err)
	}

	nums := make([]float64, len(fields)-2)
	for i, f := range fields[2:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return domain.CalibratedSample{}, fmt.Errorf("failed to parse column %d: %w", i+3, err)
		}
		nums[i] = v
	}

	ch0, err := counts(nums[1])
	if err != nil {
		return domain.CalibratedSample{}, fmt.Errorf("channel 0: %w", err)
	}
	ch1, err := counts(nums[2])
	if err != nil {
		return domain.CalibratedSample{}, fmt.Errorf("channel 1: %w", err)
	}

	s := domain.CalibratedSample{
		Timestamp:              ts,
		Lux:                    nums[0],
		Channel0:               ch0,
		Channel1:               ch1,
		GainMultiplier:         nums[3],
		IntegrationCoefficient: nums[4],
		Temperature:            domain.Some(nums[5]),
		Humidity:               domain.Some(nums[6]),
		Pressure:               domain.Some(nums[7]),
		DewPoint:               domain.Some(nums[8]),
	}
	if len(nums) == thermalField-2 {
		s.ObjectTemperature = domain.Some(nums[9])
	}
	s.Gain = gainFromMultiplier(s.GainMultiplier)
	s.IntegrationTime = integrationFromCoefficient(s.IntegrationCoefficient)

	return s, nil
}

func counts(v float64) (uint16, error) {
	if math.IsNaN(v) || v < 0 || v > math.MaxUint16 {
		return 0, fmt.Errorf("count %v out of range", v)
	}
	return uint16(v), nil
}

// gainFromMultiplier maps a datasheet multiplier back to its level, low when unknown
func gainFromMultiplier(again float64) domain.GainLevel {
	for g, m := range domain.DefaultCalibration().Multipliers {
		if m == again {
			return g
		}
	}
	return domain.GainLow
}

func integrationFromCoefficient(atime float64) domain.IntegrationTime {
	if atime < 100 || atime > 600 {
		return domain.IntegrationTime100ms
	}
	it := domain.IntegrationTime(math.Round((atime - 100) / 100))
	if !it.Valid() {
		return domain.IntegrationTime100ms
	}
	return it
}
