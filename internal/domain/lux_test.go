package domain

import (
	"errors"
	"math"
	"testing"
)

func closeEnough(got, want float64) bool {
	if want == 0 {
		return math.Abs(got) < 1e-12
	}
	return math.Abs((got-want)/want) <= 1e-6
}

func TestConvert_ReferenceValues(t *testing.T) {
	conv := NewLuxConverter(DefaultCalibration())

	// Reference values are hand computed from
	// cpl = atime*again/408, lux = max((c0-1.64*c1)/cpl, (0.59*c0-0.86*c1)/cpl)
	tests := []struct {
		name  string
		raw   RawCounts
		gain  GainLevel
		itime IntegrationTime
		want  float64
	}{
		{
			// cpl = 100*1/408; lux1 = 836/cpl
			name:  "low gain 100ms",
			raw:   RawCounts{Channel0: 1000, Channel1: 100},
			gain:  GainLow,
			itime: IntegrationTime100ms,
			want:  836.0 * 408.0 / 100.0,
		},
		{
			// cpl = 200*25/408 ~ 12.25; lux1 = 836/cpl = 68.2176
			name:  "medium gain 200ms",
			raw:   RawCounts{Channel0: 1000, Channel1: 100},
			gain:  GainMedium,
			itime: IntegrationTime200ms,
			want:  68.2176,
		},
		{
			name:  "high gain 100ms",
			raw:   RawCounts{Channel0: 20000, Channel1: 4000},
			gain:  GainHigh,
			itime: IntegrationTime100ms,
			want:  (20000.0 - 1.64*4000.0) * 408.0 / (100.0 * 428.0),
		},
		{
			// lux2 wins when ch1 is large relative to ch0
			name:  "maximum gain 100ms infrared heavy",
			raw:   RawCounts{Channel0: 1000, Channel1: 900},
			gain:  GainMaximum,
			itime: IntegrationTime100ms,
			want:  (0.59*1000.0 - 0.86*900.0) * 408.0 / (100.0 * 9876.0),
		},
		{
			name:  "zero counts",
			raw:   RawCounts{},
			gain:  GainMedium,
			itime: IntegrationTime100ms,
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := conv.Convert(tt.raw, tt.gain, tt.itime)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !closeEnough(got, tt.want) {
				t.Errorf("Convert() = %.9f, want %.9f", got, tt.want)
			}
		})
	}
}

func TestConvert_Medium100ms(t *testing.T) {
	conv := NewLuxConverter(DefaultCalibration())

	got, err := conv.Convert(RawCounts{Channel0: 1000, Channel1: 100}, GainMedium, IntegrationTime100ms)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 100ms is code 0, so atime = 100
	cpl := (100.0 * 25.0) / 408.0
	lux1 := (1000.0 - 1.64*100.0) / cpl
	lux2 := (0.59*1000.0 - 0.86*100.0) / cpl
	want := math.Max(lux1, lux2)

	if !closeEnough(got, want) {
		t.Errorf("Convert() = %v, want %v", got, want)
	}
	if !closeEnough(got, 136.4352) {
		t.Errorf("Convert() = %v, want 136.4352", got)
	}
}

func TestConvert_NegativeCandidatesNotClamped(t *testing.T) {
	conv := NewLuxConverter(DefaultCalibration())

	got, err := conv.Convert(RawCounts{Channel0: 100, Channel1: 200}, GainLow, IntegrationTime100ms)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got >= 0 {
		t.Errorf("expected negative lux, got %v", got)
	}

	cpl := 100.0 / 408.0
	want := math.Max((100-1.64*200)/cpl, (0.59*100-0.86*200)/cpl)
	if !closeEnough(got, want) {
		t.Errorf("Convert() = %v, want %v", got, want)
	}
}

func TestConvert_Overflow(t *testing.T) {
	conv := NewLuxConverter(DefaultCalibration())

	tests := []struct {
		name  string
		raw   RawCounts
		itime IntegrationTime
	}{
		{name: "ch0 at 100ms ceiling", raw: RawCounts{Channel0: MaxCount100ms}, itime: IntegrationTime100ms},
		{name: "ch1 at 100ms ceiling", raw: RawCounts{Channel0: 10, Channel1: MaxCount100ms}, itime: IntegrationTime100ms},
		{name: "above 100ms ceiling", raw: RawCounts{Channel0: 40000, Channel1: 100}, itime: IntegrationTime100ms},
		{name: "full scale at 200ms", raw: RawCounts{Channel0: MaxCount, Channel1: 0}, itime: IntegrationTime200ms},
		{name: "full scale at 600ms", raw: RawCounts{Channel0: 1, Channel1: MaxCount}, itime: IntegrationTime600ms},
	}

	for _, tt := range tests {
		for _, gain := range AllGains {
			t.Run(tt.name+"/"+gain.String(), func(t *testing.T) {
				lux, err := conv.Convert(tt.raw, gain, tt.itime)
				if !errors.Is(err, ErrOverflow) {
					t.Fatalf("expected ErrOverflow, got lux=%v err=%v", lux, err)
				}
				if !errors.Is(err, ErrConversion) {
					t.Errorf("expected overflow to be a conversion error")
				}
			})
		}
	}
}

func TestConvert_BelowCeilingAt200ms(t *testing.T) {
	conv := NewLuxConverter(DefaultCalibration())

	// 40000 saturates 100ms but not 200ms
	if _, err := conv.Convert(RawCounts{Channel0: 40000, Channel1: 100}, GainLow, IntegrationTime200ms); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestConvert_DivideByZero(t *testing.T) {
	cal := DefaultCalibration()
	cal.Multipliers[GainHigh] = 0
	conv := NewLuxConverter(cal)

	_, err := conv.Convert(RawCounts{Channel0: 100, Channel1: 10}, GainHigh, IntegrationTime100ms)
	if !errors.Is(err, ErrDivideByZero) {
		t.Fatalf("expected ErrDivideByZero, got %v", err)
	}
	if errors.Is(err, ErrOverflow) {
		t.Error("divide by zero must be distinct from overflow")
	}

	// Missing table entry behaves the same
	delete(cal.Multipliers, GainHigh)
	conv = NewLuxConverter(cal)
	if _, err := conv.Convert(RawCounts{Channel0: 100}, GainHigh, IntegrationTime100ms); !errors.Is(err, ErrDivideByZero) {
		t.Errorf("expected ErrDivideByZero for uncalibrated gain, got %v", err)
	}
}

func TestConvert_ZeroScaleFactor(t *testing.T) {
	cal := DefaultCalibration()
	cal.LuxDF = 0
	conv := NewLuxConverter(cal)

	if _, err := conv.Convert(RawCounts{Channel0: 100}, GainLow, IntegrationTime100ms); !errors.Is(err, ErrDivideByZero) {
		t.Errorf("expected ErrDivideByZero, got %v", err)
	}
}

func TestNewLuxConverter_CopiesCalibration(t *testing.T) {
	cal := DefaultCalibration()
	conv := NewLuxConverter(cal)
	cal.Multipliers[GainLow] = 0

	if conv.Multiplier(GainLow) != 1.0 {
		t.Errorf("converter must not observe caller changes, got %v", conv.Multiplier(GainLow))
	}
}
