package domain

import (
	"testing"
	"time"
)

func TestParseGainLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    GainLevel
		wantErr bool
	}{
		{in: "low", want: GainLow},
		{in: "med", want: GainMedium},
		{in: "MEDIUM", want: GainMedium},
		{in: " high ", want: GainHigh},
		{in: "max", want: GainMaximum},
		{in: "auto", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGainLevel(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseGainLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseGainLevels(t *testing.T) {
	got, err := ParseGainLevels("low, med,,max")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []GainLevel{GainLow, GainMedium, GainMaximum}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("level %d = %v, want %v", i, got[i], want[i])
		}
	}

	if _, err := ParseGainLevels("low,bogus"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestGainLevel_Register(t *testing.T) {
	want := map[GainLevel]byte{GainLow: 0x00, GainMedium: 0x10, GainHigh: 0x20, GainMaximum: 0x30}
	for g, reg := range want {
		if got := g.Register(); got != reg {
			t.Errorf("%v.Register() = %#x, want %#x", g, got, reg)
		}
	}
}

func TestIntegrationTime(t *testing.T) {
	tests := []struct {
		itime       IntegrationTime
		coefficient float64
		maxCount    uint16
		duration    time.Duration
	}{
		{IntegrationTime100ms, 100, 36863, 100 * time.Millisecond},
		{IntegrationTime200ms, 200, 65535, 200 * time.Millisecond},
		{IntegrationTime600ms, 600, 65535, 600 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.itime.String(), func(t *testing.T) {
			if got := tt.itime.Coefficient(); got != tt.coefficient {
				t.Errorf("Coefficient() = %v, want %v", got, tt.coefficient)
			}
			if got := tt.itime.MaxCount(); got != tt.maxCount {
				t.Errorf("MaxCount() = %v, want %v", got, tt.maxCount)
			}
			if got := tt.itime.Duration(); got != tt.duration {
				t.Errorf("Duration() = %v, want %v", got, tt.duration)
			}
		})
	}
}

func TestParseIntegrationTime(t *testing.T) {
	tests := []struct {
		in      string
		want    IntegrationTime
		wantErr bool
	}{
		{in: "100ms", want: IntegrationTime100ms},
		{in: "300ms", want: IntegrationTime300ms},
		{in: "0.6s", want: IntegrationTime600ms},
		{in: "1", want: IntegrationTime200ms},
		{in: "150ms", wantErr: true},
		{in: "7", wantErr: true},
		{in: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseIntegrationTime(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseIntegrationTime(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
