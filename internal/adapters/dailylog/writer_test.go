package dailylog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/quentinrf/radiometer/internal/domain"
)

func sampleAt(ts time.Time, lux float64) domain.CalibratedSample {
	return domain.CalibratedSample{
		Timestamp:              ts,
		Lux:                    lux,
		Channel0:               1234,
		Channel1:               56,
		Gain:                   domain.GainMaximum,
		GainMultiplier:         9876,
		IntegrationTime:        domain.IntegrationTime100ms,
		IntegrationCoefficient: 100,
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestFileName(t *testing.T) {
	day := time.Date(2024, 2, 9, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		want string
	}{
		{name: "", want: "R20240209.csv"},
		{name: "roof", want: "R_roof_20240209.csv"},
	}
	for _, tt := range tests {
		if got := FileName(tt.name, day); got != tt.want {
			t.Errorf("FileName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestFormatLine(t *testing.T) {
	ts := time.Date(2024, 2, 9, 21, 5, 7, 250_000_000, time.UTC)
	s := sampleAt(ts, 0.012345678)
	s.Temperature = domain.Some(-3.456)
	s.Humidity = domain.Some(88)
	s.Pressure = domain.Some(1001.5)

	want := "2024/02/09 21:05:07.250 0.012345678 1234 56 9876.0 100.0 -3.46 88.00 1001.50 nan"
	if got := FormatLine(s, false); got != want {
		t.Errorf("FormatLine =\n%q\nwant\n%q", got, want)
	}
	if got := FormatLine(s, true); got != want+" nan" {
		t.Errorf("FormatLine with thermal = %q", got)
	}
}

func TestParseLine(t *testing.T) {
	line := "2024/02/09 21:05:07.250 0.012345678 1234.000000 56.000000 9876.0 100.0 -3.46 88.00 nan nan -21.50"

	got, err := ParseLine(line, time.UTC)
	if err != nil {
		t.Fatalf("ParseLine failed: %v", err)
	}
	if !got.Timestamp.Equal(time.Date(2024, 2, 9, 21, 5, 7, 250_000_000, time.UTC)) {
		t.Errorf("Timestamp = %v", got.Timestamp)
	}
	if got.Channel0 != 1234 || got.Channel1 != 56 {
		t.Errorf("channels = %d/%d", got.Channel0, got.Channel1)
	}
	if got.Gain != domain.GainMaximum || got.IntegrationTime != domain.IntegrationTime100ms {
		t.Errorf("gain/itime = %v/%v", got.Gain, got.IntegrationTime)
	}
	if got.Pressure.Valid || got.DewPoint.Valid {
		t.Error("nan columns must parse as absent")
	}
	if !got.ObjectTemperature.Valid || got.ObjectTemperature.Value != -21.5 {
		t.Errorf("ObjectTemperature = %+v", got.ObjectTemperature)
	}

	for _, bad := range []string{"", "2024/02/09 21:05:07.250 1 2", "not a date 0.1 1 2 1.0 100.0 nan nan nan nan"} {
		if _, err := ParseLine(bad, time.UTC); err == nil {
			t.Errorf("ParseLine(%q) should fail", bad)
		}
	}
}

func TestWriter_AppendsToDailyFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	w, err := NewWriter(dir, WithName("roof"))
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	ctx := context.Background()
	day := time.Date(2024, 2, 9, 22, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if err := w.WriteSample(ctx, sampleAt(day.Add(time.Duration(i)*time.Minute), 0.5)); err != nil {
			t.Fatalf("WriteSample failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// A new writer appends rather than truncates
	w2, _ := NewWriter(dir, WithName("roof"))
	_ = w2.WriteSample(ctx, sampleAt(day.Add(time.Hour), 0.25))
	_ = w2.Close()

	lines := readLines(t, filepath.Join(dir, "R_roof_20240209.csv"))
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %v", len(lines), lines)
	}
	if !strings.HasPrefix(lines[3], "2024/02/09 23:00:00.000 0.250000000") {
		t.Errorf("unexpected last line %q", lines[3])
	}
}

func TestWriter_RotatesAtMidnight(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	defer w.Close()
	ctx := context.Background()

	before := time.Date(2024, 2, 9, 23, 59, 30, 0, time.UTC)
	after := before.Add(time.Minute)

	if err := w.WriteSample(ctx, sampleAt(before, 1)); err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}
	first := w.file
	if err := w.WriteSample(ctx, sampleAt(after, 2)); err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}

	if w.file == first {
		t.Error("expected a new handle after the date change")
	}
	if err := first.Close(); err == nil {
		t.Error("previous day's file should already be closed")
	}
	if w.date != "20240210" {
		t.Errorf("date = %q, want 20240210", w.date)
	}

	if n := len(readLines(t, filepath.Join(dir, "R20240209.csv"))); n != 1 {
		t.Errorf("day D has %d lines, want 1", n)
	}
	if n := len(readLines(t, filepath.Join(dir, "R20240210.csv"))); n != 1 {
		t.Errorf("day D+1 has %d lines, want 1", n)
	}
}

func TestWriter_ObjectTemperatureColumn(t *testing.T) {
	dir := t.TempDir()
	w, _ := NewWriter(dir, WithObjectTemperature())
	ts := time.Date(2024, 2, 9, 22, 0, 0, 0, time.UTC)
	s := sampleAt(ts, 1).WithObjectTemperature(-19.25)

	if err := w.WriteSample(context.Background(), s); err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}
	_ = w.Close()

	fields := strings.Fields(readLines(t, w.Path(ts))[0])
	if len(fields) != 12 || fields[11] != "-19.25" {
		t.Errorf("fields = %v, want object temperature as column 12", fields)
	}
}

func TestReadLastDays(t *testing.T) {
	dir := t.TempDir()
	w, _ := NewWriter(dir)
	ctx := context.Background()
	today := time.Date(2024, 2, 10, 3, 0, 0, 0, time.UTC)

	_ = w.WriteSample(ctx, sampleAt(today.AddDate(0, 0, -5), 9)) // outside the window
	_ = w.WriteSample(ctx, sampleAt(today.AddDate(0, 0, -1), 1))
	_ = w.WriteSample(ctx, sampleAt(today, 2))
	_ = w.Close()

	// corrupt a line to check it is skipped
	f, _ := os.OpenFile(w.Path(today), os.O_WRONLY|os.O_APPEND, 0o644)
	_, _ = f.WriteString("garbage\n")
	_ = f.Close()

	got, err := ReadLastDays(dir, "", 2, today)
	if err != nil {
		t.Fatalf("ReadLastDays failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(got))
	}
	if got[0].Lux != 1 || got[1].Lux != 2 {
		t.Errorf("unexpected order: %v, %v", got[0].Lux, got[1].Lux)
	}

	if got, _ := ReadLastDays(dir, "", 1, today.AddDate(0, 0, 30)); len(got) != 0 {
		t.Errorf("expected no samples for a missing day, got %d", len(got))
	}
}
