package dht

import (
	"context"
	"errors"
	"testing"

	"github.com/quentinrf/radiometer/internal/domain"
)

type fakeReader struct {
	humidity, temperature float64
	err                   error
	retries               int
}

func (f *fakeReader) ReadRetry(maxRetries int) (float64, float64, error) {
	f.retries = maxRetries
	return f.humidity, f.temperature, f.err
}

func TestDHT22_ReadEnvironment(t *testing.T) {
	r := &fakeReader{humidity: 65, temperature: 8.5}
	d := &DHT22{pin: "GPIO4", dht: r}

	env, err := d.ReadEnvironment(context.Background())
	if err != nil {
		t.Fatalf("ReadEnvironment failed: %v", err)
	}
	if env.Temperature != 8.5 || env.Humidity != 65 {
		t.Errorf("unexpected environment %+v", env)
	}
	if !env.DewPoint.Valid {
		t.Error("expected a dew point")
	}
	if r.retries != maxRetries {
		t.Errorf("retries = %d, want %d", r.retries, maxRetries)
	}

	// pressure is absent once merged into a sample
	s := domain.CalibratedSample{}.WithEnvironment(env)
	if s.Pressure.Valid {
		t.Error("DHT22 has no pressure channel")
	}
}

func TestDHT22_ReadError(t *testing.T) {
	d := &DHT22{pin: "GPIO4", dht: &fakeReader{err: errors.New("checksum mismatch")}}

	if _, err := d.ReadEnvironment(context.Background()); !errors.Is(err, domain.ErrTransport) {
		t.Errorf("expected ErrTransport, got %v", err)
	}
}
