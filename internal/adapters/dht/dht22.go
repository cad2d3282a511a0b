package dht

import (
	"context"
	"fmt"
	"math"

	godht "github.com/MichaelS11/go-dht"

	"github.com/quentinrf/radiometer/internal/adapters/environment"
	"github.com/quentinrf/radiometer/internal/domain"
)

// maxRetries matches the go-dht recommendation for DHT22 timing glitches
const maxRetries = 11

type reader interface {
	ReadRetry(maxRetries int) (humidity float64, temperature float64, err error)
}

// DHT22 reads temperature and humidity over a single GPIO pin.
// It has no pressure channel, so pressure is always absent.
// This implements the ports.AuxiliarySensor interface.
type DHT22 struct {
	pin string
	dht reader
}

// NewDHT22 initialises the host GPIO drivers and binds the sensor to pin (e.g. "GPIO4")
func NewDHT22(pin string) (*DHT22, error) {
	if err := godht.HostInit(); err != nil {
		return nil, fmt.Errorf("failed to initialise gpio host: %w", err)
	}

	d, err := godht.NewDHT(pin, godht.Celsius, "")
	if err != nil {
		return nil, domain.NewConfigError("dht_pin", "%v", err)
	}
	return &DHT22{pin: pin, dht: d}, nil
}

// ReadEnvironment reads once, retrying on checksum errors
func (d *DHT22) ReadEnvironment(ctx context.Context) (domain.Environment, error) {
	humidity, temperature, err := d.dht.ReadRetry(maxRetries)
	if err != nil {
		return domain.Environment{}, fmt.Errorf("%w: dht22 on %s: %v", domain.ErrTransport, d.pin, err)
	}
	return environment.New(temperature, humidity, math.NaN()), nil
}

// Close is a no-op
func (d *DHT22) Close() error {
	return nil
}
