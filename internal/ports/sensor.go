package ports

import (
	"context"

	"github.com/quentinrf/radiometer/internal/domain"
)

// RawChannelSource reads both photodiode channels at a given setting
// This is a PORT - adapters (I2C, Mock) will implement it
type RawChannelSource interface {
	// ReadRaw returns channel counts; transport failures wrap domain.ErrTransport
	ReadRaw(ctx context.Context, gain domain.GainLevel, itime domain.IntegrationTime) (domain.RawCounts, error)

	// Close releases any resources
	Close() error
}

// AuxiliarySensor reads temperature, humidity and pressure
type AuxiliarySensor interface {
	ReadEnvironment(ctx context.Context) (domain.Environment, error)
	Close() error
}

// ThermalSensor reads a non-contact object temperature in Celsius
type ThermalSensor interface {
	ReadObjectTemperature(ctx context.Context) (float64, error)
	Close() error
}
