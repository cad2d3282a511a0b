package hardware

import (
	"context"
	"fmt"

	"periph.io/x/conn/v3/i2c"

	"github.com/quentinrf/radiometer/internal/domain"
)

// MLX90614 registers
const (
	MLX90614Address uint16 = 0x5A

	mlxRegObject1 byte = 0x07
)

// MLX90614 reads the sky temperature from an infrared thermometer.
// This implements the ports.ThermalSensor interface.
type MLX90614 struct {
	dev i2c.Dev
}

// NewMLX90614 binds the sensor; the device needs no initialisation
func NewMLX90614(bus i2c.Bus, addr uint16) *MLX90614 {
	return &MLX90614{dev: i2c.Dev{Bus: bus, Addr: addr}}
}

// ReadObjectTemperature returns the object temperature in degrees Celsius
func (m *MLX90614) ReadObjectTemperature(ctx context.Context) (float64, error) {
	// low byte, high byte, PEC
	data := make([]byte, 3)
	if err := m.dev.Tx([]byte{mlxRegObject1}, data); err != nil {
		return 0, fmt.Errorf("%w: mlx90614: %v", domain.ErrTransport, err)
	}

	raw := uint16(data[0]) | uint16(data[1])<<8
	if raw&0x8000 != 0 {
		return 0, fmt.Errorf("%w: mlx90614 error flag set (%#04x)", domain.ErrTransport, raw)
	}
	return float64(raw)*0.02 - 273.15, nil
}

// Close is a no-op; the sensor has no power-down command
func (m *MLX90614) Close() error {
	return nil
}
