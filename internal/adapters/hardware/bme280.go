package hardware

import (
	"context"
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"

	"github.com/quentinrf/radiometer/internal/adapters/environment"
	"github.com/quentinrf/radiometer/internal/domain"
)

// BME280Address is the default address with SDO low
const BME280Address uint16 = 0x76

// BME280 reads temperature, humidity and pressure.
// This implements the ports.AuxiliarySensor interface.
type BME280 struct {
	dev *bmxx80.Dev
}

// NewBME280 initialises the sensor with 4x oversampling
func NewBME280(bus i2c.Bus, addr uint16) (*BME280, error) {
	dev, err := bmxx80.NewI2C(bus, addr, &bmxx80.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: bme280: %v", domain.ErrTransport, err)
	}
	return &BME280{dev: dev}, nil
}

// ReadEnvironment takes one forced measurement
func (b *BME280) ReadEnvironment(ctx context.Context) (domain.Environment, error) {
	var e physic.Env
	if err := b.dev.Sense(&e); err != nil {
		return domain.Environment{}, fmt.Errorf("%w: bme280: %v", domain.ErrTransport, err)
	}
	return fromPhysic(e), nil
}

// fromPhysic converts periph units to Celsius, percent and hPa
func fromPhysic(e physic.Env) domain.Environment {
	t := e.Temperature.Celsius()
	h := float64(e.Humidity) / float64(physic.PercentRH)
	p := float64(e.Pressure) / float64(100*physic.Pascal)
	return environment.New(t, h, p)
}

// Close halts the sensor
func (b *BME280) Close() error {
	return b.dev.Halt()
}
