package hardware

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/i2c"

	"github.com/quentinrf/radiometer/internal/domain"
)

// TSL2591 registers
const (
	TSL2591Address uint16 = 0x29

	tslCommandBit  byte = 0xA0
	tslRegEnable   byte = 0x00
	tslRegControl  byte = 0x01
	tslRegDeviceID byte = 0x12
	tslRegC0DataL  byte = 0x14

	tslEnablePowerOn byte = 0x01
	tslEnableAEN     byte = 0x02
	tslDeviceID      byte = 0x50
)

// integrationMargin is added to the integration time after a control change
const integrationMargin = 20 * time.Millisecond

// TSL2591 reads raw channel counts from a TSL2591 light sensor.
// This implements the ports.RawChannelSource interface.
type TSL2591 struct {
	dev i2c.Dev

	configured bool
	gain       domain.GainLevel
	itime      domain.IntegrationTime

	wait func(ctx context.Context, d time.Duration) error
}

// NewTSL2591 checks the device id and powers the sensor on
func NewTSL2591(bus i2c.Bus, addr uint16) (*TSL2591, error) {
	t := &TSL2591{
		dev:  i2c.Dev{Bus: bus, Addr: addr},
		wait: sleepContext,
	}

	id := make([]byte, 1)
	if err := t.dev.Tx([]byte{tslCommandBit | tslRegDeviceID}, id); err != nil {
		return nil, fmt.Errorf("%w: tsl2591 id: %v", domain.ErrTransport, err)
	}
	if id[0] != tslDeviceID {
		return nil, domain.NewConfigError("address", "device at %#x is not a TSL2591 (id %#x)", addr, id[0])
	}

	if err := t.write(tslRegEnable, tslEnablePowerOn|tslEnableAEN); err != nil {
		return nil, fmt.Errorf("%w: tsl2591 enable: %v", domain.ErrTransport, err)
	}

	log.Info().Str("bus", bus.String()).Uint16("address", addr).Msg("TSL2591 light sensor ready")
	return t, nil
}

func (t *TSL2591) write(reg, value byte) error {
	return t.dev.Tx([]byte{tslCommandBit | reg, value}, nil)
}

// ReadRaw returns both channels at the requested setting.
// A control change waits one integration period so the counts reflect it.
func (t *TSL2591) ReadRaw(ctx context.Context, gain domain.GainLevel, itime domain.IntegrationTime) (domain.RawCounts, error) {
	if !t.configured || gain != t.gain || itime != t.itime {
		if err := t.write(tslRegControl, gain.Register()|byte(itime)); err != nil {
			return domain.RawCounts{}, fmt.Errorf("%w: tsl2591 control: %v", domain.ErrTransport, err)
		}
		t.configured, t.gain, t.itime = true, gain, itime

		if err := t.wait(ctx, itime.Duration()+integrationMargin); err != nil {
			return domain.RawCounts{}, fmt.Errorf("%w: %v", domain.ErrTransport, err)
		}
	}

	data := make([]byte, 4)
	if err := t.dev.Tx([]byte{tslCommandBit | tslRegC0DataL}, data); err != nil {
		return domain.RawCounts{}, fmt.Errorf("%w: tsl2591 channels: %v", domain.ErrTransport, err)
	}

	return domain.RawCounts{
		Channel0: binary.LittleEndian.Uint16(data[0:2]),
		Channel1: binary.LittleEndian.Uint16(data[2:4]),
	}, nil
}

// Close powers the sensor down
func (t *TSL2591) Close() error {
	if err := t.write(tslRegEnable, 0x00); err != nil {
		return fmt.Errorf("failed to disable tsl2591: %w", err)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
