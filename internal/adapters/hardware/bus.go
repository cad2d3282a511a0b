package hardware

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/quentinrf/radiometer/internal/domain"
)

// DefaultMuxAddress is the TCA9548A address with A0..A2 low
const DefaultMuxAddress uint16 = 0x70

// Open initialises the host drivers and opens the named bus ("" for the first one)
func Open(name string) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialise host drivers: %w", err)
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open i2c bus %q: %v", domain.ErrTransport, name, err)
	}
	return bus, nil
}

// MuxBus routes every transaction through one TCA9548A channel.
// The channel is selected before each transaction because other
// consumers may share the multiplexer.
type MuxBus struct {
	mu      sync.Mutex
	bus     i2c.Bus
	addr    uint16
	channel uint8
}

// NewMuxBus returns a bus bound to channel 0..7 of the multiplexer at addr
func NewMuxBus(bus i2c.Bus, addr uint16, channel uint8) (*MuxBus, error) {
	if channel > 7 {
		return nil, domain.NewConfigError("multiplexer", "channel must be 0..7, got %d", channel)
	}
	return &MuxBus{bus: bus, addr: addr, channel: channel}, nil
}

func (m *MuxBus) String() string {
	return fmt.Sprintf("%s/tca9548a@%#x:%d", m.bus, m.addr, m.channel)
}

// Tx selects the channel, then performs the transaction
func (m *MuxBus) Tx(addr uint16, w, r []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.bus.Tx(m.addr, []byte{1 << m.channel}, nil); err != nil {
		return fmt.Errorf("failed to select multiplexer channel %d: %w", m.channel, err)
	}
	return m.bus.Tx(addr, w, r)
}

// SetSpeed forwards to the parent bus
func (m *MuxBus) SetSpeed(f physic.Frequency) error {
	return m.bus.SetSpeed(f)
}
