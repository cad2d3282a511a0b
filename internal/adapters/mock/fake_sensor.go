package mock

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"github.com/quentinrf/radiometer/internal/domain"
)

// FakeSource simulates a TSL2591 looking at a scene of known brightness
// This implements the ports.RawChannelSource interface
type FakeSource struct {
	mu        sync.Mutex
	baseLux   float64
	variation float64
	irRatio   float64
	cal       domain.Calibration

	// Reads counts ReadRaw calls
	Reads int
}

// NewFakeSource creates a source that returns counts for baseLux
// baseLux: average lux (e.g., 0.01 for a dark sky, 500 for indoor lighting)
// variation: +/- range in lux
func NewFakeSource(baseLux, variation float64) *FakeSource {
	return &FakeSource{
		baseLux:   baseLux,
		variation: variation,
		irRatio:   0.1,
		cal:       domain.DefaultCalibration(),
	}
}

// SetLux changes the simulated scene brightness
func (s *FakeSource) SetLux(lux float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseLux = lux
}

// ReadRaw returns the counts the sensor would report at this setting.
// Counts saturate at the integration time ceiling as real hardware does.
func (s *FakeSource) ReadRaw(ctx context.Context, gain domain.GainLevel, itime domain.IntegrationTime) (domain.RawCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reads++

	variance := (rand.Float64() - 0.5) * 2 * s.variation
	lux := s.baseLux + variance
	if lux < 0 {
		lux = 0
	}

	cpl := itime.Coefficient() * s.cal.Multipliers[gain] / s.cal.LuxDF

	// inverse of lux = (ch0 - B*ch1) / cpl with ch1 = irRatio*ch0
	ch0 := lux * cpl / (1 - s.cal.CoefB*s.irRatio)
	ch1 := ch0 * s.irRatio

	return domain.RawCounts{
		Channel0: saturate(ch0, itime.MaxCount()),
		Channel1: saturate(ch1, itime.MaxCount()),
	}, nil
}

func saturate(counts float64, ceiling uint16) uint16 {
	if counts >= float64(ceiling) {
		return ceiling
	}
	return uint16(math.Round(counts))
}

// Close is a no-op for fake source
func (s *FakeSource) Close() error {
	return nil
}
