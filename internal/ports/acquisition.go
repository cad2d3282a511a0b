package ports

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quentinrf/radiometer/internal/domain"
)

// LoopConfig holds the acquisition cadence settings
type LoopConfig struct {
	// Period is the wait between cycles, additional to any guard interval
	Period time.Duration

	// Retention is how long pruning sinks keep samples; zero disables pruning
	Retention time.Duration

	// RetentionCheck is how often pruning runs
	RetentionCheck time.Duration
}

// DefaultLoopConfig returns a 58s cadence with 30 days of retention
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		Period:         58 * time.Second,
		Retention:      30 * 24 * time.Hour,
		RetentionCheck: 24 * time.Hour,
	}
}

// Outcome classifies how a cycle ended
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeEmitted
	OutcomeTransportError
	OutcomeOverflow
	OutcomeConfigFault
	OutcomeSinkError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeEmitted:
		return "emitted"
	case OutcomeTransportError:
		return "transport_error"
	case OutcomeOverflow:
		return "overflow"
	case OutcomeConfigFault:
		return "config_fault"
	case OutcomeSinkError:
		return "sink_error"
	}
	return "unknown"
}

// CycleResult describes one completed cycle
type CycleResult struct {
	Outcome    Outcome
	GainChange domain.GainChange

	// Sample is set when a sample was produced (emitted or rejected by a sink)
	Sample *domain.CalibratedSample
	Err    error
}

// Stats counts cycle outcomes since the loop was created
type Stats struct {
	Cycles          int64
	Emitted         int64
	TransportErrors int64
	Overflows       int64
	ConfigFaults    int64
	SinkErrors      int64
	GainChanges     int64
}

// Snapshot is the read-only view published after every cycle.
// It is a value copy; readers on other goroutines never see in-progress state.
type Snapshot struct {
	UpdatedAt   time.Time
	State       domain.SensorState
	Stats       Stats
	LastOutcome Outcome
	HasSample   bool
	LastSample  domain.CalibratedSample
}

// Option customises an AcquisitionLoop
type Option func(*AcquisitionLoop)

// WithAuxiliarySensor merges temperature, humidity and pressure into each sample
func WithAuxiliarySensor(s AuxiliarySensor) Option {
	return func(l *AcquisitionLoop) { l.aux = s }
}

// WithThermalSensor merges the object temperature into each sample
func WithThermalSensor(s ThermalSensor) Option {
	return func(l *AcquisitionLoop) { l.thermal = s }
}

// WithClock replaces the wall clock and the guard sleep, for tests
func WithClock(now func() time.Time, sleep func(time.Duration)) Option {
	return func(l *AcquisitionLoop) {
		l.now = now
		l.sleep = sleep
	}
}

// AcquisitionLoop drives gain control, conversion and emission on a fixed cadence.
// One cycle fully completes before the next begins.
type AcquisitionLoop struct {
	gain      *GainController
	converter domain.LuxConverter
	sink      domain.SampleSink
	aux       AuxiliarySensor
	thermal   ThermalSensor
	cfg       LoopConfig

	now   func() time.Time
	sleep func(time.Duration)

	stats     Stats
	lastPrune time.Time
	snapshot  atomic.Pointer[Snapshot]
}

// NewAcquisitionLoop wires the loop; configuration faults return *domain.ConfigError
func NewAcquisitionLoop(gain *GainController, converter domain.LuxConverter, sink domain.SampleSink, cfg LoopConfig, opts ...Option) (*AcquisitionLoop, error) {
	if gain == nil {
		return nil, domain.NewConfigError("gain_controller", "is required")
	}
	if sink == nil {
		return nil, domain.NewConfigError("sink", "is required")
	}
	if cfg.Period <= 0 {
		return nil, domain.NewConfigError("period", "must be positive, got %s", cfg.Period)
	}
	if cfg.Retention > 0 && cfg.RetentionCheck <= 0 {
		cfg.RetentionCheck = 24 * time.Hour
	}

	l := &AcquisitionLoop{
		gain:      gain,
		converter: converter,
		sink:      sink,
		cfg:       cfg,
		now:       time.Now,
		sleep:     time.Sleep,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.gain.now = l.now
	l.publish(CycleResult{Outcome: OutcomeNone})
	return l, nil
}

// Snapshot returns the state published by the last completed cycle
func (l *AcquisitionLoop) Snapshot() Snapshot {
	return *l.snapshot.Load()
}

// Run cycles until ctx is cancelled.
// Cancellation is observed only while idle between cycles; an in-flight cycle
// always completes, so sinks never see a half-written sample.
func (l *AcquisitionLoop) Run(ctx context.Context) {
	log.Info().
		Dur("period", l.cfg.Period).
		Stringer("gain", l.gain.Gain()).
		Stringer("integration_time", l.gain.State().IntegrationTime).
		Msg("starting acquisition loop")

	cycleCtx := context.WithoutCancel(ctx)
	l.lastPrune = l.now()

	for {
		if ctx.Err() != nil {
			break
		}

		l.Cycle(cycleCtx)
		l.maybePrune(cycleCtx)

		if !l.idle(ctx) {
			break
		}
	}

	log.Info().Msg("stopping acquisition loop")
}

// idle waits one period, returning false when ctx is cancelled first
func (l *AcquisitionLoop) idle(ctx context.Context) bool {
	timer := time.NewTimer(l.cfg.Period)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Cycle runs ReadRaw, MaybeAdjustGain, Settle, ReadRaw(confirm), Convert and EmitSample once.
// Every per-cycle error is contained here.
func (l *AcquisitionLoop) Cycle(ctx context.Context) CycleResult {
	l.stats.Cycles++
	result := l.cycle(ctx)
	l.publish(result)
	return result
}

func (l *AcquisitionLoop) cycle(ctx context.Context) CycleResult {
	log.Debug().Msg("reading light sensor")

	raw, err := l.gain.Read(ctx)
	if err != nil {
		return l.transportError(err)
	}

	change := l.gain.Adjust(&raw)
	if change.Changed {
		l.stats.GainChanges++
		log.Info().
			Stringer("from", change.From).
			Stringer("to", change.To).
			Uint16("ch0", raw.Channel0).
			Dur("wait", change.Wait).
			Msg("gain changed, settling")

		l.sleep(change.Wait)

		raw, err = l.gain.Read(ctx)
		if err != nil {
			r := l.transportError(err)
			r.GainChange = change
			return r
		}
	}

	readAt := l.now()
	state := l.gain.State()

	lux, err := l.converter.Convert(raw, state.Gain, state.IntegrationTime)
	switch {
	case errors.Is(err, domain.ErrOverflow):
		l.stats.Overflows++
		log.Info().
			Err(err).
			Stringer("gain", state.Gain).
			Msg("light channels saturated, skipping sample")
		return CycleResult{Outcome: OutcomeOverflow, GainChange: change, Err: err}

	case errors.Is(err, domain.ErrDivideByZero):
		l.stats.ConfigFaults++
		log.Warn().
			Err(err).
			Stringer("gain", state.Gain).
			Float64("again", l.converter.Multiplier(state.Gain)).
			Msg("lux conversion configuration fault, check the gain calibration table")
		return CycleResult{Outcome: OutcomeConfigFault, GainChange: change, Err: err}

	case err != nil:
		l.stats.ConfigFaults++
		log.Error().Err(err).Msg("failed to convert light reading")
		return CycleResult{Outcome: OutcomeConfigFault, GainChange: change, Err: err}
	}

	sample := domain.CalibratedSample{
		Timestamp:              readAt,
		Lux:                    lux,
		Channel0:               raw.Channel0,
		Channel1:               raw.Channel1,
		Gain:                   state.Gain,
		GainMultiplier:         l.converter.Multiplier(state.Gain),
		IntegrationTime:        state.IntegrationTime,
		IntegrationCoefficient: l.converter.Coefficient(state.IntegrationTime),
	}
	sample = l.withAuxiliary(ctx, sample)

	if err := l.sink.WriteSample(ctx, sample); err != nil {
		l.stats.SinkErrors++
		log.Error().Err(err).Msg("failed to save sample")
		return CycleResult{Outcome: OutcomeSinkError, GainChange: change, Sample: &sample, Err: err}
	}

	l.stats.Emitted++
	log.Info().
		Float64("lux", lux).
		Uint16("ch0", raw.Channel0).
		Uint16("ch1", raw.Channel1).
		Stringer("gain", state.Gain).
		Msg("recorded light sample")

	return CycleResult{Outcome: OutcomeEmitted, GainChange: change, Sample: &sample}
}

func (l *AcquisitionLoop) transportError(err error) CycleResult {
	l.stats.TransportErrors++
	log.Warn().Err(err).Msg("failed to read light sensor")
	return CycleResult{Outcome: OutcomeTransportError, Err: err}
}

// withAuxiliary merges each auxiliary reading independently
func (l *AcquisitionLoop) withAuxiliary(ctx context.Context, sample domain.CalibratedSample) domain.CalibratedSample {
	if l.aux != nil {
		env, err := l.aux.ReadEnvironment(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("failed to read environment sensor")
		} else {
			sample = sample.WithEnvironment(env)
		}
	}

	if l.thermal != nil {
		t, err := l.thermal.ReadObjectTemperature(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("failed to read thermal sensor")
		} else {
			sample = sample.WithObjectTemperature(t)
		}
	}

	return sample
}

func (l *AcquisitionLoop) maybePrune(ctx context.Context) {
	if l.cfg.Retention <= 0 {
		return
	}
	p, ok := l.sink.(Pruner)
	if !ok {
		return
	}

	now := l.now()
	if now.Sub(l.lastPrune) < l.cfg.RetentionCheck {
		return
	}
	l.lastPrune = now

	if err := p.DeleteOldSamples(ctx, l.cfg.Retention); err != nil {
		log.Error().Err(err).Msg("failed to delete old samples")
	} else {
		log.Info().Dur("retention", l.cfg.Retention).Msg("deleted old samples")
	}
}

func (l *AcquisitionLoop) publish(result CycleResult) {
	snap := &Snapshot{
		UpdatedAt:   l.now(),
		State:       l.gain.State(),
		Stats:       l.stats,
		LastOutcome: result.Outcome,
	}

	switch {
	case result.Sample != nil:
		snap.HasSample = true
		snap.LastSample = *result.Sample
	case l.snapshot.Load() != nil:
		prev := l.snapshot.Load()
		snap.HasSample = prev.HasSample
		snap.LastSample = prev.LastSample
	}
	l.snapshot.Store(snap)
}
