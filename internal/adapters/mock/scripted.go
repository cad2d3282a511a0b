package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/quentinrf/radiometer/internal/domain"
)

// Step is one scripted response of a ScriptedSource
type Step struct {
	Counts domain.RawCounts
	Err    error
}

// Read is one recorded ReadRaw call
type Read struct {
	Gain            domain.GainLevel
	IntegrationTime domain.IntegrationTime
}

// ScriptedSource replays a fixed sequence of responses, repeating the last one
type ScriptedSource struct {
	mu    sync.Mutex
	steps []Step
	next  int
	reads []Read
}

// NewScriptedSource creates a source that replays steps in order
func NewScriptedSource(steps ...Step) *ScriptedSource {
	return &ScriptedSource{steps: steps}
}

// Counts is a shorthand for a successful step
func Counts(ch0, ch1 uint16) Step {
	return Step{Counts: domain.RawCounts{Channel0: ch0, Channel1: ch1}}
}

// Failure is a shorthand for a transport failure step
func Failure(reason string) Step {
	return Step{Err: fmt.Errorf("%w: %s", domain.ErrTransport, reason)}
}

// ReadRaw returns the next scripted response
func (s *ScriptedSource) ReadRaw(ctx context.Context, gain domain.GainLevel, itime domain.IntegrationTime) (domain.RawCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reads = append(s.reads, Read{Gain: gain, IntegrationTime: itime})
	if len(s.steps) == 0 {
		return domain.RawCounts{}, fmt.Errorf("%w: no scripted steps", domain.ErrTransport)
	}

	step := s.steps[s.next]
	if s.next < len(s.steps)-1 {
		s.next++
	}
	return step.Counts, step.Err
}

// Reads returns every call made so far
func (s *ScriptedSource) Reads() []Read {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Read(nil), s.reads...)
}

// Close is a no-op
func (s *ScriptedSource) Close() error {
	return nil
}

// FakeEnvironment returns a fixed environment reading or an error
type FakeEnvironment struct {
	Env domain.Environment
	Err error
}

func (f *FakeEnvironment) ReadEnvironment(ctx context.Context) (domain.Environment, error) {
	if f.Err != nil {
		return domain.Environment{}, f.Err
	}
	return f.Env, nil
}

func (f *FakeEnvironment) Close() error { return nil }

// FakeThermal returns a fixed object temperature or an error
type FakeThermal struct {
	Celsius float64
	Err     error
}

func (f *FakeThermal) ReadObjectTemperature(ctx context.Context) (float64, error) {
	if f.Err != nil {
		return 0, f.Err
	}
	return f.Celsius, nil
}

func (f *FakeThermal) Close() error { return nil }
