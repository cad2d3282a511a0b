package ports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quentinrf/radiometer/internal/domain"
)

// Pruner is implemented by sinks that keep history
type Pruner interface {
	DeleteOldSamples(ctx context.Context, olderThan time.Duration) error
}

type namedSink struct {
	name string
	sink domain.SampleSink
}

// MultiSink fans one sample out to every registered sink.
// A failing sink never prevents delivery to the others.
type MultiSink struct {
	sinks []namedSink
}

// NewMultiSink creates an empty fan-out
func NewMultiSink() *MultiSink {
	return &MultiSink{}
}

// Add registers a sink under a name used in error messages
func (m *MultiSink) Add(name string, sink domain.SampleSink) {
	m.sinks = append(m.sinks, namedSink{name: name, sink: sink})
}

// Len returns the number of registered sinks
func (m *MultiSink) Len() int {
	return len(m.sinks)
}

// WriteSample delivers to all sinks and joins their errors
func (m *MultiSink) WriteSample(ctx context.Context, sample domain.CalibratedSample) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.sink.WriteSample(ctx, sample); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}

// DeleteOldSamples forwards to every sink that keeps history
func (m *MultiSink) DeleteOldSamples(ctx context.Context, olderThan time.Duration) error {
	var errs []error
	for _, s := range m.sinks {
		p, ok := s.sink.(Pruner)
		if !ok {
			continue
		}
		if err := p.DeleteOldSamples(ctx, olderThan); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}
