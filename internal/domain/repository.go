package domain

import (
	"context"
	"time"
)

// SampleSink accepts emitted samples
// This is a PORT - adapters (file, SQLite, MQTT, Influx, Memory) will implement it
type SampleSink interface {
	// WriteSample persists or forwards a sample
	WriteSample(ctx context.Context, sample CalibratedSample) error
}

// SampleRepository is a sink that can also answer history queries
type SampleRepository interface {
	SampleSink

	// GetSamplesInRange retrieves all samples within time range.
	// Uses a half-open interval: inclusive start, exclusive end [start, end).
	GetSamplesInRange(ctx context.Context, start, end time.Time) ([]CalibratedSample, error)

	// GetLatestSample retrieves the most recent sample
	GetLatestSample(ctx context.Context) (CalibratedSample, error)

	// DeleteOldSamples removes samples older than specified duration
	DeleteOldSamples(ctx context.Context, olderThan time.Duration) error
}
