package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/quentinrf/radiometer/internal/domain"
)

// DefaultCapacity holds about a week of samples at the default cadence
const DefaultCapacity = 10080

// SampleRepository implements domain.SampleRepository with in-memory storage.
// The oldest samples are dropped once capacity is reached.
type SampleRepository struct {
	mu       sync.RWMutex
	samples  []domain.CalibratedSample
	capacity int
	now      func() time.Time
}

// NewSampleRepository creates an empty repository; capacity <= 0 uses DefaultCapacity
func NewSampleRepository(capacity int) *SampleRepository {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &SampleRepository{
		capacity: capacity,
		now:      time.Now,
	}
}

// WriteSample stores a copy of the sample
func (r *SampleRepository) WriteSample(ctx context.Context, sample domain.CalibratedSample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Keep the slice ordered; samples normally arrive in order
	i := sort.Search(len(r.samples), func(i int) bool {
		return r.samples[i].Timestamp.After(sample.Timestamp)
	})
	r.samples = append(r.samples, domain.CalibratedSample{})
	copy(r.samples[i+1:], r.samples[i:])
	r.samples[i] = sample

	if over := len(r.samples) - r.capacity; over > 0 {
		r.samples = append(r.samples[:0], r.samples[over:]...)
	}
	return nil
}

// GetSamplesInRange returns samples in [start, end), oldest first
func (r *SampleRepository) GetSamplesInRange(ctx context.Context, start, end time.Time) ([]domain.CalibratedSample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []domain.CalibratedSample
	for _, s := range r.samples {
		if !s.Timestamp.Before(start) && s.Timestamp.Before(end) {
			results = append(results, s)
		}
	}
	return results, nil
}

// GetLatestSample returns the most recent sample
func (r *SampleRepository) GetLatestSample(ctx context.Context) (domain.CalibratedSample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.samples) == 0 {
		return domain.CalibratedSample{}, domain.ErrSampleNotFound
	}
	return r.samples[len(r.samples)-1], nil
}

// DeleteOldSamples removes samples older than specified duration
func (r *SampleRepository) DeleteOldSamples(ctx context.Context, olderThan time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-olderThan)
	i := sort.Search(len(r.samples), func(i int) bool {
		return !r.samples[i].Timestamp.Before(cutoff)
	})
	r.samples = append(r.samples[:0], r.samples[i:]...)
	return nil
}

// Len returns the number of stored samples
func (r *SampleRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.samples)
}
