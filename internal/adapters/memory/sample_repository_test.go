package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/quentinrf/radiometer/internal/domain"
)

func at(ts time.Time, lux float64) domain.CalibratedSample {
	return domain.CalibratedSample{Timestamp: ts, Lux: lux}
}

func TestGetLatestSample_Empty(t *testing.T) {
	repo := NewSampleRepository(0)

	_, err := repo.GetLatestSample(context.Background())
	if !errors.Is(err, domain.ErrSampleNotFound) {
		t.Errorf("expected ErrSampleNotFound, got %v", err)
	}
}

func TestGetSamplesInRange_HalfOpen(t *testing.T) {
	repo := NewSampleRepository(0)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	// written out of order on purpose
	_ = repo.WriteSample(ctx, at(now, 300))
	_ = repo.WriteSample(ctx, at(now.Add(-2*time.Hour), 100))
	_ = repo.WriteSample(ctx, at(now.Add(-time.Hour), 200))

	got, err := repo.GetSamplesInRange(ctx, now.Add(-time.Hour), now)
	if err != nil {
		t.Fatalf("GetSamplesInRange failed: %v", err)
	}
	if len(got) != 1 || got[0].Lux != 200 {
		t.Errorf("expected only the inclusive start sample, got %v", got)
	}

	latest, _ := repo.GetLatestSample(ctx)
	if latest.Lux != 300 {
		t.Errorf("latest lux = %v, want 300", latest.Lux)
	}
}

func TestWriteSample_DropsOldestAtCapacity(t *testing.T) {
	repo := NewSampleRepository(3)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_ = repo.WriteSample(ctx, at(base.Add(time.Duration(i)*time.Minute), float64(i)))
	}

	if repo.Len() != 3 {
		t.Fatalf("Len = %d, want 3", repo.Len())
	}
	got, _ := repo.GetSamplesInRange(ctx, base, base.Add(time.Hour))
	if got[0].Lux != 2 {
		t.Errorf("oldest kept lux = %v, want 2", got[0].Lux)
	}
}

func TestReturnedSamplesAreCopies(t *testing.T) {
	repo := NewSampleRepository(0)
	ctx := context.Background()
	ts := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	_ = repo.WriteSample(ctx, at(ts, 1))

	got, _ := repo.GetSamplesInRange(ctx, ts, ts.Add(time.Second))
	got[0].Lux = 99

	latest, _ := repo.GetLatestSample(ctx)
	if latest.Lux != 1 {
		t.Error("caller mutation leaked into the repository")
	}
}

func TestDeleteOldSamples(t *testing.T) {
	repo := NewSampleRepository(0)
	now := time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	_ = repo.WriteSample(ctx, at(now.Add(-48*time.Hour), 100))
	_ = repo.WriteSample(ctx, at(now.Add(-time.Hour), 200))

	if err := repo.DeleteOldSamples(ctx, 24*time.Hour); err != nil {
		t.Fatalf("DeleteOldSamples failed: %v", err)
	}
	if repo.Len() != 1 {
		t.Fatalf("Len = %d, want 1", repo.Len())
	}
	latest, _ := repo.GetLatestSample(ctx)
	if latest.Lux != 200 {
		t.Errorf("remaining lux = %v, want 200", latest.Lux)
	}
}
