package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/quentinrf/radiometer/internal/domain"
	"github.com/quentinrf/radiometer/internal/ports"
)

// MaxHistoryWindow bounds GetHistory requests
const MaxHistoryWindow = 31 * 24 * time.Hour

// SnapshotSource publishes the acquisition state; *ports.AcquisitionLoop implements it
type SnapshotSource interface {
	Snapshot() ports.Snapshot
}

// RadiometerHandler implements RadiometerServer.
// It only reads published snapshots and repository history; the sensor is
// owned by the acquisition loop.
type RadiometerHandler struct {
	repo      domain.SampleRepository
	snapshots SnapshotSource
	now       func() time.Time
}

// NewRadiometerHandler creates a new gRPC handler
func NewRadiometerHandler(repo domain.SampleRepository, snapshots SnapshotSource) *RadiometerHandler {
	return &RadiometerHandler{
		repo:      repo,
		snapshots: snapshots,
		now:       time.Now,
	}
}

// NewServer creates a gRPC server with the radiometer and health services registered
func NewServer(h *RadiometerHandler, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(opts...)
	RegisterRadiometerServer(srv, h)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	return srv, hs
}

// GetLatest returns the sample of the last emitting cycle, falling back to the repository
func (h *RadiometerHandler) GetLatest(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	log.Debug().Msg("GetLatest called")

	if snap := h.snapshots.Snapshot(); snap.HasSample {
		return toStruct(snap.LastSample.Record().Fields())
	}

	sample, err := h.repo.GetLatestSample(ctx)
	if errors.Is(err, domain.ErrSampleNotFound) {
		return nil, status.Error(codes.NotFound, "no samples recorded yet")
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to get latest sample")
		return nil, status.Error(codes.Internal, "failed to get sample")
	}

	return toStruct(sample.Record().Fields())
}

// GetHistory returns samples in [now-window, now) with statistics
func (h *RadiometerHandler) GetHistory(ctx context.Context, req *durationpb.Duration) (*structpb.Struct, error) {
	if err := req.CheckValid(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	window := req.AsDuration()
	if window <= 0 || window > MaxHistoryWindow {
		return nil, status.Errorf(codes.InvalidArgument, "window must be in (0, %s], got %s", MaxHistoryWindow, window)
	}

	log.Debug().Dur("window", window).Msg("GetHistory called")

	end := h.now()
	start := end.Add(-window)

	samples, err := h.repo.GetSamplesInRange(ctx, start, end)
	if err != nil {
		log.Error().Err(err).Msg("failed to get samples")
		return nil, status.Error(codes.Internal, "failed to get samples")
	}

	records := make([]interface{}, len(samples))
	for i, s := range samples {
		records[i] = s.Record().Fields()
	}

	// Calculate statistics
	stats := calculateStatistics(samples)

	return toStruct(map[string]interface{}{
		"start":       start.Format(time.RFC3339Nano),
		"end":         end.Format(time.RFC3339Nano),
		"count":       float64(len(samples)),
		"samples":     records,
		"average_lux": stats.average,
		"min_lux":     stats.min,
		"max_lux":     stats.max,
	})
}

// GetStatus returns the gain state and cycle counters of the last completed cycle
func (h *RadiometerHandler) GetStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	snap := h.snapshots.Snapshot()

	fields := map[string]interface{}{
		"updated_at":       snap.UpdatedAt.Format(time.RFC3339Nano),
		"gain":             snap.State.Gain.String(),
		"integration_time": snap.State.IntegrationTime.String(),
		"last_outcome":     snap.LastOutcome.String(),
		"has_sample":       snap.HasSample,
		"stats": map[string]interface{}{
			"cycles":           float64(snap.Stats.Cycles),
			"emitted":          float64(snap.Stats.Emitted),
			"transport_errors": float64(snap.Stats.TransportErrors),
			"overflows":        float64(snap.Stats.Overflows),
			"config_faults":    float64(snap.Stats.ConfigFaults),
			"sink_errors":      float64(snap.Stats.SinkErrors),
			"gain_changes":     float64(snap.Stats.GainChanges),
		},
	}
	if !snap.State.LastGainChange.IsZero() {
		fields["last_gain_change"] = snap.State.LastGainChange.Format(time.RFC3339Nano)
	}

	return toStruct(fields)
}

func toStruct(fields map[string]interface{}) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode response")
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return s, nil
}

// statistics holds calculated statistics
type statistics struct {
	average float64
	min     float64
	max     float64
}

// calculateStatistics computes lux stats for a set of samples
func calculateStatistics(samples []domain.CalibratedSample) statistics {
	if len(samples) == 0 {
		return statistics{}
	}

	var sum float64
	min := samples[0].Lux
	max := samples[0].Lux

	for _, s := range samples {
		sum += s.Lux
		if s.Lux < min {
			min = s.Lux
		}
		if s.Lux > max {
			max = s.Lux
		}
	}

	return statistics{
		average: sum / float64(len(samples)),
		min:     min,
		max:     max,
	}
}
