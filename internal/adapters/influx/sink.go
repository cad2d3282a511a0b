package influx

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog/log"

	"github.com/quentinrf/radiometer/internal/domain"
)

// DefaultMeasurement is used when Config.Measurement is empty
const DefaultMeasurement = "sky_quality"

// Config describes the InfluxDB v2 target
type Config struct {
	URL         string
	Token       string
	Org         string
	Bucket      string
	Measurement string

	// Station is written as the station tag when set
	Station string
}

// pointWriter is the part of api.WriteAPIBlocking the sink needs
type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Sink writes one point per sample.
// This implements domain.SampleSink.
type Sink struct {
	client      influxdb2.Client
	writer      pointWriter
	measurement string
	station     string
}

// NewSink creates a client using the blocking write API
func NewSink(cfg Config) (*Sink, error) {
	if cfg.URL == "" || cfg.Bucket == "" {
		return nil, domain.NewConfigError("influx", "url and bucket are required")
	}

	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	log.Info().
		Str("url", cfg.URL).
		Str("org", cfg.Org).
		Str("bucket", cfg.Bucket).
		Msg("InfluxDB sink configured")

	s := newSink(client.WriteAPIBlocking(cfg.Org, cfg.Bucket), cfg.Measurement, cfg.Station)
	s.client = client
	return s, nil
}

func newSink(w pointWriter, measurement, station string) *Sink {
	if measurement == "" {
		measurement = DefaultMeasurement
	}
	return &Sink{writer: w, measurement: measurement, station: station}
}

// Point builds the InfluxDB point for a sample; absent auxiliary values are omitted
func (s *Sink) Point(sample domain.CalibratedSample) *write.Point {
	tags := map[string]string{
		"gain":             sample.Gain.String(),
		"integration_time": sample.IntegrationTime.String(),
	}
	if s.station != "" {
		tags["station"] = s.station
	}

	fields := sample.Record().Fields()
	delete(fields, "timestamp")
	delete(fields, "gain")
	delete(fields, "integration_time")

	return influxdb2.NewPoint(s.measurement, tags, fields, sample.Timestamp)
}

// WriteSample writes the sample synchronously
func (s *Sink) WriteSample(ctx context.Context, sample domain.CalibratedSample) error {
	if err := s.writer.WritePoint(ctx, s.Point(sample)); err != nil {
		return fmt.Errorf("failed to write point: %w", err)
	}
	return nil
}

// Close releases the client
func (s *Sink) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}
