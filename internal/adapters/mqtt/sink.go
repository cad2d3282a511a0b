package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/quentinrf/radiometer/internal/domain"
)

const publishTimeout = 5 * time.Second

// publisher is the part of paho.Client the sink needs
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// Sink publishes every sample as a JSON document.
// This implements domain.SampleSink.
type Sink struct {
	client   publisher
	topic    string
	qos      byte
	retained bool
	timeout  time.Duration
}

// NewSink wraps a connected client
func NewSink(client publisher, topic string, qos byte, retained bool) *Sink {
	return &Sink{
		client:   client,
		topic:    topic,
		qos:      qos,
		retained: retained,
		timeout:  publishTimeout,
	}
}

// WriteSample publishes one sample, waiting at most the publish timeout for the broker ack
func (s *Sink) WriteSample(ctx context.Context, sample domain.CalibratedSample) error {
	payload, err := json.Marshal(sample.Record())
	if err != nil {
		return fmt.Errorf("failed to encode sample: %w", err)
	}

	token := s.client.Publish(s.topic, s.qos, s.retained, payload)
	if !token.WaitTimeout(s.timeout) {
		return fmt.Errorf("publish to topic %s timed out after %s", s.topic, s.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", s.topic, err)
	}

	log.Debug().
		Str("topic", s.topic).
		Int("size", len(payload)).
		Msg("published sample")
	return nil
}

// Close disconnects from the broker
func (s *Sink) Close() error {
	s.client.Disconnect(250)
	return nil
}
