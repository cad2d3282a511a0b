package mqtt

import (
	"crypto/tls"
	"fmt"
	"net/url"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Config describes the broker connection and where samples go
type Config struct {
	// URL is mqtt://, mqtts://, ws:// or wss://, optionally with user:password
	URL string

	// Topic receives one JSON message per sample
	Topic string

	// ClientPrefix is combined with a random suffix to form the client id
	ClientPrefix string

	// TLS overrides the default TLS settings for mqtts and wss
	TLS *tls.Config

	QoS      byte
	Retained bool
}

// brokerURL converts the configured URL into the form paho expects
func brokerURL(raw string) (string, *url.URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", nil, fmt.Errorf("invalid MQTT URL: %w", err)
	}

	switch parsed.Scheme {
	case "ws", "wss":
		return raw, parsed, nil
	case "mqtt":
		return strings.Replace(raw, "mqtt://", "tcp://", 1), parsed, nil
	case "mqtts":
		return strings.Replace(raw, "mqtts://", "ssl://", 1), parsed, nil
	}
	return "", nil, fmt.Errorf("unsupported protocol scheme: %s (supported: ws, wss, mqtt, mqtts)", parsed.Scheme)
}

// clientID returns prefix-<uuid> so restarts never collide with a stale session
func clientID(prefix string) string {
	if prefix == "" {
		prefix = "radiometer"
	}
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString()[:8])
}

// Connect dials the broker and returns a sink publishing to cfg.Topic
func Connect(cfg Config) (*Sink, error) {
	broker, parsed, err := brokerURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	id := clientID(cfg.ClientPrefix)
	opts := paho.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(id)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(1 * time.Second)
	opts.SetConnectTimeout(5 * time.Second)
	opts.SetMaxReconnectInterval(10 * time.Second)

	if parsed.Scheme == "mqtts" || parsed.Scheme == "wss" {
		tlsCfg := cfg.TLS
		if tlsCfg == nil {
			tlsCfg = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		opts.SetTLSConfig(tlsCfg)
	}

	// Set credentials if provided in URL
	if parsed.User != nil {
		opts.SetUsername(parsed.User.Username())
		password, _ := parsed.User.Password()
		opts.SetPassword(password)
	}

	opts.SetConnectionLostHandler(func(client paho.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	})
	opts.SetOnConnectHandler(func(client paho.Client) {
		log.Debug().Msg("MQTT connected")
	})

	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	log.Info().
		Str("broker", parsed.Host).
		Str("protocol", parsed.Scheme).
		Str("client_id", id).
		Str("topic", cfg.Topic).
		Msg("MQTT client connected")

	return NewSink(client, cfg.Topic, cfg.QoS, cfg.Retained), nil
}
