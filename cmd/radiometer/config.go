package main

import (
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/quentinrf/radiometer/internal/config"
	"github.com/quentinrf/radiometer/internal/domain"
)

// loadConfig layers defaults, the optional profile and explicitly set flags.
// Flags left at their default never override a profile value.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()

	if path := c.String("profile"); path != "" {
		if err := cfg.LoadProfile(path); err != nil {
			return config.Config{}, err
		}
		log.Info().Str("profile", path).Msg("loaded deployment profile")
	}

	str := func(name string, dst *string) {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}

	str("sensor", &cfg.Sensor)
	str("bus", &cfg.Bus)
	if c.IsSet("address") {
		cfg.Address = uint16(c.Uint("address"))
	}
	if c.IsSet("multiplexer") {
		cfg.Multiplexer = c.Int("multiplexer")
	}
	if c.IsSet("mock-lux") {
		cfg.MockLux = c.Float64("mock-lux")
	}
	str("aux", &cfg.Aux)
	str("dht-pin", &cfg.DHTPin)
	str("thermal", &cfg.Thermal)

	str("gain", &cfg.Gain)
	if c.IsSet("enabled-gains") {
		levels, err := domain.ParseGainLevels(c.String("enabled-gains"))
		if err != nil {
			return config.Config{}, domain.NewConfigError("enabled_gains", "%v", err)
		}
		cfg.EnabledGains = levels
	}
	if c.IsSet("integration-time") {
		it, err := domain.ParseIntegrationTime(c.String("integration-time"))
		if err != nil {
			return config.Config{}, domain.NewConfigError("integration_time", "%v", err)
		}
		cfg.IntegrationTime = it
	}
	if c.IsSet("guard") {
		cfg.Guard = c.Duration("guard")
	}
	if c.IsSet("period") {
		cfg.Period = c.Duration("period")
	}
	if c.IsSet("retention") {
		cfg.Retention = c.Duration("retention")
	}

	str("name", &cfg.Name)
	str("data-dir", &cfg.DataDir)
	str("repo", &cfg.Repo)
	str("db-path", &cfg.DBPath)
	str("mqtt-url", &cfg.MQTT.URL)
	str("mqtt-topic", &cfg.MQTT.Topic)
	str("mqtt-ca", &cfg.MQTT.CA)
	str("influx-url", &cfg.Influx.URL)
	str("influx-token", &cfg.Influx.Token)
	str("influx-org", &cfg.Influx.Org)
	str("influx-bucket", &cfg.Influx.Bucket)

	str("port", &cfg.Port)
	str("tls-cert", &cfg.TLSCert)
	str("tls-key", &cfg.TLSKey)
	str("tls-ca", &cfg.TLSCA)

	if c.Bool("verbose") {
		cfg.Verbose = true
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
