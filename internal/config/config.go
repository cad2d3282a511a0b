package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/quentinrf/radiometer/internal/domain"
	"github.com/quentinrf/radiometer/internal/ports"
)

// Sensor backends
const (
	SensorMock     = "mock"
	SensorHardware = "i2c"
)

// Auxiliary and thermal backends
const (
	None     = "none"
	Mock     = "mock"
	BME280   = "bme280"
	DHT22    = "dht22"
	MLX90614 = "mlx90614"
)

// Repository backends
const (
	RepoMemory = "memory"
	RepoSQLite = "sqlite"
)

// AutoGain selects auto-ranging over the enabled gain set
const AutoGain = "auto"

// Config holds the application configuration.
// Defaults come from Default, a YAML deployment profile overrides them and
// command line flags override the profile.
type Config struct {
	// Light sensor
	Sensor             string  `yaml:"sensor"`
	Bus                string  `yaml:"bus"`
	Address            uint16  `yaml:"address"`
	Multiplexer        int     `yaml:"multiplexer"` // TCA9548A channel, -1 when absent
	MultiplexerAddress uint16  `yaml:"multiplexer_address"`
	MockLux            float64 `yaml:"mock_lux"`

	// Auxiliary sensors
	Aux            string `yaml:"aux"`
	AuxAddress     uint16 `yaml:"aux_address"`
	DHTPin         string `yaml:"dht_pin"`
	Thermal        string `yaml:"thermal"`
	ThermalAddress uint16 `yaml:"thermal_address"`

	// Gain control
	Gain            string                 `yaml:"gain"` // auto or a fixed level
	DefaultGain     domain.GainLevel       `yaml:"default_gain"`
	EnabledGains    []domain.GainLevel     `yaml:"enabled_gains"`
	IntegrationTime domain.IntegrationTime `yaml:"integration_time"`
	HighThreshold   uint16                 `yaml:"high_threshold"`
	LowThreshold    uint16                 `yaml:"low_threshold"`
	Guard           time.Duration          `yaml:"guard"`
	Calibration     domain.Calibration     `yaml:"calibration"`

	// Cadence
	Period    time.Duration `yaml:"period"`
	Retention time.Duration `yaml:"retention"`

	// Outputs
	Name    string       `yaml:"name"`
	DataDir string       `yaml:"data_dir"`
	Repo    string       `yaml:"repo"`
	DBPath  string       `yaml:"db_path"`
	MQTT    MQTTConfig   `yaml:"mqtt"`
	Influx  InfluxConfig `yaml:"influx"`

	// Serving
	Port    string `yaml:"port"`
	TLSCert string `yaml:"tls_cert"`
	TLSKey  string `yaml:"tls_key"`
	TLSCA   string `yaml:"tls_ca"`

	Verbose bool `yaml:"verbose"`
}

// MQTTConfig enables the MQTT sink when URL is set
type MQTTConfig struct {
	URL      string `yaml:"url"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
	Retained bool   `yaml:"retained"`

	// CA verifies the broker certificate for mqtts and wss
	CA string `yaml:"ca"`
}

// InfluxConfig enables the InfluxDB sink when URL is set
type InfluxConfig struct {
	URL         string `yaml:"url"`
	Token       string `yaml:"token"`
	Org         string `yaml:"org"`
	Bucket      string `yaml:"bucket"`
	Measurement string `yaml:"measurement"`
}

// Default returns the radiometer configuration used when nothing is overridden
func Default() Config {
	gain := ports.DefaultGainConfig()
	loop := ports.DefaultLoopConfig()

	return Config{
		Sensor:             SensorMock,
		Bus:                "",
		Address:            0x29,
		Multiplexer:        -1,
		MultiplexerAddress: 0x70,
		MockLux:            0.05,

		Aux:            None,
		AuxAddress:     0x76,
		DHTPin:         "GPIO4",
		Thermal:        None,
		ThermalAddress: 0x5A,

		Gain:            AutoGain,
		DefaultGain:     gain.DefaultGain,
		EnabledGains:    gain.EnabledGains,
		IntegrationTime: gain.IntegrationTime,
		HighThreshold:   gain.HighThreshold,
		LowThreshold:    gain.LowThreshold,
		Guard:           gain.GuardInterval,
		Calibration:     domain.DefaultCalibration(),

		Period:    loop.Period,
		Retention: loop.Retention,

		DataDir: "./data",
		Repo:    RepoMemory,
		DBPath:  "./radiometer.db",
		MQTT: MQTTConfig{
			Topic: "radiometer/samples",
			QoS:   1,
		},
		Influx: InfluxConfig{
			Measurement: "sky_quality",
		},

		Port: "50051",
	}
}

// LoadEnvFile loads variables from .env style files; missing files are ignored
func LoadEnvFile(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// LoadProfile overlays a YAML deployment profile; unknown keys are rejected
func (c *Config) LoadProfile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read profile: %w", err)
	}

	// Calibration multipliers merge per gain level
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	return nil
}

// Validate checks the configuration, returning a *domain.ConfigError
func (c *Config) Validate() error {
	switch c.Sensor {
	case SensorMock, SensorHardware:
	default:
		return domain.NewConfigError("sensor", "must be %s or %s, got %q", SensorMock, SensorHardware, c.Sensor)
	}
	switch c.Aux {
	case None, Mock, BME280, DHT22:
	default:
		return domain.NewConfigError("aux", "unknown auxiliary sensor %q", c.Aux)
	}
	switch c.Thermal {
	case None, Mock, MLX90614:
	default:
		return domain.NewConfigError("thermal", "unknown thermal sensor %q", c.Thermal)
	}
	switch c.Repo {
	case RepoMemory, RepoSQLite:
	default:
		return domain.NewConfigError("repo", "must be %s or %s, got %q", RepoMemory, RepoSQLite, c.Repo)
	}
	if c.Multiplexer < -1 || c.Multiplexer > 7 {
		return domain.NewConfigError("multiplexer", "channel must be 0..7 or -1, got %d", c.Multiplexer)
	}
	if c.Period <= 0 {
		return domain.NewConfigError("period", "must be positive, got %s", c.Period)
	}
	if c.Retention < 0 {
		return domain.NewConfigError("retention", "must not be negative")
	}
	if c.DataDir == "" {
		return domain.NewConfigError("data_dir", "is required")
	}
	if c.MQTT.URL != "" && c.MQTT.Topic == "" {
		return domain.NewConfigError("mqtt.topic", "is required when mqtt.url is set")
	}
	if c.MQTT.QoS > 2 {
		return domain.NewConfigError("mqtt.qos", "must be 0, 1 or 2")
	}
	if c.Influx.URL != "" && c.Influx.Bucket == "" {
		return domain.NewConfigError("influx.bucket", "is required when influx.url is set")
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return domain.NewConfigError("tls", "certificate and key must be set together")
	}
	for g, m := range c.Calibration.Multipliers {
		if m <= 0 {
			return domain.NewConfigError("calibration.multipliers", "%s must be positive, got %v", g, m)
		}
	}
	if c.Calibration.LuxDF <= 0 {
		return domain.NewConfigError("calibration.lux_df", "must be positive")
	}

	_, err := c.GainConfig()
	return err
}

// GainConfig returns the gain controller profile.
// A fixed gain is an enabled set of that single level.
func (c *Config) GainConfig() (ports.GainConfig, error) {
	cfg := ports.GainConfig{
		DefaultGain:     c.DefaultGain,
		IntegrationTime: c.IntegrationTime,
		EnabledGains:    c.EnabledGains,
		HighThreshold:   c.HighThreshold,
		LowThreshold:    c.LowThreshold,
		GuardInterval:   c.Guard,
	}

	if g := strings.ToLower(strings.TrimSpace(c.Gain)); g != "" && g != AutoGain {
		level, err := domain.ParseGainLevel(g)
		if err != nil {
			return ports.GainConfig{}, domain.NewConfigError("gain", "%v", err)
		}
		cfg.DefaultGain = level
		cfg.EnabledGains = []domain.GainLevel{level}
	}

	if err := cfg.Validate(); err != nil {
		return ports.GainConfig{}, err
	}
	return cfg, nil
}

// LoopConfig returns the acquisition cadence
func (c *Config) LoopConfig() ports.LoopConfig {
	loop := ports.DefaultLoopConfig()
	loop.Period = c.Period
	loop.Retention = c.Retention
	return loop
}
