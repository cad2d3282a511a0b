package main

import (
	"fmt"
	"io"
	"net"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/reflection"
	"periph.io/x/conn/v3/i2c"

	"github.com/quentinrf/radiometer/internal/adapters/dailylog"
	"github.com/quentinrf/radiometer/internal/adapters/dht"
	"github.com/quentinrf/radiometer/internal/adapters/environment"
	grpcAdapter "github.com/quentinrf/radiometer/internal/adapters/grpc"
	"github.com/quentinrf/radiometer/internal/adapters/hardware"
	"github.com/quentinrf/radiometer/internal/adapters/influx"
	"github.com/quentinrf/radiometer/internal/adapters/memory"
	"github.com/quentinrf/radiometer/internal/adapters/mock"
	"github.com/quentinrf/radiometer/internal/adapters/mqtt"
	"github.com/quentinrf/radiometer/internal/adapters/sqlite"
	"github.com/quentinrf/radiometer/internal/config"
	"github.com/quentinrf/radiometer/internal/domain"
	"github.com/quentinrf/radiometer/internal/ports"
	"github.com/quentinrf/radiometer/pkg/tlsconfig"
)

// closers are released in reverse order of registration
type closers []io.Closer

func (cs *closers) add(c io.Closer) {
	*cs = append(*cs, c)
}

func (cs closers) closeAll() {
	for i := len(cs) - 1; i >= 0; i-- {
		if err := cs[i].Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close resource")
		}
	}
}

// run is the default action: sample until interrupted while serving gRPC
func run(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	log.Info().Str("name", cfg.Name).Msg("starting radiometer")

	var res closers
	defer res.closeAll()

	// Open the I2C bus only when a device lives on it
	var bus i2c.Bus
	if cfg.Sensor == config.SensorHardware || cfg.Aux == config.BME280 || cfg.Thermal == config.MLX90614 {
		b, err := hardware.Open(cfg.Bus)
		if err != nil {
			return err
		}
		res.add(b)
		bus = b

		if cfg.Multiplexer >= 0 {
			mux, err := hardware.NewMuxBus(b, cfg.MultiplexerAddress, uint8(cfg.Multiplexer))
			if err != nil {
				return err
			}
			bus = mux
			log.Info().Int("channel", cfg.Multiplexer).Msg("using TCA9548A multiplexer")
		}
	}

	source, err := newLightSource(cfg, bus)
	if err != nil {
		return err
	}
	res.add(source)

	var opts []ports.Option
	aux, err := newAuxiliarySensor(cfg, bus)
	if err != nil {
		return err
	}
	if aux != nil {
		res.add(aux)
		opts = append(opts, ports.WithAuxiliarySensor(aux))
	}
	thermal := newThermalSensor(cfg, bus)
	if thermal != nil {
		res.add(thermal)
		opts = append(opts, ports.WithThermalSensor(thermal))
	}

	repo, err := newRepository(cfg)
	if err != nil {
		return err
	}
	if cl, ok := repo.(io.Closer); ok {
		res.add(cl)
	}

	sinks, err := newSinks(cfg, repo, &res)
	if err != nil {
		return err
	}

	gainCfg, err := cfg.GainConfig()
	if err != nil {
		return err
	}
	gain, err := ports.NewGainController(source, gainCfg)
	if err != nil {
		return err
	}

	loop, err := ports.NewAcquisitionLoop(gain, domain.NewLuxConverter(cfg.Calibration), sinks, cfg.LoopConfig(), opts...)
	if err != nil {
		return err
	}

	// Configure TLS if certificates are provided
	var serverOpts []grpc.ServerOption
	if cfg.TLSCert != "" {
		tlsCfg, err := tlsconfig.LoadServerTLS(cfg.TLSCert, cfg.TLSKey, cfg.TLSCA)
		if err != nil {
			return fmt.Errorf("failed to load TLS config: %w", err)
		}
		serverOpts = append(serverOpts, grpc.Creds(credentials.NewTLS(tlsCfg)))
		log.Info().Msg("mTLS enabled")
	} else {
		log.Warn().Msg("TLS_CERT not set, starting without TLS (dev mode only)")
	}

	grpcServer, healthServer := grpcAdapter.NewServer(grpcAdapter.NewRadiometerHandler(repo, loop), serverOpts...)

	// Enable gRPC reflection for grpcurl testing
	reflection.Register(grpcServer)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	log.Info().Str("port", cfg.Port).Msg("gRPC server listening")

	go func() {
		if err := grpcServer.Serve(listener); err != nil {
			log.Fatal().Err(err).Msg("failed to serve")
		}
	}()

	// Interrupts stop the loop at its next idle boundary
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loop.Run(ctx)

	log.Info().Msg("shutting down server...")
	healthServer.Shutdown()
	grpcServer.GracefulStop()

	log.Info().Msg("radiometer stopped")
	return nil
}

func newLightSource(cfg config.Config, bus i2c.Bus) (ports.RawChannelSource, error) {
	switch cfg.Sensor {
	case config.SensorHardware:
		return hardware.NewTSL2591(bus, cfg.Address)
	default:
		log.Info().Float64("lux", cfg.MockLux).Msg("initialized mock light sensor")
		return mock.NewFakeSource(cfg.MockLux, cfg.MockLux*0.1), nil
	}
}

func newAuxiliarySensor(cfg config.Config, bus i2c.Bus) (ports.AuxiliarySensor, error) {
	switch cfg.Aux {
	case config.BME280:
		return hardware.NewBME280(bus, cfg.AuxAddress)
	case config.DHT22:
		return dht.NewDHT22(cfg.DHTPin)
	case config.Mock:
		return &mock.FakeEnvironment{Env: environment.New(12.5, 70, 1013.25)}, nil
	}
	return nil, nil
}

func newThermalSensor(cfg config.Config, bus i2c.Bus) ports.ThermalSensor {
	switch cfg.Thermal {
	case config.MLX90614:
		return hardware.NewMLX90614(bus, cfg.ThermalAddress)
	case config.Mock:
		return &mock.FakeThermal{Celsius: -18}
	}
	return nil
}

func newRepository(cfg config.Config) (domain.SampleRepository, error) {
	switch cfg.Repo {
	case config.RepoSQLite:
		r, err := sqlite.NewSampleRepository(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database %s: %w", cfg.DBPath, err)
		}
		log.Info().Str("db_path", cfg.DBPath).Msg("initialized SQLite repository")
		return r, nil
	default:
		log.Info().Msg("initialized in-memory repository")
		return memory.NewSampleRepository(memory.DefaultCapacity), nil
	}
}

// newSinks fans samples out to the daily file, the repository and any remote sinks
func newSinks(cfg config.Config, repo domain.SampleRepository, res *closers) (*ports.MultiSink, error) {
	sinks := ports.NewMultiSink()

	fileOpts := []dailylog.Option{dailylog.WithName(cfg.Name)}
	if cfg.Thermal != config.None {
		fileOpts = append(fileOpts, dailylog.WithObjectTemperature())
	}
	files, err := dailylog.NewWriter(cfg.DataDir, fileOpts...)
	if err != nil {
		return nil, err
	}
	res.add(files)
	sinks.Add("daily log", files)
	sinks.Add("repository", repo)

	if cfg.MQTT.URL != "" {
		mqttCfg := mqtt.Config{
			URL:          cfg.MQTT.URL,
			Topic:        cfg.MQTT.Topic,
			ClientPrefix: clientPrefix(cfg.Name),
			QoS:          cfg.MQTT.QoS,
			Retained:     cfg.MQTT.Retained,
		}
		if cfg.MQTT.CA != "" {
			tlsCfg, err := tlsconfig.LoadClientTLS("", "", cfg.MQTT.CA)
			if err != nil {
				return nil, fmt.Errorf("failed to load MQTT TLS config: %w", err)
			}
			mqttCfg.TLS = tlsCfg
		}
		s, err := mqtt.Connect(mqttCfg)
		if err != nil {
			return nil, err
		}
		res.add(s)
		sinks.Add("mqtt", s)
	}

	if cfg.Influx.URL != "" {
		s, err := influx.NewSink(influx.Config{
			URL:         cfg.Influx.URL,
			Token:       cfg.Influx.Token,
			Org:         cfg.Influx.Org,
			Bucket:      cfg.Influx.Bucket,
			Measurement: cfg.Influx.Measurement,
			Station:     cfg.Name,
		})
		if err != nil {
			return nil, err
		}
		res.add(s)
		sinks.Add("influx", s)
	}

	log.Info().Int("sinks", sinks.Len()).Msg("initialized sample sinks")
	return sinks, nil
}

func clientPrefix(name string) string {
	if name == "" {
		return "radiometer"
	}
	return "radiometer-" + name
}
