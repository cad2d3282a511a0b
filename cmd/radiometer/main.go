package main

import (
	"os"
	"sort"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/quentinrf/radiometer/internal/config"
)

const envPrefix = "RADIOMETER_"

func env(name string) []string {
	return []string{envPrefix + name}
}

func main() {
	// Initialize logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// .env must be loaded before flags resolve their environment variables
	if err := config.LoadEnvFile(".env"); err != nil {
		log.Fatal().Err(err).Msg("failed to load .env")
	}

	app := newApp()

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("radiometer failed")
	}
}

// newApp builds the command line surface; every flag also reads a RADIOMETER_ env var
func newApp() *cli.App {
	def := config.Default()

	app := &cli.App{
		Name:  "radiometer",
		Usage: "auto-ranging sky brightness logger for TSL2591 light sensors",
		UsageText: "radiometer [options]" +
			"\n\nEXAMPLE:" +
			"\n\tlog from a sensor on channel 2 of a multiplexer on bus 1" +
			"\n\t\tradiometer --sensor i2c --bus 1 --multiplexer 2 --name roof",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "profile", Aliases: []string{"p"}, EnvVars: env("PROFILE"), Usage: "load the deployment profile from YAML `FILE`"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, EnvVars: env("VERBOSE"), Usage: "log every step at debug level"},

			&cli.StringFlag{Name: "sensor", EnvVars: env("SENSOR"), Value: def.Sensor, Usage: "light sensor backend (mock|i2c)"},
			&cli.StringFlag{Name: "bus", Aliases: []string{"b"}, EnvVars: env("BUS"), Value: def.Bus, Usage: "i2c bus `NAME` or number, empty for the first bus"},
			&cli.UintFlag{Name: "address", Aliases: []string{"a"}, EnvVars: env("ADDRESS"), Value: uint(def.Address), Usage: "light sensor i2c address"},
			&cli.IntFlag{Name: "multiplexer", Aliases: []string{"m"}, EnvVars: env("MULTIPLEXER"), Value: def.Multiplexer, Usage: "TCA9548A multiplexer `CHANNEL` 0-7, -1 when not used"},
			&cli.Float64Flag{Name: "mock-lux", EnvVars: env("MOCK_LUX"), Value: def.MockLux, Usage: "scene brightness of the mock sensor"},
			&cli.StringFlag{Name: "aux", EnvVars: env("AUX"), Value: def.Aux, Usage: "environment sensor (none|mock|bme280|dht22)"},
			&cli.StringFlag{Name: "dht-pin", EnvVars: env("DHT_PIN"), Value: def.DHTPin, Usage: "GPIO `PIN` of the DHT22"},
			&cli.StringFlag{Name: "thermal", EnvVars: env("THERMAL"), Value: def.Thermal, Usage: "sky temperature sensor (none|mock|mlx90614)"},

			&cli.StringFlag{Name: "gain", Aliases: []string{"g"}, EnvVars: env("GAIN"), Value: def.Gain, Usage: "gain level (max|high|med|low|auto)"},
			&cli.StringFlag{Name: "enabled-gains", EnvVars: env("ENABLED_GAINS"), Usage: "comma separated gain levels used by auto-ranging"},
			&cli.StringFlag{Name: "integration-time", EnvVars: env("INTEGRATION_TIME"), Usage: "integration time (100ms..600ms)"},
			&cli.DurationFlag{Name: "guard", EnvVars: env("GUARD"), Value: def.Guard, Usage: "settling delay after a gain change"},
			&cli.DurationFlag{Name: "period", EnvVars: env("PERIOD"), Value: def.Period, Usage: "delay between cycles"},
			&cli.DurationFlag{Name: "retention", EnvVars: env("RETENTION"), Value: def.Retention, Usage: "history kept by the repository, 0 keeps everything"},

			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, EnvVars: env("NAME"), Usage: "sensor `NAME` used in output file names"},
			&cli.StringFlag{Name: "data-dir", EnvVars: env("DATA_DIR"), Value: def.DataDir, Usage: "`DIR` for the daily files"},
			&cli.StringFlag{Name: "repo", EnvVars: env("REPO"), Value: def.Repo, Usage: "history repository (memory|sqlite)"},
			&cli.StringFlag{Name: "db-path", EnvVars: env("DB_PATH"), Value: def.DBPath, Usage: "SQLite database `FILE`"},
			&cli.StringFlag{Name: "mqtt-url", EnvVars: env("MQTT_URL"), Usage: "publish samples to this broker (mqtt://, mqtts://, ws://, wss://)"},
			&cli.StringFlag{Name: "mqtt-topic", EnvVars: env("MQTT_TOPIC"), Value: def.MQTT.Topic, Usage: "MQTT `TOPIC` for samples"},
			&cli.StringFlag{Name: "mqtt-ca", EnvVars: env("MQTT_CA"), Usage: "CA `FILE` for the broker certificate"},
			&cli.StringFlag{Name: "influx-url", EnvVars: env("INFLUX_URL"), Usage: "write samples to this InfluxDB v2 server"},
			&cli.StringFlag{Name: "influx-token", EnvVars: env("INFLUX_TOKEN"), Usage: "InfluxDB API token"},
			&cli.StringFlag{Name: "influx-org", EnvVars: env("INFLUX_ORG"), Usage: "InfluxDB organisation"},
			&cli.StringFlag{Name: "influx-bucket", EnvVars: env("INFLUX_BUCKET"), Usage: "InfluxDB bucket"},

			&cli.StringFlag{Name: "port", EnvVars: env("PORT"), Value: def.Port, Usage: "gRPC listen `PORT`"},
			&cli.StringFlag{Name: "tls-cert", EnvVars: env("TLS_CERT"), Usage: "server certificate `FILE`"},
			&cli.StringFlag{Name: "tls-key", EnvVars: env("TLS_KEY"), Usage: "server private key `FILE`"},
			&cli.StringFlag{Name: "tls-ca", EnvVars: env("TLS_CA"), Usage: "CA `FILE`; when set, clients must present certificates"},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			return nil
		},
		Action: run,
		Commands: []*cli.Command{
			dumpCommand(),
			statusCommand(),
		},
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	return app
}
