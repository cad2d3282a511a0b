package main

import (
	"encoding/json"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/quentinrf/radiometer/internal/adapters/dailylog"
	"github.com/quentinrf/radiometer/internal/domain"
)

// dumpCommand prints the samples of the last daily files as JSON records
func dumpCommand() *cli.Command {
	return &cli.Command{
		Name:  "dump",
		Usage: "print the last daily files as JSON records",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "days", Aliases: []string{"d"}, Value: 2, Usage: "number of calendar days ending today"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			days := c.Int("days")
			if days <= 0 {
				return domain.NewConfigError("days", "must be positive, got %d", days)
			}

			samples, err := dailylog.ReadLastDays(cfg.DataDir, cfg.Name, days, time.Now())
			if err != nil {
				return err
			}

			records := make([]domain.Record, len(samples))
			for i, s := range samples {
				records[i] = s.Record()
			}

			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		},
	}
}
