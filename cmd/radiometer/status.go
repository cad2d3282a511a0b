package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/structpb"

	grpcAdapter "github.com/quentinrf/radiometer/internal/adapters/grpc"
	"github.com/quentinrf/radiometer/pkg/tlsconfig"
)

// statusCommand queries a running radiometer over gRPC
func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "query the acquisition state of a running radiometer",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Aliases: []string{"s"}, Value: "localhost:50051", Usage: "gRPC `ADDRESS` of the radiometer"},
			&cli.BoolFlag{Name: "latest", Usage: "also print the latest sample"},
			&cli.DurationFlag{Name: "history", Usage: "also print samples from this trailing `WINDOW`"},
			&cli.StringFlag{Name: "client-cert", Usage: "client certificate `FILE` for mTLS"},
			&cli.StringFlag{Name: "client-key", Usage: "client private key `FILE` for mTLS"},
			&cli.StringFlag{Name: "server-ca", Usage: "CA `FILE` verifying the server; enables TLS"},
			&cli.DurationFlag{Name: "timeout", Value: 10 * time.Second, Usage: "deadline for each call"},
		},
		Action: func(c *cli.Context) error {
			creds := insecure.NewCredentials()
			if ca := c.String("server-ca"); ca != "" {
				tlsCfg, err := tlsconfig.LoadClientTLS(c.String("client-cert"), c.String("client-key"), ca)
				if err != nil {
					return fmt.Errorf("failed to load TLS config: %w", err)
				}
				creds = credentials.NewTLS(tlsCfg)
			}

			conn, err := grpc.NewClient(c.String("server"), grpc.WithTransportCredentials(creds))
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}
			defer conn.Close()

			client := grpcAdapter.NewClient(conn)
			ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
			defer cancel()

			st, err := client.GetStatus(ctx)
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}
			if err := printStruct(c, "status", st); err != nil {
				return err
			}

			if c.Bool("latest") {
				latest, err := client.GetLatest(ctx)
				if err != nil {
					return fmt.Errorf("failed to get latest sample: %w", err)
				}
				if err := printStruct(c, "latest", latest); err != nil {
					return err
				}
			}

			if window := c.Duration("history"); window > 0 {
				history, err := client.GetHistory(ctx, durationpb.New(window))
				if err != nil {
					return fmt.Errorf("failed to get history: %w", err)
				}
				if err := printStruct(c, "history", history); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func printStruct(c *cli.Context, title string, s *structpb.Struct) error {
	out, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", title, err)
	}
	_, err = fmt.Fprintf(c.App.Writer, "# %s\n%s\n", title, out)
	return err
}
