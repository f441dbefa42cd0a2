package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/tether"
	"github.com/vango-dev/tether/internal/config"
	"github.com/vango-dev/tether/internal/errors"
	"github.com/vango-dev/tether/pkg/bind"
)

func serveCmd(configPath *string) *cobra.Command {
	var (
		address string
		models  []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo models",
		Long: `Serve the demo models over HTTP and websocket.

Each model is bound to a channel of the same name and its script is served
at {basePath}/{model}.js. The demo page at / loads the board model; open it
in two browsers to watch edits propagate.

Examples:
  tether serve
  tether serve --address=:9000 --model=board --model=counter
  TETHER_TRANSPORT=redis TETHER_REDIS_ADDR=localhost:6379 tether serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if address != "" {
				cfg.Server.Address = address
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, models)
		},
	}

	cmd.Flags().StringVarP(&address, "address", "a", "", "Listen address (default from tether.yaml)")
	cmd.Flags().StringSliceVarP(&models, "model", "m", []string{"board", "counter"}, "Demo models to serve")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, models []string) error {
	logger, logCloser, err := cfg.Log.NewLogger()
	if err != nil {
		return errors.New("E110").Wrap(err)
	}
	defer logCloser.Close()

	rdb, err := openRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}
	store, err := openStore(ctx, cfg, rdb)
	if err != nil {
		return err
	}
	bus := rdb
	if cfg.Transport.Driver != config.TransportRedis {
		bus = nil
	}

	app := tether.New(tether.Options{
		Server:           serverConfig(cfg),
		Hub:              hubConfig(cfg),
		Redis:            bus,
		RedisPrefix:      cfg.Transport.Redis.Prefix,
		Store:            store,
		SnapshotInterval: cfg.Snapshot.Interval,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
		Static:           webRoot(),
		Logger:           logger,
	})

	for _, name := range models {
		m, err := demoModel(name)
		if err != nil {
			app.Close(ctx)
			return err
		}
		if _, err := app.Bind(m, bind.WithChannel(name)); err != nil {
			app.Close(ctx)
			return errors.New("E201").WithDetail("model " + quote(name)).Wrap(err)
		}
	}

	success("Serving %d models on %s", len(models), cfg.Server.Address)
	info("transport: %s", cfg.Transport.Driver)
	if cfg.Snapshot.Driver != "" {
		info("snapshots: %s", cfg.Snapshot.Driver)
	}

	if err := app.Run(ctx, cfg.Server.Address); err != nil {
		return errors.New("E202").Wrap(err)
	}
	return nil
}
