package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vango-dev/tether/internal/errors"
	"github.com/vango-dev/tether/pkg/snapshot"
)

func snapshotCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Read saved model state",
	}

	show := &cobra.Command{
		Use:   "show <channel>",
		Short: "Print the saved state of a channel",
		Long: `Print the field values saved for a channel by the configured
snapshot store, one field per line.

Examples:
  tether snapshot show board
  TETHER_SNAPSHOT=pebble TETHER_PEBBLE_PATH=./data tether snapshot show board`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
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
			if store == nil {
				return errors.New("E107").
					WithDetail("snapshot.driver is not set").
					WithSuggestion("Set snapshot.driver or TETHER_SNAPSHOT")
			}
			defer store.Close()

			state, err := store.Load(ctx, args[0])
			if err != nil {
				e := errors.New("E305").WithDetail("channel " + quote(args[0])).Wrap(err)
				if stderrors.Is(err, snapshot.ErrNotFound) {
					e = e.WithSuggestion("Nothing has been saved for this channel yet")
				}
				return e
			}

			fields := make([]string, 0, len(state))
			for f := range state {
				fields = append(fields, f)
			}
			sort.Strings(fields)
			for _, f := range fields {
				fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", f, state[f])
			}
			return nil
		},
	}

	cmd.AddCommand(show)
	return cmd
}
