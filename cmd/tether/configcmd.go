package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/tether/internal/config"
	"github.com/vango-dev/tether/internal/errors"
)

func configCmd(configPath *string) *cobra.Command {
	var (
		write    string
		defaults bool
		env      bool
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration serve would use, after tether.yaml, .env and
TETHER_* overrides are applied.

Examples:
  tether config
  tether config --defaults --write tether.yaml
  tether config --env`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if env {
				for _, name := range config.EnvNames() {
					fmt.Fprintln(out, name)
				}
				return nil
			}

			cfg := config.New()
			if !defaults {
				var err error
				if cfg, err = loadConfig(*configPath); err != nil {
					return err
				}
			}

			if write != "" {
				if err := cfg.SaveTo(write); err != nil {
					return err
				}
				success("Wrote %s", write)
				return nil
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return errors.New("E111").Wrap(err)
			}
			_, err = out.Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&write, "write", "w", "", "Write the configuration to this file")
	cmd.Flags().BoolVar(&defaults, "defaults", false, "Start from defaults, ignoring files and environment")
	cmd.Flags().BoolVar(&env, "env", false, "List the supported environment variables")

	return cmd
}
