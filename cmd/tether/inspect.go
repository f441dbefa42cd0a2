package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/tether/internal/errors"
	"github.com/vango-dev/tether/pkg/model"
	"github.com/vango-dev/tether/pkg/render"
	"github.com/vango-dev/tether/pkg/wirename"
)

func inspectCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect [model]",
		Short: "Print the schema and wire names of a demo model",
		Long: `Print the fields of a demo model: server name, wire name, kind and
type. With --json, print the rendered model the script endpoint embeds.

Examples:
  tether inspect
  tether inspect board --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := modelNames()
			if len(args) == 1 {
				names = args[:1]
			}
			for i, name := range names {
				if i > 0 {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				if err := inspectModel(cmd.OutOrStdout(), name, asJSON); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the rendered model as JSON")

	return cmd
}

func inspectModel(w io.Writer, name string, asJSON bool) error {
	m, err := demoModel(name)
	if err != nil {
		return err
	}
	if err := model.Init(m); err != nil {
		return errors.New("E201").WithDetail("model " + quote(name)).Wrap(err)
	}

	if asJSON {
		vue, err := render.Model(m, render.Config{Names: wirename.Default})
		if err != nil {
			return errors.New("E201").WithDetail("model " + quote(name)).Wrap(err)
		}
		data, err := render.Encode(vue)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\n", data)
		return nil
	}

	s, err := model.SchemaOf(m)
	if err != nil {
		return errors.New("E201").WithDetail("model " + quote(name)).Wrap(err)
	}
	fmt.Fprintf(w, "%s (%s)\n", name, s.Type)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  FIELD\tWIRE\tKIND\tTYPE")
	for _, f := range s.Fields {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", f.Name, wirename.ToWire(f.Name), f.Kind, f.Type)
	}
	return tw.Flush()
}
