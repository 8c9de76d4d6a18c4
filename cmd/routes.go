package cmd

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Django-Rwanda/django-rwanda-portal/internal/routing"
)

func newRoutesCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List every URL route in declaration order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			srv, err := offlineServer(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Methods", "Path", "Name"})
			_ = srv.URLs().Walk(func(r routing.Route) error {
				t.AppendRow(table.Row{strings.Join(r.Methods, ","), r.Path, r.Name})
				return nil
			})
			t.Render()
			return nil
		},
	}
}
