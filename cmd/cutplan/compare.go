package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/cutplan/internal/engine"
	"github.com/piwi3910/cutplan/internal/report"
)

func newCompareCmd(a *app) *cobra.Command {
	var settings settingsFlags

	cmd := &cobra.Command{
		Use:   "compare <request>",
		Short: "Plan a request under every optimization mode and compare",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := a.loadRequest(args[0])
			if err != nil {
				return err
			}
			settings.apply(cmd, &req.Settings)

			results := engine.CompareModes(req.Sheets, req.Pieces, req.Settings, a.logger)
			md, err := report.Comparison(results)
			if err != nil {
				return err
			}
			r := report.NewRenderer(cmd.OutOrStdout(), !a.plain)
			if err := r.Render(md); err != nil {
				return err
			}

			best, ok := engine.Best(results)
			if !ok {
				return fmt.Errorf("no mode produced a plan: %w", results[0].Err)
			}
			r.Status(true, "Best: %s with %d sheet(s) and %.2f%% waste", best.Scenario.Name, best.SheetsUsed, best.WastePercent)
			return nil
		},
	}
	settings.register(cmd)
	return cmd
}
