package main

import (
	"github.com/spf13/cobra"

	"github.com/piwi3910/cutplan/internal/engine"
	"github.com/piwi3910/cutplan/internal/export"
)

func newLabelsCmd(a *app) *cobra.Command {
	var (
		settings settingsFlags
		out      string
	)

	cmd := &cobra.Command{
		Use:   "labels <request>",
		Short: "Plan a request and print QR-coded labels for every piece",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := a.loadRequest(args[0])
			if err != nil {
				return err
			}
			settings.apply(cmd, &req.Settings)

			plan, err := engine.New(req.Settings).WithLogger(a.logger).OptimizeRequest(req)
			if err != nil {
				return err
			}
			if err := export.ExportLabels(out, plan, a.units); err != nil {
				return err
			}
			a.logger.Info("wrote labels", "path", out, "pieces", plan.Statistics.PiecesPlaced)
			return nil
		},
	}
	settings.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "labels.pdf", "Output PDF path")
	return cmd
}
