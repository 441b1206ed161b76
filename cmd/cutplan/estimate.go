package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piwi3910/cutplan/internal/model"
	"github.com/piwi3910/cutplan/internal/project"
	"github.com/piwi3910/cutplan/internal/report"
)

func newEstimateCmd(a *app) *cobra.Command {
	var (
		sheetLabel string
		waste      float64
	)

	cmd := &cobra.Command{
		Use:   "estimate <request>",
		Short: "Estimate how many sheets to buy for a request",
		Long: `Gives an area-based lower bound on the sheets of one type a request needs,
plus a waste allowance, and how many to buy on top of those on hand. This
is a shopping hint: run optimize for an actual layout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := a.loadRequest(args[0])
			if err != nil {
				return err
			}

			sheet := req.Sheets[0]
			if sheetLabel != "" {
				if sheet, err = a.findSheet(req, sheetLabel); err != nil {
					return err
				}
			}

			est, err := model.EstimatePurchase(sheet, req.Pieces, req.Settings.KerfWidth, waste)
			if err != nil {
				return err
			}
			md, err := report.Estimate(est)
			if err != nil {
				return err
			}
			return report.NewRenderer(cmd.OutOrStdout(), !a.plain).Render(md)
		},
	}
	cmd.Flags().StringVar(&sheetLabel, "sheet", "", "Sheet label to estimate for (default: the first sheet)")
	cmd.Flags().Float64Var(&waste, "waste", 15, "Waste allowance in percent")
	return cmd
}

// findSheet looks for label among the request sheets, then in the stock
// library.
func (a *app) findSheet(req model.Request, label string) (model.SheetType, error) {
	for _, s := range req.Sheets {
		if strings.EqualFold(s.Label, label) {
			return s, nil
		}
	}
	lib, err := project.LoadStock(a.stockPath())
	if err != nil {
		return model.SheetType{}, err
	}
	if s, ok := lib.FindByLabel(label); ok {
		return s, nil
	}

	known := make([]string, 0, len(req.Sheets)+len(lib.Sheets))
	for _, s := range req.Sheets {
		known = append(known, s.Label)
	}
	known = append(known, lib.Labels()...)
	return model.SheetType{}, fmt.Errorf("no sheet labeled %q (known: %s)", label, strings.Join(known, ", "))
}
