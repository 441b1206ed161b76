package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/piwi3910/cutplan/internal/importer"
	"github.com/piwi3910/cutplan/internal/model"
	"github.com/piwi3910/cutplan/internal/project"
)

func newStockCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Manage the stock library used by requests without sheets",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the sheets in the stock library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := project.LoadStock(a.stockPath())
			if err != nil {
				return err
			}
			if len(lib.Sheets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Stock library is empty")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LABEL\tSIZE\tQTY\tMATERIAL\tGRAIN\tCOST")
			for _, s := range lib.Sheets {
				grain := "no"
				if s.HasGrain {
					grain = "yes"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n", s.Label, model.FormatSize(s.Width, s.Height, a.units),
					s.Quantity, s.Material, grain, s.CostPerSheet.StringFixed(2))
			}
			return tw.Flush()
		},
	}

	add := &cobra.Command{
		Use:   "import <sheets.(csv|xlsx)>",
		Short: "Add sheets from a CSV or Excel file to the stock library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := importFile(a.logger, args[0], importer.KindSheets)
			if err != nil {
				return err
			}
			lib, err := project.LoadStock(a.stockPath())
			if err != nil {
				return err
			}
			added := lib.Merge(result.Sheets)
			if err := project.SaveStock(a.stockPath(), lib); err != nil {
				return fmt.Errorf("saving stock: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d sheet(s), updated %d\n", added, len(result.Sheets)-added)
			return nil
		},
	}

	cmd.AddCommand(list, add)
	return cmd
}
