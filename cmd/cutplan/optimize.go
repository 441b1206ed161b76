package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piwi3910/cutplan/internal/engine"
	"github.com/piwi3910/cutplan/internal/export"
	"github.com/piwi3910/cutplan/internal/model"
	"github.com/piwi3910/cutplan/internal/project"
	"github.com/piwi3910/cutplan/internal/report"
)

// settingsFlags are the per-run overrides shared by the planning commands.
type settingsFlags struct {
	mode       string
	kerf       float64
	minOffcut  float64
	importance string
	policy     string
	algorithm  string
	seed       int64
	reuse      bool
}

func (f *settingsFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.mode, "mode", "", "Optimization mode (waste, cuts, sheets, grain, balanced)")
	flags.Float64Var(&f.kerf, "kerf", 0, "Blade width")
	flags.Float64Var(&f.minOffcut, "min-offcut", 0, "Smallest offcut side worth keeping")
	flags.StringVar(&f.importance, "grain", "", "Grain importance (low, medium, high)")
	flags.StringVar(&f.policy, "kerf-policy", "", "Kerf policy (shared, reserve)")
	flags.StringVar(&f.algorithm, "algorithm", "", "Ordering algorithm (greedy, genetic)")
	flags.Int64Var(&f.seed, "seed", 0, "Seed for the genetic algorithm")
	flags.BoolVar(&f.reuse, "reuse-remnants", false, "Let pieces use remnants smaller than the minimum offcut")
}

// apply overrides only the flags the user actually set.
func (f *settingsFlags) apply(cmd *cobra.Command, s *model.Settings) {
	changed := cmd.Flags().Changed
	if changed("mode") {
		s.Mode = model.Mode(strings.ToLower(f.mode))
	}
	if changed("kerf") {
		s.KerfWidth = f.kerf
	}
	if changed("min-offcut") {
		s.MinUsableOffcut = f.minOffcut
	}
	if changed("grain") {
		s.GrainImportance = model.GrainImportance(strings.ToLower(f.importance))
	}
	if changed("kerf-policy") {
		s.KerfPolicy = model.KerfPolicy(strings.ToLower(f.policy))
	}
	if changed("algorithm") {
		s.Algorithm = model.Algorithm(strings.ToLower(f.algorithm))
	}
	if changed("seed") {
		s.Seed = f.seed
	}
	if changed("reuse-remnants") {
		s.ReuseSmallRemnants = f.reuse
	}
}

func newOptimizeCmd(a *app) *cobra.Command {
	var (
		settings    settingsFlags
		format      string
		pdfPath     string
		labelsPath  string
		jsonPath    string
		saveOffcuts bool
	)

	cmd := &cobra.Command{
		Use:   "optimize <request>",
		Short: "Compute a cutting plan for a request file",
		Long: `Reads a .json, .yaml or .yml request and prints the plan: statistics, the
pieces on every sheet and the numbered cutting instructions.`,
		Args: cobra.ExactArgs(1),
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

			if err := a.printPlan(cmd, plan, format); err != nil {
				return err
			}
			if err := a.writeOutputs(plan, pdfPath, labelsPath, jsonPath); err != nil {
				return err
			}
			if saveOffcuts {
				return a.saveOffcuts(req.Sheets, plan)
			}
			return nil
		},
	}

	settings.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text, markdown, json)")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "Also write the cut sheets to this PDF")
	cmd.Flags().StringVar(&labelsPath, "labels", "", "Also write QR piece labels to this PDF")
	cmd.Flags().StringVar(&jsonPath, "json-out", "", "Also write the plan as JSON to this file")
	cmd.Flags().BoolVar(&saveOffcuts, "save-offcuts", false, "Add usable offcuts to the stock library")
	return cmd
}

func (a *app) printPlan(cmd *cobra.Command, plan model.CuttingPlan, format string) error {
	out := cmd.OutOrStdout()
	switch strings.ToLower(format) {
	case "json":
		return export.WriteJSON(out, plan)
	case "markdown", "md":
		md, err := report.Plan(plan, a.units)
		if err != nil {
			return err
		}
		return report.NewRenderer(out, false).Render(md)
	case "text", "":
		md, err := report.Plan(plan, a.units)
		if err != nil {
			return err
		}
		r := report.NewRenderer(out, !a.plain)
		if err := r.Render(md); err != nil {
			return err
		}
		s := plan.Statistics
		r.Status(true, "Plan uses %d sheet(s) with %d cuts and %.2f%% waste", s.SheetsUsed, s.TotalCuts, s.TotalWastePercentage)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, markdown or json)", format)
	}
}

func (a *app) writeOutputs(plan model.CuttingPlan, pdfPath, labelsPath, jsonPath string) error {
	if pdfPath != "" {
		if err := export.ExportPDF(pdfPath, plan, a.units); err != nil {
			return fmt.Errorf("exporting PDF: %w", err)
		}
		a.logger.Info("wrote cut sheets", "path", pdfPath)
	}
	if labelsPath != "" {
		if err := export.ExportLabels(labelsPath, plan, a.units); err != nil {
			return fmt.Errorf("exporting labels: %w", err)
		}
		a.logger.Info("wrote labels", "path", labelsPath)
	}
	if jsonPath != "" {
		if err := export.ExportJSON(jsonPath, plan); err != nil {
			return fmt.Errorf("exporting JSON: %w", err)
		}
		a.logger.Info("wrote plan", "path", jsonPath)
	}
	return nil
}

// saveOffcuts turns the usable offcuts of a plan into stock library sheets.
func (a *app) saveOffcuts(sheets []model.SheetType, plan model.CuttingPlan) error {
	var remnants []model.SheetType
	for _, l := range plan.Layouts {
		source, ok := sourceSheet(sheets, l)
		if !ok {
			a.logger.Warn("no source sheet for layout", "sheet", l.SheetIndex)
			continue
		}
	offcuts:
		for _, o := range model.UsableOffcuts(l.Offcuts) {
			st := o.ToSheetType(source)
			// Identical remnants of one sheet become one entry with a quantity
			for i := range remnants {
				r := &remnants[i]
				if r.Label == st.Label && r.Width == st.Width && r.Height == st.Height {
					r.Quantity++
					continue offcuts
				}
			}
			remnants = append(remnants, st)
		}
	}
	if len(remnants) == 0 {
		a.logger.Info("no usable offcuts to save")
		return nil
	}

	lib, err := project.LoadStock(a.stockPath())
	if err != nil {
		return err
	}
	added := lib.Merge(remnants)
	if err := project.SaveStock(a.stockPath(), lib); err != nil {
		return fmt.Errorf("saving stock: %w", err)
	}
	a.logger.Info("saved offcuts to stock library", "added", added, "path", a.stockPath())
	return nil
}

func sourceSheet(sheets []model.SheetType, l model.Layout) (model.SheetType, bool) {
	for _, s := range sheets {
		if l.SheetID != "" && s.ID == l.SheetID {
			return s, true
		}
	}
	for _, s := range sheets {
		if s.Label == l.SheetLabel && s.Width == l.Width && s.Height == l.Height {
			return s, true
		}
	}
	return model.SheetType{}, false
}
