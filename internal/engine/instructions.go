package engine

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/piwi3910/cutplan/internal/model"
)

const (
	supportNote = "Support the sheet fully on a flat surface before the first cut."
	narrowNote  = "Narrow strip of %s: use a push stick and keep hands clear of the blade."
)

// buildPlan projects packed sheets into layouts, statistics and the
// narrated instruction list. It is a pure function of its input.
func buildPlan(settings model.Settings, sheets []*sheetInstance) model.CuttingPlan {
	plan := model.CuttingPlan{
		Mode:         settings.Mode,
		KerfPolicy:   settings.KerfPolicy,
		Layouts:      make([]model.Layout, 0, len(sheets)),
		Instructions: []model.Instruction{},
	}

	stats := model.Statistics{TotalCost: decimal.Zero}
	var totalArea float64

	for i, inst := range sheets {
		index := i + 1
		steps := extractCuts(inst)
		layout := projectLayout(settings, inst, index, steps)

		plan.Layouts = append(plan.Layouts, layout)
		plan.Instructions = appendInstructions(plan.Instructions, settings, inst, layout, steps)

		totalArea += layout.TotalArea()
		stats.SheetsUsed++
		stats.PiecesPlaced += len(layout.Pieces)
		stats.TotalCuts += len(layout.Cuts)
		for _, c := range layout.Cuts {
			stats.TotalCutLength += c.Length
		}
		stats.TotalWasteArea += layout.WasteArea
		stats.TotalKerfArea += layout.KerfArea
		stats.TotalCost = stats.TotalCost.Add(layout.Cost)
	}

	if totalArea > 0 {
		stats.TotalWastePercentage = round(stats.TotalWasteArea/totalArea*100, 2)
	}
	if o, ok := model.LargestOffcut(plan.Layouts); ok {
		stats.LargestOffcutWidth = o.Width
		stats.LargestOffcutHeight = o.Height
	}
	stats.EstimatedTimeMinutes = round(
		float64(stats.TotalCuts)*settings.SetupMinutesPerCut+stats.TotalCutLength/settings.FeedRate, 2)

	plan.Statistics = stats
	return plan
}

func projectLayout(settings model.Settings, inst *sheetInstance, index int, steps []cutStep) model.Layout {
	sheet := inst.sheet
	layout := model.Layout{
		SheetIndex: index,
		SheetID:    sheet.ID,
		SheetLabel: sheet.Label,
		Material:   sheet.Material,
		Width:      sheet.Width,
		Height:     sheet.Height,
		Pieces:     append([]model.Placement{}, inst.placements...),
		Cuts:       make([]model.Cut, 0, len(steps)),
		Offcuts:    []model.Offcut{},
		Cost:       sheet.CostPerSheet,
	}
	for _, s := range steps {
		layout.Cuts = append(layout.Cuts, s.cut)
	}

	area := sheet.Area()
	for _, nd := range inst.nodes {
		switch nd.kind {
		case nodeFree:
			r := nd.rect
			layout.Offcuts = append(layout.Offcuts, model.Offcut{
				SheetIndex: index,
				SheetLabel: sheet.Label,
				X:          r.X,
				Y:          r.Y,
				Width:      r.Width,
				Height:     r.Height,
				Usable:     r.ShortSide() >= settings.MinUsableOffcut-eps,
				Value:      sheet.CostPerSheet.Mul(decimal.NewFromFloat(r.Area() / area)).Round(2),
			})
			layout.WasteArea += r.Area()
		case nodeSplit:
			layout.KerfArea += nd.kerfArea
		}
	}
	layout.WastePercentage = round(layout.WasteArea/area*100, 2)
	return layout
}

// appendInstructions narrates one sheet: a start step, then one step per
// cut. Step numbers continue across sheets.
func appendInstructions(out []model.Instruction, settings model.Settings, inst *sheetInstance, layout model.Layout, steps []cutStep) []model.Instruction {
	start := model.Instruction{
		Step:           len(out) + 1,
		SheetIndex:     layout.SheetIndex,
		Description:    fmt.Sprintf("Start with sheet #%d (%s)", layout.SheetIndex, layout.SheetLabel),
		Measurement:    model.FormatNumber(layout.Width) + " x " + model.FormatNumber(layout.Height),
		PiecesProduced: []string{},
		SafetyNote:     supportNote,
	}
	// A piece that fills the whole sheet needs no cut at all.
	if root := inst.nodes[0]; root.kind == nodePiece {
		start.PiecesProduced = append(start.PiecesProduced, inst.placements[root.placement].ID)
	}
	out = append(out, start)

	for _, s := range steps {
		in := model.Instruction{
			Step:           len(out) + 1,
			SheetIndex:     layout.SheetIndex,
			Description:    fmt.Sprintf("Cut %d: %s", s.cut.Sequence, lowerFirst(s.cut.Description)),
			Measurement:    fmt.Sprintf("%s from the %s edge", model.FormatNumber(s.offset), nearEdge(s.cut.Orientation)),
			PiecesProduced: s.produced,
		}
		if s.narrowest < settings.NarrowStripThreshold {
			in.SafetyNote = fmt.Sprintf(narrowNote, model.FormatNumber(s.narrowest))
		}
		out = append(out, in)
	}

	if note := offcutSummary(layout.Offcuts); note != "" {
		out[len(out)-1].Note = note
	}
	return out
}

func offcutSummary(offcuts []model.Offcut) string {
	usable := model.UsableOffcuts(offcuts)
	if len(usable) == 0 {
		return ""
	}
	parts := make([]string, 0, len(usable))
	for _, o := range usable {
		parts = append(parts, model.FormatNumber(o.Width)+" x "+model.FormatNumber(o.Height))
	}
	return "Keep reusable offcuts: " + strings.Join(parts, ", ")
}

func nearEdge(o model.Orientation) string {
	if o == model.Horizontal {
		return "top"
	}
	return "left"
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
