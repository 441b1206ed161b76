// Package report turns plans, mode comparisons and purchase estimates into
// Markdown for the terminal.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/piwi3910/cutplan/internal/engine"
	"github.com/piwi3910/cutplan/internal/model"
)

//go:embed templates/*.md.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("report").Funcs(template.FuncMap{
	"escape":     escape,
	"num":        model.FormatNumber,
	"size":       model.FormatSize,
	"percent":    func(v float64) string { return fmt.Sprintf("%.2f%%", v) },
	"join":       func(ids []string) string { return strings.Join(ids, ", ") },
	"notes":      placementNotes,
	"usable":     model.UsableOffcuts,
	"offcutArea": model.TotalOffcutArea,
}).ParseFS(templateFS, "templates/*.md.tmpl"))

// metric is one row of a two-column statistics table.
type metric struct {
	Label string
	Value string
}

type planView struct {
	Mode         model.Mode
	Units        string
	Stats        []metric
	Layouts      []model.Layout
	Instructions []model.Instruction
}

type comparisonRow struct {
	Name         string
	SheetsUsed   int
	TotalCuts    int
	WastePercent float64
	TimeMinutes  float64
	Err          string
	Best         bool
}

type comparisonView struct {
	Rows  []comparisonRow
	Found bool
}

type estimateView struct {
	SheetLabel string
	Rows       []metric
}

// Plan renders a full cutting plan: statistics, one section per sheet and
// the numbered instructions.
func Plan(plan model.CuttingPlan, units string) (string, error) {
	s := plan.Statistics
	stats := []metric{
		{"Sheets used", fmt.Sprintf("%d", s.SheetsUsed)},
		{"Pieces placed", fmt.Sprintf("%d", s.PiecesPlaced)},
		{"Cuts", fmt.Sprintf("%d", s.TotalCuts)},
		{"Cut length", model.FormatLength(s.TotalCutLength, units)},
		{"Waste", fmt.Sprintf("%.2f%%", s.TotalWastePercentage)},
		{"Kerf loss", model.FormatNumber(s.TotalKerfArea)},
	}
	if s.LargestOffcutWidth > 0 {
		stats = append(stats, metric{"Largest offcut", model.FormatSize(s.LargestOffcutWidth, s.LargestOffcutHeight, units)})
	}
	stats = append(stats, metric{"Estimated time", model.FormatNumber(s.EstimatedTimeMinutes) + " min"})
	if !s.TotalCost.IsZero() {
		stats = append(stats, metric{"Material cost", s.TotalCost.StringFixed(2)})
	}
	stats = append(stats, metric{"Kerf policy", string(plan.KerfPolicy)})

	return execute("plan.md.tmpl", planView{
		Mode:         plan.Mode,
		Units:        units,
		Stats:        stats,
		Layouts:      plan.Layouts,
		Instructions: plan.Instructions,
	})
}

// Comparison renders a table with one row per scenario. The best plan is
// marked; failed scenarios show their error.
func Comparison(results []engine.ComparisonResult) (string, error) {
	best, ok := engine.Best(results)
	view := comparisonView{Found: ok}
	for _, r := range results {
		row := comparisonRow{Name: r.Scenario.Name}
		if r.Err != nil {
			row.Err = r.Err.Error()
		} else {
			row.SheetsUsed = r.SheetsUsed
			row.TotalCuts = r.TotalCuts
			row.WastePercent = r.WastePercent
			row.TimeMinutes = r.TimeMinutes
			row.Best = ok && r.Scenario.Name == best.Scenario.Name
		}
		view.Rows = append(view.Rows, row)
	}
	return execute("comparison.md.tmpl", view)
}

// Estimate renders a purchase estimate.
func Estimate(e model.PurchaseEstimate) (string, error) {
	rows := []metric{
		{"Piece area (with kerf)", model.FormatNumber(e.TotalPieceArea)},
		{"Sheet area", model.FormatNumber(e.SheetArea)},
		{"Sheets needed (exact)", fmt.Sprintf("%.2f", e.SheetsNeededExact)},
		{"Sheets needed (minimum)", fmt.Sprintf("%d", e.SheetsNeededMin)},
		{fmt.Sprintf("With %s%% waste", model.FormatNumber(e.WastePercent)), fmt.Sprintf("%d", e.SheetsWithWaste)},
		{"On hand", fmt.Sprintf("%d", e.SheetsOnHand)},
		{"To buy", fmt.Sprintf("%d", e.SheetsToBuy)},
	}
	if !e.EstimatedCost.IsZero() {
		rows = append(rows, metric{"Estimated cost", e.EstimatedCost.StringFixed(2)})
	}
	return execute("estimate.md.tmpl", estimateView{SheetLabel: e.SheetLabel, Rows: rows})
}

func execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}

func placementNotes(p model.Placement) string {
	var notes []string
	if p.Rotated {
		notes = append(notes, "rotated")
	}
	if p.GrainViolation {
		notes = append(notes, "against grain")
	}
	return strings.Join(notes, ", ")
}

// escape keeps user labels from breaking table cells or emphasis.
func escape(s string) string {
	return strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`).Replace(s)
}
