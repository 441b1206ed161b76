package engine

import (
	"fmt"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/cutplan/internal/model"
)

const tol = 1e-6

func mixedRequest() ([]model.SheetType, []model.PieceDemand) {
	sheets := []model.SheetType{
		{Label: "Ply", Width: 96, Height: 48, Quantity: 3, HasGrain: true, CostPerSheet: decimal.NewFromInt(60)},
		{Label: "Half", Width: 48, Height: 48, Quantity: 2, CostPerSheet: decimal.NewFromInt(35)},
	}
	pieces := []model.PieceDemand{
		{Label: "Door", Width: 30, Height: 20, Quantity: 2, Grain: model.GrainParallel},
		{Label: "Shelf", Width: 34, Height: 11.5, Quantity: 4, Priority: 2},
		{Label: "Back", Width: 40, Height: 30, Quantity: 1, Grain: model.GrainPerpendicular},
		{Label: "Strip", Width: 40, Height: 3, Quantity: 3},
		{Label: "Block", Width: 7, Height: 7, Quantity: 4},
	}
	return sheets, pieces
}

type propertyCase struct {
	name   string
	sheets []model.SheetType
	pieces []model.PieceDemand
	tweak  func(*model.Settings)
}

func propertyCases() []propertyCase {
	cabSheets, cabPieces := cabinetRequest()
	mixSheets, mixPieces := mixedRequest()
	return []propertyCase{
		{"cabinet", cabSheets, cabPieces, nil},
		{"mixed", mixSheets, mixPieces, nil},
		{"mixed reserve", mixSheets, mixPieces, func(s *model.Settings) { s.KerfPolicy = model.KerfReserve }},
		{"mixed low grain", mixSheets, mixPieces, func(s *model.Settings) { s.GrainImportance = model.GrainImportanceLow }},
		{"mixed wide kerf", mixSheets, mixPieces, func(s *model.Settings) {
			s.KerfPolicy = model.KerfReserve
			s.KerfWidth = 0.5
		}},
	}
}

func TestPlanProperties(t *testing.T) {
	for _, pc := range propertyCases() {
		for _, mode := range model.Modes {
			t.Run(fmt.Sprintf("%s/%s", pc.name, mode), func(t *testing.T) {
				s := testSettings(mode)
				if pc.tweak != nil {
					pc.tweak(&s)
				}
				plan, err := New(s).Optimize(pc.sheets, pc.pieces)
				require.NoError(t, err)
				checkPlan(t, s, pc.sheets, pc.pieces, plan)
			})
		}
	}
}

func TestPlanProperties_GrainModeAvoidsViolations(t *testing.T) {
	sheets, pieces := mixedRequest()
	s := testSettings(model.ModeGrain)
	s.GrainImportance = model.GrainImportanceLow

	plan, err := New(s).Optimize(sheets, pieces)
	require.NoError(t, err)
	for _, l := range plan.Layouts {
		for _, p := range l.Pieces {
			assert.False(t, p.GrainViolation, "%s on sheet %d", p.ID, l.SheetIndex)
		}
	}
}

func checkPlan(t *testing.T, s model.Settings, sheets []model.SheetType, pieces []model.PieceDemand, plan model.CuttingPlan) {
	t.Helper()

	want := 0
	for _, p := range pieces {
		want += p.Quantity
	}
	assert.Equal(t, want, plan.Statistics.PiecesPlaced)
	assert.Equal(t, len(plan.Layouts), plan.Statistics.SheetsUsed)

	byLabel := make(map[string]model.SheetType)
	for _, st := range sheets {
		byLabel[st.Label] = st
	}

	produced := make(map[string]int)
	for i, in := range plan.Instructions {
		assert.Equal(t, i+1, in.Step)
		for _, id := range in.PiecesProduced {
			produced[id]++
		}
	}

	cuts := 0
	for _, l := range plan.Layouts {
		sheet, ok := byLabel[l.SheetLabel]
		require.True(t, ok)
		cuts += len(l.Cuts)

		checkConservation(t, l)
		checkNoOverlap(t, l, s.KerfGap())
		checkGrain(t, s, sheet, l)
		leaves := replayCuts(t, l, s.KerfGap())
		for _, p := range l.Pieces {
			assert.True(t, containsRect(leaves, p.Rect()), "%s is not separated by the cuts", p.ID)
			assert.Equal(t, 1, produced[p.ID], "%s should be produced exactly once", p.ID)
		}
	}
	assert.Equal(t, cuts, plan.Statistics.TotalCuts)
	assert.Len(t, produced, want)
}

func checkConservation(t *testing.T, l model.Layout) {
	t.Helper()
	total := l.UsedArea() + model.TotalOffcutArea(l.Offcuts) + l.KerfArea
	assert.InDelta(t, l.TotalArea(), total, tol*l.TotalArea(), "sheet %d area is not conserved", l.SheetIndex)
}

func checkNoOverlap(t *testing.T, l model.Layout, gap float64) {
	t.Helper()
	for i := range l.Pieces {
		a := l.Pieces[i].Rect()
		assert.GreaterOrEqual(t, a.X, -tol)
		assert.GreaterOrEqual(t, a.Y, -tol)
		assert.LessOrEqual(t, a.Right(), l.Width+tol)
		assert.LessOrEqual(t, a.Bottom(), l.Height+tol)
		for j := i + 1; j < len(l.Pieces); j++ {
			b := l.Pieces[j].Rect()
			assert.False(t, a.Expand(gap/2).Overlaps(b.Expand(gap/2), tol),
				"%s overlaps %s", l.Pieces[i].ID, l.Pieces[j].ID)
		}
	}
}

func checkGrain(t *testing.T, s model.Settings, sheet model.SheetType, l model.Layout) {
	t.Helper()
	for _, p := range l.Pieces {
		complies := model.CompliesWithGrain(p.Grain, sheet, p.Width, p.Height)
		assert.Equal(t, !complies, p.GrainViolation, "%s violation flag", p.ID)
		if s.StrictGrain() {
			assert.True(t, complies, "%s breaks the grain rule", p.ID)
		}
	}
}

// replayCuts applies the cuts in order to the sheet and returns the
// rectangles left at the end. Every cut must span a whole active rectangle.
func replayCuts(t *testing.T, l model.Layout, gap float64) []model.Rect {
	t.Helper()
	active := []model.Rect{{Width: l.Width, Height: l.Height}}

	for _, c := range l.Cuts {
		idx := -1
		for i, r := range active {
			if c.Orientation == model.Horizontal {
				if near(r.X, c.X1) && near(r.Right(), c.X2) && r.Y < c.Position && c.Position < r.Bottom() {
					idx = i
					break
				}
			} else if near(r.Y, c.Y1) && near(r.Bottom(), c.Y2) && r.X < c.Position && c.Position < r.Right() {
				idx = i
				break
			}
		}
		require.GreaterOrEqual(t, idx, 0, "cut %d on sheet %d does not span an active rectangle", c.Sequence, l.SheetIndex)

		r := active[idx]
		active = append(active[:idx], active[idx+1:]...)
		var a, b model.Rect
		if c.Orientation == model.Horizontal {
			assert.InDelta(t, r.Width, c.Length, tol)
			a = model.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: c.Position - gap/2 - r.Y}
			b = model.Rect{X: r.X, Y: c.Position + gap/2, Width: r.Width, Height: r.Bottom() - c.Position - gap/2}
		} else {
			assert.InDelta(t, r.Height, c.Length, tol)
			a = model.Rect{X: r.X, Y: r.Y, Width: c.Position - gap/2 - r.X, Height: r.Height}
			b = model.Rect{X: c.Position + gap/2, Y: r.Y, Width: r.Right() - c.Position - gap/2, Height: r.Height}
		}
		for _, n := range []model.Rect{a, b} {
			if n.Width > tol && n.Height > tol {
				active = append(active, n)
			}
		}
	}
	return active
}

func containsRect(rects []model.Rect, want model.Rect) bool {
	for _, r := range rects {
		if near(r.X, want.X) && near(r.Y, want.Y) && near(r.Width, want.Width) && near(r.Height, want.Height) {
			return true
		}
	}
	return false
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= tol
}
