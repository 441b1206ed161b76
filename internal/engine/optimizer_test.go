package engine

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/cutplan/internal/model"
)

func testSettings(mode model.Mode) model.Settings {
	s := model.DefaultSettings()
	s.Mode = mode
	return s
}

func cabinetRequest() ([]model.SheetType, []model.PieceDemand) {
	sheets := []model.SheetType{{Label: "Ply", Width: 96, Height: 48, Quantity: 1}}
	pieces := []model.PieceDemand{
		{Label: "Shelf", Width: 36, Height: 12, Quantity: 3},
		{Label: "Top", Width: 48, Height: 12, Quantity: 2},
		{Label: "Side", Width: 36, Height: 36, Quantity: 1},
	}
	return sheets, pieces
}

func TestOptimize_CabinetFitsOneSheet(t *testing.T) {
	sheets, pieces := cabinetRequest()

	plan, err := New(testSettings(model.ModeWaste)).Optimize(sheets, pieces)
	require.NoError(t, err)

	assert.Equal(t, 1, plan.Statistics.SheetsUsed)
	require.Len(t, plan.Layouts, 1)
	assert.Len(t, plan.Layouts[0].Pieces, 6)
	assert.Less(t, plan.Layouts[0].WastePercentage, 20.0)
	assert.InDelta(t, 18.75, plan.Statistics.TotalWastePercentage, 1e-9)
	assert.Greater(t, plan.Statistics.TotalCuts, 0)
	assert.LessOrEqual(t, plan.Statistics.TotalCuts, 12)
	assert.Equal(t, 9, plan.Statistics.TotalCuts)
	assert.Equal(t, model.KerfShared, plan.KerfPolicy)
}

func TestOptimize_CabinetPlacementOrder(t *testing.T) {
	sheets, pieces := cabinetRequest()

	plan, err := New(testSettings(model.ModeWaste)).Optimize(sheets, pieces)
	require.NoError(t, err)

	got := make([]string, 0, 6)
	for _, p := range plan.Layouts[0].Pieces {
		got = append(got, p.ID)
	}
	// Largest area first, then input order within equal areas
	assert.Equal(t, []string{"Side#1", "Top#1", "Top#2", "Shelf#1", "Shelf#2", "Shelf#3"}, got)

	side := plan.Layouts[0].Pieces[0]
	assert.Equal(t, 0.0, side.X)
	assert.Equal(t, 0.0, side.Y)

	first := plan.Layouts[0].Cuts[0]
	assert.Equal(t, model.Vertical, first.Orientation)
	assert.Equal(t, 36.0, first.Position)
	assert.Equal(t, 48.0, first.Length)
	assert.Equal(t, 1, first.Sequence)
}

func TestOptimize_PieceWiderThanSheet(t *testing.T) {
	sheets := []model.SheetType{{Width: 48, Height: 24, Quantity: 5}}
	pieces := []model.PieceDemand{{Label: "Wide", Width: 60, Height: 10, Quantity: 1}}

	_, err := New(testSettings(model.ModeWaste)).Optimize(sheets, pieces)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInsufficientMaterial))
}

func TestOptimize_SheetsExhausted(t *testing.T) {
	sheets := []model.SheetType{{Width: 10, Height: 10, Quantity: 1}}
	pieces := []model.PieceDemand{{Label: "Block", Width: 8, Height: 8, Quantity: 2}}

	_, err := New(testSettings(model.ModeWaste)).Optimize(sheets, pieces)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInsufficientMaterial))
	assert.Contains(t, err.Error(), "Block#2")
}

func TestOptimize_InvalidInput(t *testing.T) {
	sheets, pieces := cabinetRequest()

	bad := testSettings("fastest")
	_, err := New(bad).Optimize(sheets, pieces)
	assert.True(t, errors.Is(err, model.ErrInvalidSettings))

	noKerf := testSettings(model.ModeWaste)
	noKerf.KerfWidth = 0
	_, err = New(noKerf).Optimize(sheets, pieces)
	assert.True(t, errors.Is(err, model.ErrInvalidSettings))

	_, err = New(testSettings(model.ModeWaste)).Optimize(sheets, []model.PieceDemand{{Label: "A", Width: 1, Height: 1}})
	assert.True(t, errors.Is(err, model.ErrInvalidQuantity))

	_, err = New(testSettings(model.ModeWaste)).Optimize([]model.SheetType{{Width: -1, Height: 1, Quantity: 1}}, pieces)
	assert.True(t, errors.Is(err, model.ErrInvalidDimension))
}

func TestOptimize_NoPieces(t *testing.T) {
	sheets, _ := cabinetRequest()

	plan, err := New(testSettings(model.ModeWaste)).Optimize(sheets, nil)
	require.NoError(t, err)
	assert.Empty(t, plan.Layouts)
	assert.Empty(t, plan.Instructions)
	assert.Equal(t, 0, plan.Statistics.SheetsUsed)
}

func TestOptimize_GrainParallelKeepsOrientation(t *testing.T) {
	sheets := []model.SheetType{{Label: "Oak", Width: 96, Height: 48, Quantity: 1, HasGrain: true}}
	pieces := []model.PieceDemand{{Label: "Door", Width: 30, Height: 10, Quantity: 1, Grain: model.GrainParallel}}

	plan, err := New(testSettings(model.ModeGrain)).Optimize(sheets, pieces)
	require.NoError(t, err)

	p := plan.Layouts[0].Pieces[0]
	assert.False(t, p.Rotated)
	assert.False(t, p.GrainViolation)
	assert.Equal(t, 30.0, p.Width)
}

func TestOptimize_GrainParallelRotatesWhenNeeded(t *testing.T) {
	sheets := []model.SheetType{{Label: "Oak", Width: 96, Height: 48, Quantity: 1, HasGrain: true}}
	pieces := []model.PieceDemand{{Label: "Stile", Width: 10, Height: 30, Quantity: 1, Grain: model.GrainParallel}}

	for _, importance := range []model.GrainImportance{model.GrainImportanceLow, model.GrainImportanceHigh} {
		s := testSettings(model.ModeGrain)
		s.GrainImportance = importance

		plan, err := New(s).Optimize(sheets, pieces)
		require.NoError(t, err)

		p := plan.Layouts[0].Pieces[0]
		assert.True(t, p.Rotated, "importance %s", importance)
		assert.False(t, p.GrainViolation, "importance %s", importance)
		assert.Equal(t, 30.0, p.Width)
		assert.Equal(t, 10.0, p.Height)
	}
}

func TestOptimize_GrainStrictBlocksRotation(t *testing.T) {
	// Only the rotated orientation fits; its long edge then runs with the grain.
	sheets := []model.SheetType{{Label: "Oak", Width: 40, Height: 20, Quantity: 1, HasGrain: true}}
	pieces := []model.PieceDemand{{Label: "Rail", Width: 18, Height: 35, Quantity: 1, Grain: model.GrainParallel}}

	plan, err := New(testSettings(model.ModeWaste)).Optimize(sheets, pieces)
	require.NoError(t, err, "rotated, the long edge runs with the grain")
	assert.True(t, plan.Layouts[0].Pieces[0].Rotated)

	pieces[0].Grain = model.GrainPerpendicular
	_, err = New(testSettings(model.ModeWaste)).Optimize(sheets, pieces)
	assert.True(t, errors.Is(err, model.ErrInsufficientMaterial))

	low := testSettings(model.ModeWaste)
	low.GrainImportance = model.GrainImportanceLow
	plan, err = New(low).Optimize(sheets, pieces)
	require.NoError(t, err)
	assert.True(t, plan.Layouts[0].Pieces[0].GrainViolation)
}

func TestOptimize_LowImportanceOpensFreshSheet(t *testing.T) {
	sheets := []model.SheetType{{Label: "Oak", Width: 96, Height: 48, Quantity: 2, HasGrain: true}}
	pieces := []model.PieceDemand{
		{Label: "Panel", Width: 90, Height: 44, Quantity: 1},
		{Label: "Slat", Width: 5, Height: 30, Quantity: 1, Grain: model.GrainParallel},
	}

	s := testSettings(model.ModeWaste)
	s.GrainImportance = model.GrainImportanceLow

	plan, err := New(s).Optimize(sheets, pieces)
	require.NoError(t, err)
	assert.Equal(t, 2, plan.Statistics.SheetsUsed, "full penalty prefers a compliant fresh sheet")
	slat := plan.Layouts[1].Pieces[0]
	assert.True(t, slat.Rotated)
	assert.False(t, slat.GrainViolation)

	s.GrainPenalty = 0.5
	plan, err = New(s).Optimize(sheets, pieces)
	require.NoError(t, err)
	assert.Equal(t, 1, plan.Statistics.SheetsUsed, "a light penalty accepts the violation")
	assert.True(t, plan.Layouts[0].Pieces[1].GrainViolation)
}

func TestOptimize_LowImportanceKeepsCompliantSpotOnOpenSheet(t *testing.T) {
	sheets := []model.SheetType{{Label: "Oak", Width: 200, Height: 200, Quantity: 2, HasGrain: true}}
	pieces := []model.PieceDemand{
		{Label: "A", Width: 190, Height: 50, Quantity: 1},
		{Label: "B", Width: 20, Height: 10, Quantity: 1, Grain: model.GrainParallel},
	}

	s := testSettings(model.ModeBalanced)
	s.GrainImportance = model.GrainImportanceLow

	plan, err := New(s).Optimize(sheets, pieces)
	require.NoError(t, err)
	assert.Equal(t, 1, plan.Statistics.SheetsUsed, "the open sheet still has room for B with the grain")
	require.Len(t, plan.Layouts[0].Pieces, 2)
	b := plan.Layouts[0].Pieces[1]
	assert.Equal(t, "B#1", b.ID)
	assert.False(t, b.GrainViolation)
}

func TestOptimize_SmallRemnantIsWaste(t *testing.T) {
	sheets := []model.SheetType{{Label: "Board", Width: 100, Height: 100, Quantity: 1}}
	pieces := []model.PieceDemand{
		{Label: "Big", Width: 100, Height: 97, Quantity: 1},
		{Label: "Chip", Width: 3, Height: 3, Quantity: 1},
	}

	s := testSettings(model.ModeWaste)
	s.MinUsableOffcut = 6

	_, err := New(s).Optimize(sheets, pieces)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInsufficientMaterial), "the 100x3 strip is below the minimum offcut")

	s.ReuseSmallRemnants = true
	plan, err := New(s).Optimize(sheets, pieces)
	require.NoError(t, err)
	require.Len(t, plan.Layouts, 1)
	chip := plan.Layouts[0].Pieces[1]
	assert.Equal(t, "Chip#1", chip.ID)
	assert.InDelta(t, 97.0, chip.Y, 1e-9)
}

func TestOptimize_SheetsModeUsesMinimum(t *testing.T) {
	sheets := []model.SheetType{{Label: "Board", Width: 100, Height: 50, Quantity: 3}}
	pieces := []model.PieceDemand{{Label: "Square", Width: 49, Height: 49, Quantity: 3}}

	wastePlan, err := New(testSettings(model.ModeWaste)).Optimize(sheets, pieces)
	require.NoError(t, err)
	sheetsPlan, err := New(testSettings(model.ModeSheets)).Optimize(sheets, pieces)
	require.NoError(t, err)

	assert.Equal(t, 2, sheetsPlan.Statistics.SheetsUsed)
	assert.LessOrEqual(t, sheetsPlan.Statistics.SheetsUsed, wastePlan.Statistics.SheetsUsed)
}

func TestOptimize_SheetTypeOpeningOrder(t *testing.T) {
	sheets := []model.SheetType{
		{Label: "Big", Width: 96, Height: 48, Quantity: 1, CostPerSheet: decimal.NewFromInt(40)},
		{Label: "Small", Width: 48, Height: 24, Quantity: 1, CostPerSheet: decimal.NewFromInt(30)},
	}
	pieces := []model.PieceDemand{{Label: "A", Width: 20, Height: 20, Quantity: 1}}

	plan, err := New(testSettings(model.ModeWaste)).Optimize(sheets, pieces)
	require.NoError(t, err)
	assert.Equal(t, "Big", plan.Layouts[0].SheetLabel, "big sheet is cheaper per unit area")
	assert.True(t, plan.Statistics.TotalCost.Equal(decimal.NewFromInt(40)))

	sheets[0].CostPerSheet = decimal.NewFromInt(200)
	plan, err = New(testSettings(model.ModeWaste)).Optimize(sheets, pieces)
	require.NoError(t, err)
	assert.Equal(t, "Small", plan.Layouts[0].SheetLabel)

	plan, err = New(testSettings(model.ModeSheets)).Optimize(sheets, pieces)
	require.NoError(t, err)
	assert.Equal(t, "Big", plan.Layouts[0].SheetLabel, "sheets mode opens the largest sheet")
}

func TestOptimize_SkipsSheetTypeThatCannotHostPiece(t *testing.T) {
	sheets := []model.SheetType{
		{Label: "Small", Width: 24, Height: 24, Quantity: 3},
		{Label: "Big", Width: 96, Height: 48, Quantity: 1},
	}
	pieces := []model.PieceDemand{{Label: "Long", Width: 60, Height: 10, Quantity: 1}}

	plan, err := New(testSettings(model.ModeWaste)).Optimize(sheets, pieces)
	require.NoError(t, err)
	assert.Equal(t, "Big", plan.Layouts[0].SheetLabel)
}

func TestOptimize_MaterialCompatibility(t *testing.T) {
	sheets := []model.SheetType{
		{Label: "Oak", Width: 96, Height: 48, Quantity: 1, Material: "oak"},
		{Label: "MDF", Width: 96, Height: 48, Quantity: 1, Material: "mdf"},
	}
	pieces := []model.PieceDemand{
		{Label: "Face", Width: 30, Height: 20, Quantity: 1, Material: "oak"},
		{Label: "Back", Width: 30, Height: 20, Quantity: 1, Material: "MDF"},
	}

	plan, err := New(testSettings(model.ModeWaste)).Optimize(sheets, pieces)
	require.NoError(t, err)
	require.Len(t, plan.Layouts, 2)
	for _, l := range plan.Layouts {
		require.Len(t, l.Pieces, 1)
		if l.Material == "oak" {
			assert.Equal(t, "Face#1", l.Pieces[0].ID)
		} else {
			assert.Equal(t, "Back#1", l.Pieces[0].ID)
		}
	}

	pieces = append(pieces, model.PieceDemand{Label: "Glass", Width: 5, Height: 5, Quantity: 1, Material: "glass"})
	_, err = New(testSettings(model.ModeWaste)).Optimize(sheets, pieces)
	assert.True(t, errors.Is(err, model.ErrInsufficientMaterial))
}

func TestOptimize_ReserveKerf(t *testing.T) {
	s := testSettings(model.ModeWaste)
	s.KerfPolicy = model.KerfReserve
	pieces := []model.PieceDemand{{Label: "Half", Width: 10, Height: 10, Quantity: 2}}

	// Two 10" pieces plus one blade width do not fit in 20".
	_, err := New(s).Optimize([]model.SheetType{{Width: 20, Height: 10, Quantity: 1}}, pieces)
	assert.True(t, errors.Is(err, model.ErrInsufficientMaterial))

	plan, err := New(s).Optimize([]model.SheetType{{Width: 20.125, Height: 10, Quantity: 1}}, pieces)
	require.NoError(t, err)
	layout := plan.Layouts[0]
	require.Len(t, layout.Pieces, 2)
	assert.Equal(t, 10.125, layout.Pieces[1].X)
	require.Len(t, layout.Cuts, 1)
	assert.Equal(t, 10.0625, layout.Cuts[0].Position)
	assert.InDelta(t, 1.25, layout.KerfArea, 1e-9)
	assert.Equal(t, model.KerfReserve, plan.KerfPolicy)
}

func TestOptimize_Statistics(t *testing.T) {
	sheets := []model.SheetType{{Label: "Strip", Width: 20, Height: 10, Quantity: 1, CostPerSheet: decimal.NewFromInt(12)}}
	pieces := []model.PieceDemand{{Label: "Sq", Width: 10, Height: 10, Quantity: 1}}

	plan, err := New(testSettings(model.ModeWaste)).Optimize(sheets, pieces)
	require.NoError(t, err)

	st := plan.Statistics
	assert.Equal(t, 1, st.SheetsUsed)
	assert.Equal(t, 1, st.PiecesPlaced)
	assert.Equal(t, 1, st.TotalCuts)
	assert.Equal(t, 10.0, st.TotalCutLength)
	assert.Equal(t, 100.0, st.TotalWasteArea)
	assert.Equal(t, 50.0, st.TotalWastePercentage)
	assert.Equal(t, 1.58, st.EstimatedTimeMinutes) // 1.5 setup + 10/120
	assert.Equal(t, 10.0, st.LargestOffcutWidth)
	assert.Equal(t, 10.0, st.LargestOffcutHeight)
	assert.True(t, st.TotalCost.Equal(decimal.NewFromInt(12)))

	offcut := plan.Layouts[0].Offcuts[0]
	assert.True(t, offcut.Usable)
	assert.True(t, offcut.Value.Equal(decimal.NewFromInt(6)))
}

func TestOptimize_Deterministic(t *testing.T) {
	sheets, pieces := mixedRequest()
	for _, mode := range model.Modes {
		first, err := New(testSettings(mode)).Optimize(sheets, pieces)
		require.NoError(t, err)
		second, err := New(testSettings(mode)).Optimize(sheets, pieces)
		require.NoError(t, err)
		assert.Equal(t, first, second, "mode %s", mode)
	}
}

func TestOptimizeRequest(t *testing.T) {
	sheets, pieces := cabinetRequest()
	req := model.Request{Sheets: sheets, Pieces: pieces, Settings: testSettings(model.ModeCuts)}

	plan, err := New(model.DefaultSettings()).OptimizeRequest(req)
	require.NoError(t, err)
	assert.Equal(t, model.ModeCuts, plan.Mode)
}
