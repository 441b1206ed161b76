package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/cutplan/internal/model"
)

func TestInstructions_Cabinet(t *testing.T) {
	sheets, pieces := cabinetRequest()
	plan, err := New(testSettings(model.ModeWaste)).Optimize(sheets, pieces)
	require.NoError(t, err)

	require.Len(t, plan.Instructions, 1+len(plan.Layouts[0].Cuts))
	start := plan.Instructions[0]
	assert.Equal(t, 1, start.Step)
	assert.Equal(t, "Start with sheet #1 (Ply)", start.Description)
	assert.Equal(t, "96 x 48", start.Measurement)
	assert.Equal(t, supportNote, start.SafetyNote)
	assert.Empty(t, start.PiecesProduced)

	first := plan.Instructions[1]
	assert.Equal(t, "Cut 1: vertical cut at x=36 from y=0 to y=48 (48 long)", first.Description)
	assert.Equal(t, "36 from the left edge", first.Measurement)
	assert.Empty(t, first.SafetyNote)

	last := plan.Instructions[len(plan.Instructions)-1]
	assert.Contains(t, last.Note, "Keep reusable offcuts")
}

func TestInstructions_OneCutReleasesTwoPieces(t *testing.T) {
	sheets := []model.SheetType{{Label: "Board", Width: 20, Height: 10, Quantity: 1}}
	pieces := []model.PieceDemand{{Label: "Sq", Width: 10, Height: 10, Quantity: 2}}

	plan, err := New(testSettings(model.ModeWaste)).Optimize(sheets, pieces)
	require.NoError(t, err)

	require.Len(t, plan.Layouts[0].Cuts, 1)
	require.Len(t, plan.Instructions, 2)
	assert.ElementsMatch(t, []string{"Sq#1", "Sq#2"}, plan.Instructions[1].PiecesProduced)
	assert.Empty(t, plan.Layouts[0].Offcuts)
	assert.Empty(t, plan.Instructions[1].Note)
}

func TestInstructions_NarrowStripWarning(t *testing.T) {
	sheets := []model.SheetType{{Label: "Strip stock", Width: 48, Height: 12, Quantity: 1}}
	pieces := []model.PieceDemand{{Label: "Rail", Width: 46.5, Height: 12, Quantity: 1}}

	plan, err := New(testSettings(model.ModeWaste)).Optimize(sheets, pieces)
	require.NoError(t, err)

	require.Len(t, plan.Instructions, 2)
	assert.Equal(t, "Narrow strip of 1.5: use a push stick and keep hands clear of the blade.",
		plan.Instructions[1].SafetyNote)
	assert.Equal(t, []string{"Rail#1"}, plan.Instructions[1].PiecesProduced)
}

func TestInstructions_NumberingContinuesAcrossSheets(t *testing.T) {
	sheets := []model.SheetType{{Label: "Board", Width: 10, Height: 10, Quantity: 2}}
	pieces := []model.PieceDemand{{Label: "Block", Width: 8, Height: 8, Quantity: 2}}

	plan, err := New(testSettings(model.ModeWaste)).Optimize(sheets, pieces)
	require.NoError(t, err)
	require.Len(t, plan.Layouts, 2)

	perSheet := 1 + len(plan.Layouts[0].Cuts)
	second := plan.Instructions[perSheet]
	assert.Equal(t, perSheet+1, second.Step)
	assert.Equal(t, 2, second.SheetIndex)
	assert.Equal(t, "Start with sheet #2 (Board)", second.Description)
}

func TestOffcutSummary(t *testing.T) {
	offcuts := []model.Offcut{
		{Width: 2, Height: 30, Usable: false},
		{Width: 10, Height: 10, Usable: true},
		{Width: 20, Height: 12.5, Usable: true},
	}
	assert.Equal(t, "Keep reusable offcuts: 20 x 12.5, 10 x 10", offcutSummary(offcuts))
	assert.Empty(t, offcutSummary(offcuts[:1]))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.58, round(1.5833333, 2))
	assert.Equal(t, 18.75, round(18.75, 2))
	assert.Equal(t, 0.0, round(0, 2))
}
