package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/cutplan/internal/model"
)

func TestBuildModeScenarios(t *testing.T) {
	scenarios := BuildModeScenarios(model.DefaultSettings())
	require.Len(t, scenarios, len(model.Modes)+1)
	for i, mode := range model.Modes {
		assert.Equal(t, string(mode), scenarios[i].Name)
		assert.Equal(t, mode, scenarios[i].Settings.Mode)
	}
	alt := scenarios[len(scenarios)-1]
	assert.Equal(t, "waste (genetic)", alt.Name)
	assert.Equal(t, model.AlgorithmGenetic, alt.Settings.Algorithm)
}

func TestCompareModes(t *testing.T) {
	sheets, pieces := cabinetRequest()
	results := CompareModes(sheets, pieces, model.DefaultSettings(), nil)
	require.Len(t, results, 6)

	for _, r := range results {
		assert.NoError(t, r.Err, r.Scenario.Name)
		assert.Equal(t, r.Plan.Statistics.SheetsUsed, r.SheetsUsed)
	}

	best, ok := Best(results)
	require.True(t, ok)
	assert.Equal(t, 1, best.SheetsUsed)
}

func TestCompareModes_AllFail(t *testing.T) {
	sheets := []model.SheetType{{Width: 10, Height: 10, Quantity: 1}}
	pieces := []model.PieceDemand{{Label: "Huge", Width: 20, Height: 20, Quantity: 1}}

	results := CompareModes(sheets, pieces, model.DefaultSettings(), nil)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, model.ErrInsufficientMaterial)
	}
	_, ok := Best(results)
	assert.False(t, ok)
}

func TestBest_PrefersFewerSheetsThenWaste(t *testing.T) {
	results := []ComparisonResult{
		{Scenario: ComparisonScenario{Name: "a"}, SheetsUsed: 2, WastePercent: 5},
		{Scenario: ComparisonScenario{Name: "b"}, SheetsUsed: 1, WastePercent: 30},
		{Scenario: ComparisonScenario{Name: "c"}, SheetsUsed: 1, WastePercent: 20},
		{Scenario: ComparisonScenario{Name: "d"}, Err: model.ErrInsufficientMaterial},
	}
	best, ok := Best(results)
	require.True(t, ok)
	assert.Equal(t, "c", best.Scenario.Name)
}
