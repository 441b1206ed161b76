package engine

import (
	"fmt"
	"log/slog"

	"github.com/piwi3910/cutplan/internal/model"
)

// ComparisonScenario defines a named set of settings to compare.
type ComparisonScenario struct {
	Name     string
	Settings model.Settings
}

// ComparisonResult holds the plan and headline numbers for one scenario.
// Err is set when the scenario could not be planned; the other fields are
// then zero.
type ComparisonResult struct {
	Scenario     ComparisonScenario
	Plan         model.CuttingPlan
	Err          error
	SheetsUsed   int
	TotalCuts    int
	WastePercent float64
	TimeMinutes  float64
}

// CompareScenarios optimizes the same request under each scenario and
// returns the results in scenario order.
func CompareScenarios(scenarios []ComparisonScenario, sheets []model.SheetType, pieces []model.PieceDemand, logger *slog.Logger) []ComparisonResult {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		opt := New(scenario.Settings)
		if logger != nil {
			opt = opt.WithLogger(logger.With("scenario", scenario.Name))
		}

		res := ComparisonResult{Scenario: scenario}
		plan, err := opt.Optimize(sheets, pieces)
		if err != nil {
			res.Err = err
			results = append(results, res)
			continue
		}

		res.Plan = plan
		res.SheetsUsed = plan.Statistics.SheetsUsed
		res.TotalCuts = plan.Statistics.TotalCuts
		res.WastePercent = plan.Statistics.TotalWastePercentage
		res.TimeMinutes = plan.Statistics.EstimatedTimeMinutes
		results = append(results, res)
	}

	return results
}

// BuildModeScenarios returns one scenario per optimization mode, all other
// settings copied from base.
func BuildModeScenarios(base model.Settings) []ComparisonScenario {
	scenarios := make([]ComparisonScenario, 0, len(model.Modes)+1)
	for _, mode := range model.Modes {
		s := base
		s.Mode = mode
		scenarios = append(scenarios, ComparisonScenario{Name: string(mode), Settings: s})
	}

	// The other ordering algorithm under the base mode
	alt := base
	name := fmt.Sprintf("%s (genetic)", base.Normalized().Mode)
	if alt.Algorithm == model.AlgorithmGenetic {
		alt.Algorithm = model.AlgorithmGreedy
		name = fmt.Sprintf("%s (greedy)", base.Normalized().Mode)
	} else {
		alt.Algorithm = model.AlgorithmGenetic
	}
	scenarios = append(scenarios, ComparisonScenario{Name: name, Settings: alt})

	return scenarios
}

// CompareModes runs every optimization mode on one request.
func CompareModes(sheets []model.SheetType, pieces []model.PieceDemand, base model.Settings, logger *slog.Logger) []ComparisonResult {
	return CompareScenarios(BuildModeScenarios(base), sheets, pieces, logger)
}

// Best returns the successful result with the fewest sheets, then the
// least waste. ok is false when every scenario failed.
func Best(results []ComparisonResult) (ComparisonResult, bool) {
	var best ComparisonResult
	found := false
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		if !found || r.SheetsUsed < best.SheetsUsed ||
			(r.SheetsUsed == best.SheetsUsed && r.WastePercent < best.WastePercent) {
			best = r
			found = true
		}
	}
	return best, found
}
