package engine

import (
	"fmt"
	"log/slog"

	"github.com/piwi3910/cutplan/internal/logging"
	"github.com/piwi3910/cutplan/internal/model"
)

// Optimizer turns sheets and piece demands into a cutting plan.
// It holds no state between calls and is safe for concurrent use.
type Optimizer struct {
	Settings model.Settings
	Logger   *slog.Logger
}

func New(settings model.Settings) *Optimizer {
	return &Optimizer{Settings: settings, Logger: logging.NewNop()}
}

// WithLogger returns a copy of the optimizer that logs to l.
func (o *Optimizer) WithLogger(l *slog.Logger) *Optimizer {
	cp := *o
	cp.Logger = l
	return &cp
}

// Optimize validates the request, packs every piece unit and returns the
// full plan. Errors wrap one of the model sentinels; no partial plan is
// ever returned.
func (o *Optimizer) Optimize(sheets []model.SheetType, pieces []model.PieceDemand) (model.CuttingPlan, error) {
	settings := o.Settings.Normalized()
	if err := settings.Validate(); err != nil {
		return model.CuttingPlan{}, err
	}
	types, units, err := model.Expand(sheets, pieces)
	if err != nil {
		return model.CuttingPlan{}, err
	}

	logger := o.logger()
	logger.Debug("optimizing",
		"mode", settings.Mode,
		"algorithm", settings.Algorithm,
		"sheet_types", len(types),
		"units", len(units))

	if len(units) == 0 {
		return buildPlan(settings, nil), nil
	}

	scorer := NewScorer(settings, types)
	scorer.Order(units)

	var packed []*sheetInstance
	if settings.Algorithm == model.AlgorithmGenetic {
		packed, err = optimizeGenetic(settings, types, units, scorer, logger)
	} else {
		packed, err = packUnits(settings, types, units, scorer, logger)
	}
	if err != nil {
		return model.CuttingPlan{}, err
	}

	plan := buildPlan(settings, packed)
	logger.Debug("plan ready",
		"sheets", plan.Statistics.SheetsUsed,
		"cuts", plan.Statistics.TotalCuts,
		"waste_pct", plan.Statistics.TotalWastePercentage)
	return plan, nil
}

// OptimizeRequest is a convenience wrapper for a decoded request file.
func (o *Optimizer) OptimizeRequest(req model.Request) (model.CuttingPlan, error) {
	opt := *o
	opt.Settings = req.Settings
	return opt.Optimize(req.Sheets, req.Pieces)
}

func (o *Optimizer) logger() *slog.Logger {
	if o.Logger == nil {
		return logging.NewNop()
	}
	return o.Logger
}

// packUnits runs one deterministic packing pass over units in their
// current order.
func packUnits(settings model.Settings, types []model.SheetType, units []model.PieceUnit, scorer Scorer, logger *slog.Logger) ([]*sheetInstance, error) {
	p := newPacker(settings, types, scorer, logger)
	if err := p.pack(units); err != nil {
		return nil, fmt.Errorf("packing %d pieces: %w", len(units), err)
	}
	return p.sheets, nil
}
