package model

import (
	"fmt"
	"math"
	"strings"
)

// Expand validates the request inventory and turns every PieceDemand into
// Quantity independent PieceUnits. Units are emitted in input order, and each
// demand's copies are labelled "<label>#1" .. "<label>#n".
func Expand(sheets []SheetType, pieces []PieceDemand) ([]SheetType, []PieceUnit, error) {
	types := make([]SheetType, len(sheets))
	for i, s := range sheets {
		name := sheetName(s, i)
		if !validLength(s.Width) || !validLength(s.Height) {
			return nil, nil, fmt.Errorf("%w: sheet %s is %v x %v", ErrInvalidDimension, name, s.Width, s.Height)
		}
		if s.Thickness < 0 || math.IsNaN(s.Thickness) {
			return nil, nil, fmt.Errorf("%w: sheet %s thickness %v", ErrInvalidDimension, name, s.Thickness)
		}
		if s.Quantity < 1 {
			return nil, nil, fmt.Errorf("%w: sheet %s quantity %d", ErrInvalidQuantity, name, s.Quantity)
		}
		if s.Label == "" {
			s.Label = name
		}
		types[i] = s
	}

	var units []PieceUnit
	for i, p := range pieces {
		label := strings.TrimSpace(p.Label)
		if label == "" {
			label = fmt.Sprintf("Piece %d", i+1)
		}
		if !validLength(p.Width) || !validLength(p.Height) {
			return nil, nil, fmt.Errorf("%w: piece %q is %v x %v", ErrInvalidDimension, label, p.Width, p.Height)
		}
		if p.Quantity < 1 {
			return nil, nil, fmt.Errorf("%w: piece %q quantity %d", ErrInvalidQuantity, label, p.Quantity)
		}
		grain := p.Grain
		if grain == "" {
			grain = GrainNone
		}
		if grain != GrainNone && !grain.Constrained() {
			return nil, nil, fmt.Errorf("%w: piece %q has unknown grain direction %q", ErrInvalidSettings, label, p.Grain)
		}
		for k := 1; k <= p.Quantity; k++ {
			units = append(units, PieceUnit{
				ID:       fmt.Sprintf("%s#%d", label, k),
				Label:    label,
				Demand:   i,
				Seq:      len(units),
				Width:    p.Width,
				Height:   p.Height,
				Grain:    grain,
				Priority: p.Priority,
				Material: p.Material,
			})
		}
	}
	return types, units, nil
}

// TotalSheetQuantity is the number of sheets the inventory can ever open.
func TotalSheetQuantity(sheets []SheetType) int {
	total := 0
	for _, s := range sheets {
		total += s.Quantity
	}
	return total
}

func sheetName(s SheetType, i int) string {
	if s.Label != "" {
		return fmt.Sprintf("%q", s.Label)
	}
	return fmt.Sprintf("Sheet %d", i+1)
}

func validLength(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
