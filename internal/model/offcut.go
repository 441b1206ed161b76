package model

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Offcut is an unused leaf rectangle of a sheet's split tree.
// Usable offcuts are at least MinUsableOffcut on both sides and worth keeping.
type Offcut struct {
	SheetIndex int             `json:"sheet_index"` // Layout the remnant belongs to
	SheetLabel string          `json:"sheet_label,omitempty"`
	X          float64         `json:"x"`
	Y          float64         `json:"y"`
	Width      float64         `json:"width"`
	Height     float64         `json:"height"`
	Usable     bool            `json:"usable"`
	Value      decimal.Decimal `json:"value"` // Share of the sheet cost, proportional to area
}

// Area returns the area of the offcut.
func (o Offcut) Area() float64 {
	return o.Width * o.Height
}

// Rect returns the offcut footprint.
func (o Offcut) Rect() Rect {
	return Rect{X: o.X, Y: o.Y, Width: o.Width, Height: o.Height}
}

// ToSheetType converts an offcut into a sheet type so it can be fed back
// into a later request as stock.
func (o Offcut) ToSheetType(source SheetType) SheetType {
	return SheetType{
		Label:        fmt.Sprintf("Offcut of %s (sheet #%d)", source.Label, o.SheetIndex),
		Width:        o.Width,
		Height:       o.Height,
		Thickness:    source.Thickness,
		Quantity:     1,
		Material:     source.Material,
		HasGrain:     source.HasGrain && grainAxisKept(source, o),
		CostPerSheet: o.Value,
	}
}

// A remnant keeps its grain flag only when its long side still runs with the
// sheet grain; otherwise the derived type would misreport the grain axis.
func grainAxisKept(source SheetType, o Offcut) bool {
	if o.Width == o.Height {
		return true
	}
	return (o.Width > o.Height) == source.GrainAlongWidth()
}

// UsableOffcuts filters the remnants worth keeping, largest area first.
// Equal areas keep their tree order.
func UsableOffcuts(offcuts []Offcut) []Offcut {
	var usable []Offcut
	for _, o := range offcuts {
		if o.Usable {
			usable = append(usable, o)
		}
	}
	sort.SliceStable(usable, func(i, j int) bool {
		return usable[i].Area() > usable[j].Area()
	})
	return usable
}

// LargestOffcut returns the largest usable offcut across layouts.
func LargestOffcut(layouts []Layout) (Offcut, bool) {
	var best Offcut
	found := false
	for _, l := range layouts {
		for _, o := range l.Offcuts {
			if o.Usable && (!found || o.Area() > best.Area()) {
				best = o
				found = true
			}
		}
	}
	return best, found
}

// TotalOffcutArea returns the total area of all offcuts.
func TotalOffcutArea(offcuts []Offcut) float64 {
	var total float64
	for _, o := range offcuts {
		total += o.Area()
	}
	return total
}
