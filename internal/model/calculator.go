package model

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// PurchaseEstimate holds the results of a sheet purchasing calculation.
type PurchaseEstimate struct {
	SheetLabel        string          `json:"sheet_label"`
	TotalPieceArea    float64         `json:"total_piece_area"`    // Area of all units including kerf allowance
	SheetArea         float64         `json:"sheet_area"`          // Area of one sheet
	SheetsNeededExact float64         `json:"sheets_needed_exact"` // Exact fractional number of sheets
	SheetsNeededMin   int             `json:"sheets_needed_min"`   // Ceiling of the exact figure
	SheetsWithWaste   int             `json:"sheets_with_waste"`   // Recommended count including the waste factor
	SheetsOnHand      int             `json:"sheets_on_hand"`
	SheetsToBuy       int             `json:"sheets_to_buy"`
	WastePercent      float64         `json:"waste_percent"` // Waste factor applied (15 means 15%)
	CostPerSheet      decimal.Decimal `json:"cost_per_sheet"`
	EstimatedCost     decimal.Decimal `json:"estimated_cost"` // Cost of the sheets to buy
	KerfWidth         float64         `json:"kerf_width"`
}

// EstimatePurchase computes an area lower bound on how many sheets of one type
// a demand needs. Each unit is charged its own kerf strip on two sides. The
// result is a shopping hint, not a layout: the optimizer may need more.
func EstimatePurchase(sheet SheetType, pieces []PieceDemand, kerfWidth, wastePercent float64) (PurchaseEstimate, error) {
	if !validLength(sheet.Width) || !validLength(sheet.Height) {
		return PurchaseEstimate{}, fmt.Errorf("%w: sheet %v x %v", ErrInvalidDimension, sheet.Width, sheet.Height)
	}
	if wastePercent < 0 {
		return PurchaseEstimate{}, fmt.Errorf("%w: waste percent %v", ErrInvalidSettings, wastePercent)
	}

	var total float64
	for _, p := range pieces {
		if !validLength(p.Width) || !validLength(p.Height) {
			return PurchaseEstimate{}, fmt.Errorf("%w: piece %q is %v x %v", ErrInvalidDimension, p.Label, p.Width, p.Height)
		}
		if p.Quantity < 1 {
			return PurchaseEstimate{}, fmt.Errorf("%w: piece %q quantity %d", ErrInvalidQuantity, p.Label, p.Quantity)
		}
		total += (p.Width + kerfWidth) * (p.Height + kerfWidth) * float64(p.Quantity)
	}

	sheetArea := sheet.Area()
	exact := total / sheetArea
	minSheets := int(math.Ceil(exact))
	withWaste := int(math.Ceil(exact * (1.0 + wastePercent/100.0)))
	if withWaste < minSheets {
		withWaste = minSheets
	}
	toBuy := withWaste - sheet.Quantity
	if toBuy < 0 {
		toBuy = 0
	}

	return PurchaseEstimate{
		SheetLabel:        sheet.Label,
		TotalPieceArea:    total,
		SheetArea:         sheetArea,
		SheetsNeededExact: exact,
		SheetsNeededMin:   minSheets,
		SheetsWithWaste:   withWaste,
		SheetsOnHand:      sheet.Quantity,
		SheetsToBuy:       toBuy,
		WastePercent:      wastePercent,
		CostPerSheet:      sheet.CostPerSheet,
		EstimatedCost:     sheet.CostPerSheet.Mul(decimal.NewFromInt(int64(toBuy))),
		KerfWidth:         kerfWidth,
	}, nil
}
