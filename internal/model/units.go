package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	UnitsInches      = "in"
	UnitsMillimeters = "mm"
)

// FormatNumber renders v rounded to three decimals without trailing zeros.
func FormatNumber(v float64) string {
	return decimal.NewFromFloat(v).Round(3).String()
}

// FormatLength renders a length for reports. The engine never converts units;
// this only appends the unit suffix.
func FormatLength(v float64, units string) string {
	switch strings.ToLower(units) {
	case UnitsMillimeters:
		return decimal.NewFromFloat(v).Round(1).String() + "mm"
	case UnitsInches, "":
		return FormatNumber(v) + `"`
	default:
		return FormatNumber(v) + " " + units
	}
}

// FormatSize renders "W x H" for a rectangle.
func FormatSize(w, h float64, units string) string {
	return FormatLength(w, units) + " x " + FormatLength(h, units)
}
