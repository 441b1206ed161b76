package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSheetTypeCostPerArea(t *testing.T) {
	s := SheetType{Width: 10, Height: 10, CostPerSheet: decimal.NewFromInt(50)}
	assert.True(t, s.CostPerArea().Equal(decimal.NewFromFloat(0.5)))

	free := SheetType{Width: 10, Height: 10}
	assert.True(t, free.CostPerArea().IsZero())
}

func TestSheetTypeAccepts(t *testing.T) {
	s := SheetType{Material: "Birch Ply"}
	assert.True(t, s.Accepts("birch ply"))
	assert.True(t, s.Accepts(""))
	assert.False(t, s.Accepts("MDF"))
	assert.True(t, SheetType{}.Accepts("MDF"))
}

func TestSheetTypeGrainAxis(t *testing.T) {
	assert.True(t, SheetType{Width: 96, Height: 48}.GrainAlongWidth())
	assert.False(t, SheetType{Width: 48, Height: 96}.GrainAlongWidth())
}

func TestNewSheetTypeAndPieceDemand(t *testing.T) {
	s := NewSheetType("Ply", 96, 48, 2)
	assert.Len(t, s.ID, 8)
	assert.Equal(t, 2, s.Quantity)

	p := NewPieceDemand("Shelf", 30, 12, 4)
	assert.Len(t, p.ID, 8)
	assert.Equal(t, GrainNone, p.Grain)
	assert.NotEqual(t, s.ID, p.ID)
}

func TestRectOverlaps(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	assert.True(t, a.Overlaps(Rect{X: 5, Y: 5, Width: 10, Height: 10}, 1e-9))
	assert.False(t, a.Overlaps(Rect{X: 10, Y: 0, Width: 5, Height: 5}, 1e-9), "shared edge is not overlap")
	assert.False(t, a.Overlaps(Rect{X: 0, Y: 20, Width: 5, Height: 5}, 1e-9))
}

func TestRectExpand(t *testing.T) {
	r := Rect{X: 1, Y: 1, Width: 2, Height: 3}.Expand(0.5)
	assert.Equal(t, Rect{X: 0.5, Y: 0.5, Width: 3, Height: 4}, r)
	assert.Equal(t, 3.0, r.ShortSide())
}

func TestLayoutEfficiency(t *testing.T) {
	l := Layout{
		Width:  10,
		Height: 10,
		Pieces: []Placement{{Width: 5, Height: 10}, {Width: 2, Height: 5}},
	}
	assert.InDelta(t, 60.0, l.UsedArea(), 1e-9)
	assert.InDelta(t, 60.0, l.Efficiency(), 1e-9)
	assert.Equal(t, 0.0, Layout{}.Efficiency())
}

func TestFormatLength(t *testing.T) {
	assert.Equal(t, `36.125"`, FormatLength(36.125, UnitsInches))
	assert.Equal(t, `12"`, FormatLength(12, ""))
	assert.Equal(t, "812.8mm", FormatLength(812.8, UnitsMillimeters))
	assert.Equal(t, "3 ft", FormatLength(3, "ft"))
	assert.Equal(t, "0.333", FormatNumber(1.0/3.0))
	assert.Equal(t, `96" x 48"`, FormatSize(96, 48, UnitsInches))
}

func TestAppConfigApplyToSettings(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.DefaultKerfWidth = 3.2
	cfg.DefaultMode = ModeCuts
	cfg.DefaultFeedRate = 0

	s := DefaultSettings()
	cfg.ApplyToSettings(&s)

	assert.Equal(t, 3.2, s.KerfWidth)
	assert.Equal(t, ModeCuts, s.Mode)
	assert.Equal(t, DefaultSettings().FeedRate, s.FeedRate, "zero config value must not clear the setting")
}

func TestAppConfigAddRecent(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.AddRecent("a.yaml")
	cfg.AddRecent("b.yaml")
	cfg.AddRecent("a.yaml")
	assert.Equal(t, []string{"a.yaml", "b.yaml"}, cfg.RecentRequests)

	for i := 0; i < 20; i++ {
		cfg.AddRecent(string(rune('c' + i)))
	}
	assert.Len(t, cfg.RecentRequests, maxRecentRequests)
}
