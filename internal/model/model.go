package model

import (
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GrainDirection is the grain requirement of a piece relative to the sheet grain.
type GrainDirection string

const (
	GrainNone          GrainDirection = "none"          // No grain constraint, can rotate freely
	GrainParallel      GrainDirection = "parallel"      // Long edge runs with the sheet grain
	GrainPerpendicular GrainDirection = "perpendicular" // Long edge runs across the sheet grain
)

func (g GrainDirection) String() string {
	if g == "" {
		return string(GrainNone)
	}
	return string(g)
}

// Constrained reports whether the piece cares about grain at all.
func (g GrainDirection) Constrained() bool {
	return g == GrainParallel || g == GrainPerpendicular
}

// ParseGrain converts user input to a GrainDirection.
// It returns false when the string is not recognized.
func ParseGrain(s string) (GrainDirection, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "n", "-", "any":
		return GrainNone, true
	case "parallel", "p", "along", "with":
		return GrainParallel, true
	case "perpendicular", "perp", "cross", "across", "x":
		return GrainPerpendicular, true
	default:
		return GrainNone, false
	}
}

// SheetType is one distinct material/size the user owns.
// Grain, when present, runs along the longer side of the sheet.
type SheetType struct {
	ID           string          `json:"id,omitempty" yaml:"id,omitempty"`
	Label        string          `json:"label,omitempty" yaml:"label,omitempty"`
	Width        float64         `json:"width" yaml:"width"`
	Height       float64         `json:"height" yaml:"height"`
	Thickness    float64         `json:"thickness,omitempty" yaml:"thickness,omitempty"`
	Quantity     int             `json:"quantity" yaml:"quantity"`
	Material     string          `json:"material_type,omitempty" yaml:"material_type,omitempty"`
	HasGrain     bool            `json:"has_grain,omitempty" yaml:"has_grain,omitempty"`
	CostPerSheet decimal.Decimal `json:"cost_per_sheet" yaml:"cost_per_sheet"`
}

func NewSheetType(label string, w, h float64, qty int) SheetType {
	return SheetType{
		ID:       uuid.New().String()[:8],
		Label:    label,
		Width:    w,
		Height:   h,
		Quantity: qty,
	}
}

// Area returns the sheet area.
func (s SheetType) Area() float64 {
	return s.Width * s.Height
}

// GrainAlongWidth reports whether the sheet grain runs along the X axis.
func (s SheetType) GrainAlongWidth() bool {
	return s.Width >= s.Height
}

// CostPerArea returns the sheet cost divided by its area.
func (s SheetType) CostPerArea() decimal.Decimal {
	area := s.Area()
	if area <= 0 {
		return decimal.Zero
	}
	return s.CostPerSheet.Div(decimal.NewFromFloat(area))
}

// Accepts reports whether a piece of the given material may be cut from this sheet.
// An empty material on either side matches anything.
func (s SheetType) Accepts(material string) bool {
	if s.Material == "" || material == "" {
		return true
	}
	return strings.EqualFold(s.Material, material)
}

// CompliesWithGrain reports whether a piece placed as w x h on s satisfies g.
// Square pieces, unconstrained pieces and grainless sheets always comply.
func CompliesWithGrain(g GrainDirection, s SheetType, w, h float64) bool {
	if !g.Constrained() || !s.HasGrain || w == h {
		return true
	}
	alongGrain := (w > h) == s.GrainAlongWidth()
	if g == GrainParallel {
		return alongGrain
	}
	return !alongGrain
}

// PieceDemand is a required rectangular piece and how many copies are needed.
type PieceDemand struct {
	ID       string         `json:"id,omitempty" yaml:"id,omitempty"`
	Label    string         `json:"label,omitempty" yaml:"label,omitempty"`
	Width    float64        `json:"width" yaml:"width"`
	Height   float64        `json:"height" yaml:"height"`
	Quantity int            `json:"quantity" yaml:"quantity"`
	Grain    GrainDirection `json:"grain_direction,omitempty" yaml:"grain_direction,omitempty"`
	Priority int            `json:"priority,omitempty" yaml:"priority,omitempty"`
	Material string         `json:"material_type,omitempty" yaml:"material_type,omitempty"`
}

func NewPieceDemand(label string, w, h float64, qty int) PieceDemand {
	return PieceDemand{
		ID:       uuid.New().String()[:8],
		Label:    label,
		Width:    w,
		Height:   h,
		Quantity: qty,
		Grain:    GrainNone,
	}
}

// PieceUnit is a single physical copy of a PieceDemand.
type PieceUnit struct {
	ID       string // "<label>#<k>", stable across the whole request
	Label    string
	Demand   int // index of the originating PieceDemand
	Seq      int // position in expansion order
	Width    float64
	Height   float64
	Grain    GrainDirection
	Priority int
	Material string
}

// Area returns the unrotated area of the unit.
func (u PieceUnit) Area() float64 {
	return u.Width * u.Height
}

// Rect is an axis-aligned rectangle in sheet coordinates, origin at the top-left.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Area() float64   { return r.Width * r.Height }
func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Expand grows the rectangle by d on every side.
func (r Rect) Expand(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, Width: r.Width + 2*d, Height: r.Height + 2*d}
}

// Overlaps returns true if the rectangles share interior area (not just an edge).
func (r Rect) Overlaps(o Rect, tol float64) bool {
	return r.X < o.Right()-tol && r.Right() > o.X+tol &&
		r.Y < o.Bottom()-tol && r.Bottom() > o.Y+tol
}

// ShortSide returns the smaller of the two dimensions.
func (r Rect) ShortSide() float64 {
	return math.Min(r.Width, r.Height)
}

// Placement is a piece unit bound to a sheet at (X, Y).
// Width and Height are the placed dimensions, already swapped when Rotated.
type Placement struct {
	ID             string         `json:"id"`
	Label          string         `json:"label"`
	X              float64        `json:"x"`
	Y              float64        `json:"y"`
	Width          float64        `json:"width"`
	Height         float64        `json:"height"`
	Rotated        bool           `json:"is_rotated"`
	Grain          GrainDirection `json:"grain_direction,omitempty"`
	GrainViolation bool           `json:"grain_violation,omitempty"`
}

// Rect returns the placed footprint.
func (p Placement) Rect() Rect {
	return Rect{X: p.X, Y: p.Y, Width: p.Width, Height: p.Height}
}

// Area returns the placed piece area.
func (p Placement) Area() float64 {
	return p.Width * p.Height
}

// Orientation of a straight cut.
type Orientation string

const (
	Horizontal Orientation = "horizontal" // Constant Y, spans the active width
	Vertical   Orientation = "vertical"   // Constant X, spans the active height
)

// Cut is one full-length straight cut on a sheet.
type Cut struct {
	Sequence    int         `json:"sequence"`
	X1          float64     `json:"x1"`
	Y1          float64     `json:"y1"`
	X2          float64     `json:"x2"`
	Y2          float64     `json:"y2"`
	Orientation Orientation `json:"orientation"`
	Position    float64     `json:"position"` // blade centre line
	Length      float64     `json:"length"`
	Description string      `json:"description"`
}

// Layout is the projection of one opened sheet.
type Layout struct {
	SheetIndex      int             `json:"sheet_index"`
	SheetID         string          `json:"sheet_id,omitempty"`
	SheetLabel      string          `json:"sheet_label,omitempty"`
	Material        string          `json:"material_type,omitempty"`
	Width           float64         `json:"width"`
	Height          float64         `json:"height"`
	Pieces          []Placement     `json:"pieces"`
	Cuts            []Cut           `json:"cuts"`
	Offcuts         []Offcut        `json:"offcuts"`
	WasteArea       float64         `json:"waste_area"`
	WastePercentage float64         `json:"waste_percentage"`
	KerfArea        float64         `json:"kerf_area"`
	Cost            decimal.Decimal `json:"cost"`
}

// TotalArea returns the sheet area.
func (l Layout) TotalArea() float64 {
	return l.Width * l.Height
}

// UsedArea returns the total area of placed pieces.
func (l Layout) UsedArea() float64 {
	var total float64
	for _, p := range l.Pieces {
		total += p.Area()
	}
	return total
}

// Efficiency returns the usage percentage.
func (l Layout) Efficiency() float64 {
	ta := l.TotalArea()
	if ta == 0 {
		return 0
	}
	return l.UsedArea() / ta * 100.0
}

// Statistics aggregates a whole plan.
type Statistics struct {
	SheetsUsed           int             `json:"sheets_used"`
	PiecesPlaced         int             `json:"pieces_placed"`
	TotalCuts            int             `json:"total_cuts"`
	TotalCutLength       float64         `json:"total_cut_length"`
	TotalWasteArea       float64         `json:"total_waste_area"`
	TotalWastePercentage float64         `json:"total_waste_percentage"`
	TotalKerfArea        float64         `json:"total_kerf_area"`
	LargestOffcutWidth   float64         `json:"largest_offcut_width"`
	LargestOffcutHeight  float64         `json:"largest_offcut_height"`
	EstimatedTimeMinutes float64         `json:"estimated_time_minutes"`
	TotalCost            decimal.Decimal `json:"total_cost"`
}

// Instruction is one narrated step for the operator.
type Instruction struct {
	Step           int      `json:"step"`
	SheetIndex     int      `json:"sheet_index"`
	Description    string   `json:"description"`
	Measurement    string   `json:"measurement"`
	PiecesProduced []string `json:"pieces_produced"`
	SafetyNote     string   `json:"safety_note,omitempty"`
	Note           string   `json:"note,omitempty"` // Offcut summary on the last step of a sheet
}

// CuttingPlan is the full result of one optimization request.
type CuttingPlan struct {
	Mode         Mode          `json:"optimization_mode"`
	KerfPolicy   KerfPolicy    `json:"kerf_policy"`
	Layouts      []Layout      `json:"layouts"`
	Statistics   Statistics    `json:"statistics"`
	Instructions []Instruction `json:"instructions"`
}

// Request bundles the engine input as it arrives from a file or transport.
type Request struct {
	Sheets   []SheetType   `json:"sheets" yaml:"sheets"`
	Pieces   []PieceDemand `json:"pieces" yaml:"pieces"`
	Settings Settings      `json:"settings" yaml:"settings"`
}
