package engine

import (
	"sort"

	"github.com/piwi3910/cutplan/internal/model"
)

// eps is the geometric tolerance used for every fit and degeneracy test.
const eps = 1e-6

// Score ranks a candidate placement; lower is better.
// Secondary only breaks ties of Primary.
type Score struct {
	Primary   float64
	Secondary float64
}

// Less compares two scores lexicographically with tolerance.
func (s Score) Less(o Score) bool {
	if s.Primary < o.Primary-eps {
		return true
	}
	if s.Primary > o.Primary+eps {
		return false
	}
	return s.Secondary < o.Secondary-eps
}

// Candidate is one feasible (sheet, free rectangle, orientation) choice for a unit.
type Candidate struct {
	Sheet          int // position of the sheet in opening order
	Node           int // free leaf in that sheet's split tree
	Free           model.Rect
	Unit           model.PieceUnit
	Width          float64 // placed dimensions
	Height         float64
	Rotated        bool
	GrainViolation bool
	NewCuts        int     // 0, 1 or 2
	Leftover       float64 // free rectangle area minus placed area
}

// Scorer is the policy half of the packer: it orders units, ranks sheet types
// for opening and scores candidates. The packer only ever asks it questions.
type Scorer interface {
	Score(c Candidate) Score
	Order(units []model.PieceUnit)
	RankSheetTypes(types []model.SheetType) []int
	// PreferFreshSheet reports whether the best candidate is bad enough that
	// a compliant placement on a new sheet should be taken instead.
	PreferFreshSheet(c Candidate) bool
}

// modeScorer dispatches on the closed set of optimization modes.
type modeScorer struct {
	mode    model.Mode
	weights model.Weights
	penalty float64
	maxArea float64
}

// NewScorer builds the scorer for settings.Mode. The largest sheet area is the
// normalization scale for waste, so types must be the request's sheet types.
func NewScorer(settings model.Settings, types []model.SheetType) Scorer {
	maxArea := 1.0
	for _, t := range types {
		if t.Area() > maxArea {
			maxArea = t.Area()
		}
	}
	return &modeScorer{
		mode:    settings.Mode,
		weights: settings.Weights,
		penalty: settings.GrainPenalty,
		maxArea: maxArea,
	}
}

func (m *modeScorer) Score(c Candidate) Score {
	v := 0.0
	if c.GrainViolation {
		v = m.penalty
	}
	cuts := float64(c.NewCuts)

	switch m.mode {
	case model.ModeCuts:
		return Score{Primary: cuts + 3*v, Secondary: c.Leftover}
	case model.ModeGrain:
		return Score{Primary: v, Secondary: c.Leftover}
	case model.ModeBalanced:
		w := m.weights
		blend := w.Waste*c.Leftover/m.maxArea + w.Cuts*cuts/2 + w.Grain*v
		return Score{Primary: blend / (w.Waste + w.Cuts + w.Grain), Secondary: c.Leftover}
	default: // waste, sheets
		return Score{Primary: c.Leftover + v*m.maxArea}
	}
}

// Order sorts units largest area first. Grain mode places constrained units
// ahead of free ones so they get first pick of compliant space.
func (m *modeScorer) Order(units []model.PieceUnit) {
	sort.SliceStable(units, func(i, j int) bool {
		a, b := units[i], units[j]
		if m.mode == model.ModeGrain {
			ca, cb := a.Grain.Constrained(), b.Grain.Constrained()
			if ca != cb {
				return ca
			}
		}
		if a.Area() != b.Area() {
			return a.Area() > b.Area()
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.Seq < b.Seq
	})
}

// RankSheetTypes returns type indices in opening preference. Sheets mode
// opens the largest sheet first; every other mode opens the cheapest per
// unit area first. Equal keys keep input order.
func (m *modeScorer) RankSheetTypes(types []model.SheetType) []int {
	idx := make([]int, len(types))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		a, b := types[idx[i]], types[idx[j]]
		if m.mode == model.ModeSheets && a.Area() != b.Area() {
			return a.Area() > b.Area()
		}
		return a.CostPerArea().Cmp(b.CostPerArea()) < 0
	})
	return idx
}

func (m *modeScorer) PreferFreshSheet(c Candidate) bool {
	return c.GrainViolation && m.mode != model.ModeSheets && m.penalty >= 1
}
