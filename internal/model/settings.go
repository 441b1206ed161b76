package model

import (
	"fmt"
	"math"
)

// Mode selects the objective the optimizer minimizes.
type Mode string

const (
	ModeWaste    Mode = "waste"    // Best area fit, least leftover area
	ModeCuts     Mode = "cuts"     // Fewest new guillotine cuts per placement
	ModeSheets   Mode = "sheets"   // Fill open sheets before opening another
	ModeGrain    Mode = "grain"    // Grain-compliant placements first
	ModeBalanced Mode = "balanced" // Weighted blend of waste, cuts and grain
)

// Modes lists every optimization mode in a fixed order.
var Modes = []Mode{ModeWaste, ModeCuts, ModeSheets, ModeGrain, ModeBalanced}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	for _, known := range Modes {
		if m == known {
			return true
		}
	}
	return false
}

// GrainImportance controls how strictly grain requirements are enforced.
type GrainImportance string

const (
	GrainImportanceLow    GrainImportance = "low"    // Violations allowed with a penalty
	GrainImportanceMedium GrainImportance = "medium" // Violations forbidden
	GrainImportanceHigh   GrainImportance = "high"   // Violations forbidden
)

// KerfPolicy decides where the blade width is charged.
type KerfPolicy string

const (
	// KerfShared lays pieces out at nominal size and centres the blade on the
	// shared boundary, so each neighbour loses kerf/2.
	KerfShared KerfPolicy = "shared"
	// KerfReserve keeps pieces at their exact size: every cut reserves a full
	// kerf strip next to the piece it separates.
	KerfReserve KerfPolicy = "reserve"
)

// Algorithm selects how the piece order is chosen.
type Algorithm string

const (
	AlgorithmGreedy  Algorithm = "greedy"  // Scorer ordering, single pass (fast)
	AlgorithmGenetic Algorithm = "genetic" // Seeded search over piece orderings (slower, often better)
)

// Weights are the blend factors of the balanced mode.
type Weights struct {
	Waste float64 `json:"waste" yaml:"waste"`
	Cuts  float64 `json:"cuts" yaml:"cuts"`
	Grain float64 `json:"grain" yaml:"grain"`
}

// Settings holds optimizer configuration.
// All lengths are in the caller's unit; defaults assume inches.
type Settings struct {
	Mode            Mode            `json:"optimization_mode" yaml:"optimization_mode"`
	KerfWidth       float64         `json:"kerf_width" yaml:"kerf_width"`               // Blade width
	MinUsableOffcut float64         `json:"min_usable_offcut" yaml:"min_usable_offcut"` // Smallest side worth keeping
	GrainImportance GrainImportance `json:"grain_importance" yaml:"grain_importance"`

	KerfPolicy KerfPolicy `json:"kerf_policy,omitempty" yaml:"kerf_policy,omitempty"`
	// GrainPenalty weighs a grain violation when importance is low. At 1.0 or
	// more a violation costs as much as wasting the largest sheet, and a fresh
	// sheet is opened instead when no open sheet has a compliant spot. Any
	// value below 1.0 keeps violations on the open sheets.
	//
	// Zero means unset: Normalized replaces it with the default of 1.0.
	// Negative values are rejected by Validate.
	GrainPenalty float64 `json:"grain_penalty,omitempty" yaml:"grain_penalty,omitempty"`
	Weights      Weights `json:"balanced_weights,omitempty" yaml:"balanced_weights,omitempty"`

	// ReuseSmallRemnants lets a leaf smaller than MinUsableOffcut host a
	// later piece that fits it. Off by default: such leaves are waste.
	ReuseSmallRemnants bool `json:"reuse_small_remnants,omitempty" yaml:"reuse_small_remnants,omitempty"`

	NarrowStripThreshold float64 `json:"narrow_strip_threshold,omitempty" yaml:"narrow_strip_threshold,omitempty"`
	SetupMinutesPerCut   float64 `json:"setup_minutes_per_cut,omitempty" yaml:"setup_minutes_per_cut,omitempty"`
	FeedRate             float64 `json:"feed_rate,omitempty" yaml:"feed_rate,omitempty"` // Length units per minute

	Algorithm Algorithm `json:"algorithm,omitempty" yaml:"algorithm,omitempty"`
	Seed      int64     `json:"seed,omitempty" yaml:"seed,omitempty"`
}

func DefaultSettings() Settings {
	return Settings{
		Mode:                 ModeWaste,
		KerfWidth:            0.125,
		MinUsableOffcut:      6.0,
		GrainImportance:      GrainImportanceMedium,
		KerfPolicy:           KerfShared,
		GrainPenalty:         1.0,
		Weights:              Weights{Waste: 1, Cuts: 1, Grain: 1},
		NarrowStripThreshold: 2.0,
		SetupMinutesPerCut:   1.5,
		FeedRate:             120.0,
		Algorithm:            AlgorithmGreedy,
		Seed:                 1,
	}
}

// Normalized returns a copy where unset optional fields take their defaults.
// The four request fields (mode, kerf, offcut, importance) are only defaulted
// when empty; out-of-range values are left for Validate to reject.
func (s Settings) Normalized() Settings {
	d := DefaultSettings()
	if s.Mode == "" {
		s.Mode = d.Mode
	}
	if s.GrainImportance == "" {
		s.GrainImportance = d.GrainImportance
	}
	if s.KerfPolicy == "" {
		s.KerfPolicy = d.KerfPolicy
	}
	if s.GrainPenalty == 0 {
		s.GrainPenalty = d.GrainPenalty
	}
	if s.Weights == (Weights{}) {
		s.Weights = d.Weights
	}
	if s.NarrowStripThreshold == 0 {
		s.NarrowStripThreshold = d.NarrowStripThreshold
	}
	if s.SetupMinutesPerCut == 0 {
		s.SetupMinutesPerCut = d.SetupMinutesPerCut
	}
	if s.FeedRate == 0 {
		s.FeedRate = d.FeedRate
	}
	if s.Algorithm == "" {
		s.Algorithm = d.Algorithm
	}
	if s.Seed == 0 {
		s.Seed = d.Seed
	}
	return s
}

// Validate checks the settings and wraps ErrInvalidSettings on failure.
func (s Settings) Validate() error {
	if !s.Mode.Valid() {
		return fmt.Errorf("%w: unknown optimization mode %q", ErrInvalidSettings, s.Mode)
	}
	if !positive(s.KerfWidth) {
		return fmt.Errorf("%w: kerf width must be positive, got %v", ErrInvalidSettings, s.KerfWidth)
	}
	if !positive(s.MinUsableOffcut) {
		return fmt.Errorf("%w: min usable offcut must be positive, got %v", ErrInvalidSettings, s.MinUsableOffcut)
	}
	switch s.GrainImportance {
	case GrainImportanceLow, GrainImportanceMedium, GrainImportanceHigh:
	default:
		return fmt.Errorf("%w: unknown grain importance %q", ErrInvalidSettings, s.GrainImportance)
	}
	switch s.KerfPolicy {
	case KerfReserve, KerfShared:
	default:
		return fmt.Errorf("%w: unknown kerf policy %q", ErrInvalidSettings, s.KerfPolicy)
	}
	switch s.Algorithm {
	case AlgorithmGreedy, AlgorithmGenetic:
	default:
		return fmt.Errorf("%w: unknown algorithm %q", ErrInvalidSettings, s.Algorithm)
	}
	if !positive(s.GrainPenalty) {
		return fmt.Errorf("%w: grain penalty must be positive, got %v", ErrInvalidSettings, s.GrainPenalty)
	}
	if s.Weights.Waste < 0 || s.Weights.Cuts < 0 || s.Weights.Grain < 0 ||
		s.Weights.Waste+s.Weights.Cuts+s.Weights.Grain <= 0 {
		return fmt.Errorf("%w: balanced weights must be non-negative with a positive sum", ErrInvalidSettings)
	}
	if !positive(s.FeedRate) {
		return fmt.Errorf("%w: feed rate must be positive, got %v", ErrInvalidSettings, s.FeedRate)
	}
	if s.SetupMinutesPerCut < 0 || s.NarrowStripThreshold < 0 {
		return fmt.Errorf("%w: setup time and narrow strip threshold cannot be negative", ErrInvalidSettings)
	}
	return nil
}

// StrictGrain reports whether grain violations are forbidden outright.
func (s Settings) StrictGrain() bool {
	return s.GrainImportance != GrainImportanceLow
}

// KerfGap is the strip reserved beside a piece for each cut.
func (s Settings) KerfGap() float64 {
	if s.KerfPolicy == KerfShared {
		return 0
	}
	return s.KerfWidth
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
