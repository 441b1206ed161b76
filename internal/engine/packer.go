package engine

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/piwi3910/cutplan/internal/model"
)

type nodeKind int

const (
	nodeFree  nodeKind = iota // unused leaf
	nodeSplit                 // divided by one straight cut
	nodePiece                 // leaf holding a placement
)

const noChild = -1

// node is one rectangle of a sheet's split tree. Nodes live in an arena and
// refer to each other by index; children[0] is the top or left part.
type node struct {
	kind        nodeKind
	rect        model.Rect
	parent      int
	children    [2]int
	orientation model.Orientation
	position    float64 // blade centre line, absolute
	kerfArea    float64 // material removed by this cut
	placement   int
	offered     bool // free leaf still available for placements
}

// sheetInstance is one physical sheet opened from a sheet type.
type sheetInstance struct {
	typeIndex  int
	sheet      model.SheetType
	nodes      []node
	placements []model.Placement
}

func newSheetInstance(typeIndex int, sheet model.SheetType) *sheetInstance {
	s := &sheetInstance{typeIndex: typeIndex, sheet: sheet}
	s.addNode(noChild, model.Rect{Width: sheet.Width, Height: sheet.Height})
	return s
}

func (s *sheetInstance) addNode(parent int, r model.Rect) int {
	s.nodes = append(s.nodes, node{
		kind:      nodeFree,
		rect:      r,
		parent:    parent,
		children:  [2]int{noChild, noChild},
		placement: -1,
		offered:   true,
	})
	return len(s.nodes) - 1
}

// freeLeaves returns the offered free leaves in reading order: top to
// bottom, then left to right, then creation order.
func (s *sheetInstance) freeLeaves() []int {
	var leaves []int
	for i, n := range s.nodes {
		if n.kind == nodeFree && n.offered {
			leaves = append(leaves, i)
		}
	}
	sort.SliceStable(leaves, func(a, b int) bool {
		ra, rb := s.nodes[leaves[a]].rect, s.nodes[leaves[b]].rect
		if ra.Y != rb.Y {
			return ra.Y < rb.Y
		}
		return ra.X < rb.X
	})
	return leaves
}

// split divides node n with one full-length cut at offset edge from the
// rectangle origin. The blade removes gap beyond the edge. The far child is
// omitted when nothing of it survives the blade.
func (s *sheetInstance) split(n int, o model.Orientation, edge, gap float64) (int, int) {
	r := s.nodes[n].rect
	var near, far model.Rect
	var extent, span, origin float64
	if o == model.Horizontal {
		extent, span, origin = r.Height, r.Width, r.Y
		near = model.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: edge}
		far = model.Rect{X: r.X, Y: r.Y + edge + gap, Width: r.Width, Height: extent - edge - gap}
	} else {
		extent, span, origin = r.Width, r.Height, r.X
		near = model.Rect{X: r.X, Y: r.Y, Width: edge, Height: r.Height}
		far = model.Rect{X: r.X + edge + gap, Y: r.Y, Width: extent - edge - gap, Height: r.Height}
	}

	rest := extent - edge
	removed := math.Min(gap, rest)
	first := s.addNode(n, near)
	second := noChild
	if rest-gap > eps {
		second = s.addNode(n, far)
	} else {
		removed = rest
	}

	nd := &s.nodes[n]
	nd.kind = nodeSplit
	nd.offered = false
	nd.orientation = o
	nd.position = origin + edge + gap/2
	nd.kerfArea = removed * span
	nd.children = [2]int{first, second}
	return first, second
}

// place carves the candidate's piece out of its free leaf at the leaf's
// top-left corner with at most two cuts.
func (s *sheetInstance) place(c Candidate, gap float64) {
	r := c.Free
	target := c.Node
	cutW := r.Width-c.Width > eps
	cutH := r.Height-c.Height > eps

	switch {
	case cutW && cutH:
		if horizontalFirst(r, c.Width, c.Height, gap) {
			top, _ := s.split(target, model.Horizontal, c.Height, gap)
			target, _ = s.split(top, model.Vertical, c.Width, gap)
		} else {
			left, _ := s.split(target, model.Vertical, c.Width, gap)
			target, _ = s.split(left, model.Horizontal, c.Height, gap)
		}
	case cutH:
		target, _ = s.split(target, model.Horizontal, c.Height, gap)
	case cutW:
		target, _ = s.split(target, model.Vertical, c.Width, gap)
	}

	leaf := &s.nodes[target]
	leaf.kind = nodePiece
	leaf.offered = false
	leaf.placement = len(s.placements)
	s.placements = append(s.placements, model.Placement{
		ID:             c.Unit.ID,
		Label:          c.Unit.Label,
		X:              r.X,
		Y:              r.Y,
		Width:          c.Width,
		Height:         c.Height,
		Rotated:        c.Rotated,
		Grain:          c.Unit.Grain,
		GrainViolation: c.GrainViolation,
	})
}

// horizontalFirst picks the split order whose larger remaining child is
// bigger. Ties go horizontal.
func horizontalFirst(r model.Rect, w, h, gap float64) bool {
	remW := math.Max(r.Width-w-gap, 0)
	remH := math.Max(r.Height-h-gap, 0)
	hBest := math.Max(r.Width*remH, remW*h)
	vBest := math.Max(remW*r.Height, w*remH)
	return hBest >= vBest-eps
}

// fits reports whether size fits extent. Anything left over must be either
// nothing or at least one blade width, since a cut needs room for the blade.
func fits(extent, size, gap float64) bool {
	if size > extent+eps {
		return false
	}
	rest := extent - size
	return rest <= eps || rest >= gap-eps
}

// packer assigns units to sheets. It owns every sheet instance it opens.
type packer struct {
	settings  model.Settings
	scorer    Scorer
	types     []model.SheetType
	rank      []int
	remaining []int
	sheets    []*sheetInstance
	logger    *slog.Logger
}

func newPacker(settings model.Settings, types []model.SheetType, scorer Scorer, logger *slog.Logger) *packer {
	remaining := make([]int, len(types))
	for i, t := range types {
		remaining[i] = t.Quantity
	}
	return &packer{
		settings:  settings,
		scorer:    scorer,
		types:     types,
		rank:      scorer.RankSheetTypes(types),
		remaining: remaining,
		logger:    logger,
	}
}

// pack places units in the given order. It fails atomically: on error the
// partially built sheets must be discarded by the caller.
func (p *packer) pack(units []model.PieceUnit) error {
	if err := p.checkFeasible(units); err != nil {
		return err
	}

	for i, u := range units {
		best, ok := p.scan(u, p.sheets, 0, false)
		var opened *sheetInstance

		if ok && p.scorer.PreferFreshSheet(best) {
			// Compliant spots on open sheets come before a fresh sheet
			if compliant, found := p.scan(u, p.sheets, 0, true); found {
				best = compliant
			} else if fresh, inst, found := p.freshCandidate(u, true); found {
				best, opened = fresh, inst
			}
		}
		if !ok {
			fresh, inst, found := p.freshCandidate(u, false)
			if !found {
				return fmt.Errorf("%w: no sheet left for piece %q after opening %d of %d sheets",
					model.ErrInsufficientMaterial, u.ID, len(p.sheets), model.TotalSheetQuantity(p.types))
			}
			best, opened = fresh, inst
		}

		p.commit(best, opened, units[i+1:])
	}
	return nil
}

// checkFeasible rejects the request up front when some unit cannot fit any
// sheet type even on an empty sheet.
func (p *packer) checkFeasible(units []model.PieceUnit) error {
	checked := make(map[int]bool)
	for _, u := range units {
		if checked[u.Demand] {
			continue
		}
		checked[u.Demand] = true

		hosted := false
		for ti, t := range p.types {
			if _, ok := p.scan(u, []*sheetInstance{newSheetInstance(ti, t)}, 0, false); ok {
				hosted = true
				break
			}
		}
		if !hosted {
			return fmt.Errorf("%w: piece %q (%s x %s) does not fit any available sheet",
				model.ErrInsufficientMaterial, u.Label, model.FormatNumber(u.Width), model.FormatNumber(u.Height))
		}
	}
	return nil
}

// freshCandidate finds the first sheet type in opening order that still has
// stock and can host u, and returns the best candidate on an unopened sheet.
func (p *packer) freshCandidate(u model.PieceUnit, compliantOnly bool) (Candidate, *sheetInstance, bool) {
	for _, ti := range p.rank {
		if p.remaining[ti] <= 0 {
			continue
		}
		inst := newSheetInstance(ti, p.types[ti])
		if c, ok := p.scan(u, []*sheetInstance{inst}, len(p.sheets), compliantOnly); ok {
			return c, inst, true
		}
	}
	return Candidate{}, nil, false
}

// scan enumerates every legal candidate for u across sheets and returns the
// lowest scoring one. The first candidate found wins ties, so the scan
// order (sheet, reading order of free leaves, unrotated first) is the
// tie-break policy.
func (p *packer) scan(u model.PieceUnit, sheets []*sheetInstance, base int, compliantOnly bool) (Candidate, bool) {
	var best Candidate
	var bestScore Score
	found := false

	for k, inst := range sheets {
		if !inst.sheet.Accepts(u.Material) {
			continue
		}
		for _, n := range inst.freeLeaves() {
			for _, rotated := range orientations(u) {
				c, ok := p.candidate(u, inst.sheet, inst.nodes[n].rect, rotated)
				if !ok || (compliantOnly && c.GrainViolation) {
					continue
				}
				c.Sheet = base + k
				c.Node = n
				score := p.scorer.Score(c)
				if !found || score.Less(bestScore) {
					best, bestScore, found = c, score, true
				}
			}
		}
	}
	return best, found
}

func orientations(u model.PieceUnit) []bool {
	if u.Width == u.Height {
		return []bool{false}
	}
	return []bool{false, true}
}

func (p *packer) candidate(u model.PieceUnit, sheet model.SheetType, free model.Rect, rotated bool) (Candidate, bool) {
	w, h := u.Width, u.Height
	if rotated {
		w, h = h, w
	}
	gap := p.settings.KerfGap()
	if !fits(free.Width, w, gap) || !fits(free.Height, h, gap) {
		return Candidate{}, false
	}
	violation := !model.CompliesWithGrain(u.Grain, sheet, w, h)
	if violation && p.settings.StrictGrain() {
		return Candidate{}, false
	}

	cuts := 0
	if free.Width-w > eps {
		cuts++
	}
	if free.Height-h > eps {
		cuts++
	}
	return Candidate{
		Free:           free,
		Unit:           u,
		Width:          w,
		Height:         h,
		Rotated:        rotated,
		GrainViolation: violation,
		NewCuts:        cuts,
		Leftover:       free.Area() - w*h,
	}, true
}

// commit applies the chosen candidate. opened is non-nil when the candidate
// lives on a sheet that is not open yet.
func (p *packer) commit(c Candidate, opened *sheetInstance, pending []model.PieceUnit) {
	if opened != nil {
		p.sheets = append(p.sheets, opened)
		p.remaining[opened.typeIndex]--
		p.logger.Debug("sheet opened",
			"sheet", len(p.sheets),
			"type", opened.sheet.Label,
			"remaining", p.remaining[opened.typeIndex])
	}

	inst := p.sheets[c.Sheet]
	before := len(inst.nodes)
	inst.place(c, p.settings.KerfGap())

	for n := before; n < len(inst.nodes); n++ {
		if inst.nodes[n].kind == nodeFree {
			inst.nodes[n].offered = p.worthOffering(inst, inst.nodes[n].rect, pending)
		}
	}

	p.logger.Debug("piece placed",
		"piece", c.Unit.ID,
		"sheet", c.Sheet+1,
		"x", c.Free.X,
		"y", c.Free.Y,
		"rotated", c.Rotated,
		"grain_violation", c.GrainViolation)
}

// worthOffering keeps a remnant available only when both sides reach the
// minimum usable offcut size. Smaller leaves are permanent waste unless
// ReuseSmallRemnants is set and some piece still waiting fits in them.
func (p *packer) worthOffering(inst *sheetInstance, r model.Rect, pending []model.PieceUnit) bool {
	side := p.settings.MinUsableOffcut
	if r.Width >= side-eps && r.Height >= side-eps {
		return true
	}
	if !p.settings.ReuseSmallRemnants {
		return false
	}
	seen := make(map[int]bool)
	for _, u := range pending {
		if seen[u.Demand] || !inst.sheet.Accepts(u.Material) {
			continue
		}
		seen[u.Demand] = true
		for _, rotated := range orientations(u) {
			if _, ok := p.candidate(u, inst.sheet, r, rotated); ok {
				return true
			}
		}
	}
	return false
}
