package engine

import (
	"fmt"
	"math"

	"github.com/piwi3910/cutplan/internal/model"
)

// cutStep is an extracted cut plus what the operator gets out of it.
type cutStep struct {
	cut      model.Cut
	node     int
	produced []string // placements released by this cut
	// narrowest is the smallest extent across the cut among the children,
	// used for the narrow strip warning.
	narrowest float64
	offset    float64 // fence distance: blade edge from the near side
	span      float64
}

// extractCuts walks the split tree in pre-order and returns the cuts in the
// order a single operator makes them. A split's own cut comes before its
// children; among siblings, subtrees that need further cutting come first.
func extractCuts(inst *sheetInstance) []cutStep {
	var steps []cutStep
	var visit func(n int)
	visit = func(n int) {
		nd := inst.nodes[n]
		if nd.kind != nodeSplit {
			return
		}
		if step, ok := inst.cutAt(n, len(steps)+1); ok {
			steps = append(steps, step)
		}
		for _, c := range siblingOrder(inst, nd.children) {
			visit(c)
		}
	}
	visit(0)
	return steps
}

// siblingOrder lists existing children with split children before leaves,
// keeping top/left before bottom/right within each group.
func siblingOrder(inst *sheetInstance, children [2]int) []int {
	var splits, leaves []int
	for _, c := range children {
		if c == noChild {
			continue
		}
		if inst.nodes[c].kind == nodeSplit {
			splits = append(splits, c)
		} else {
			leaves = append(leaves, c)
		}
	}
	return append(splits, leaves...)
}

// cutAt builds the Cut for split node n. Zero length cuts are skipped.
func (s *sheetInstance) cutAt(n, seq int) (cutStep, bool) {
	nd := s.nodes[n]
	r := nd.rect

	step := cutStep{node: n, narrowest: math.Inf(1), produced: []string{}}
	c := model.Cut{Sequence: seq, Orientation: nd.orientation, Position: nd.position}
	if nd.orientation == model.Horizontal {
		c.X1, c.Y1, c.X2, c.Y2 = r.X, nd.position, r.Right(), nd.position
		c.Length = r.Width
		step.offset = s.nodes[nd.children[0]].rect.Height
	} else {
		c.X1, c.Y1, c.X2, c.Y2 = nd.position, r.Y, nd.position, r.Bottom()
		c.Length = r.Height
		step.offset = s.nodes[nd.children[0]].rect.Width
	}
	if c.Length <= eps {
		return cutStep{}, false
	}
	step.span = c.Length

	for _, ch := range nd.children {
		if ch == noChild {
			continue
		}
		child := s.nodes[ch]
		across := child.rect.Width
		if nd.orientation == model.Horizontal {
			across = child.rect.Height
		}
		step.narrowest = math.Min(step.narrowest, across)
		if child.kind == nodePiece {
			step.produced = append(step.produced, s.placements[child.placement].ID)
		}
	}

	c.Description = describeCut(c, r)
	step.cut = c
	return step, true
}

func describeCut(c model.Cut, r model.Rect) string {
	if c.Orientation == model.Horizontal {
		return fmt.Sprintf("Horizontal cut at y=%s from x=%s to x=%s (%s long)",
			model.FormatNumber(c.Position), model.FormatNumber(r.X), model.FormatNumber(r.Right()), model.FormatNumber(c.Length))
	}
	return fmt.Sprintf("Vertical cut at x=%s from y=%s to y=%s (%s long)",
		model.FormatNumber(c.Position), model.FormatNumber(r.Y), model.FormatNumber(r.Bottom()), model.FormatNumber(c.Length))
}
