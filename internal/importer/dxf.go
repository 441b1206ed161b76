package importer

import (
	"fmt"
	"math"
	"sort"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"

	"github.com/piwi3910/cutplan/internal/model"
)

// minShapeSize drops slivers left by drawing noise.
const minShapeSize = 0.01

type point struct{ X, Y float64 }

// outline is a closed polygon; the last point connects back to the first.
type outline []point

func (o outline) bounds() (lo, hi point) {
	if len(o) == 0 {
		return
	}
	lo, hi = o[0], o[0]
	for _, p := range o[1:] {
		lo.X, lo.Y = math.Min(lo.X, p.X), math.Min(lo.Y, p.Y)
		hi.X, hi.Y = math.Max(hi.X, p.X), math.Max(hi.Y, p.Y)
	}
	return lo, hi
}

// area is the absolute shoelace area.
func (o outline) area() float64 {
	n := len(o)
	if n < 3 {
		return 0
	}
	var a float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		a += o[i].X*o[j].Y - o[j].X*o[i].Y
	}
	return math.Abs(a) / 2
}

// segment joins two points; loose LINE and ARC entities are chained from these.
type segment struct {
	start point
	end   point
}

// ImportDXF reads closed shapes (LWPOLYLINE, CIRCLE, or chains of LINEs and
// ARCs) and turns each into one piece sized to its bounding box. Guillotine
// cutting only produces rectangles, so the outline itself is not kept.
func ImportDXF(path string) ImportResult {
	result := ImportResult{}

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	var outlines []outline
	var segments []segment

	for _, ent := range entities {
		switch e := ent.(type) {
		case *entity.LwPolyline:
			o := lwPolylineToOutline(e)
			if len(o) >= 3 {
				outlines = append(outlines, o)
			} else {
				result.Warnings = append(result.Warnings, "Skipped LWPOLYLINE with fewer than 3 vertices")
			}

		case *entity.Circle:
			outlines = append(outlines, circleToOutline(e, 64))

		case *entity.Arc:
			if pts := arcToPoints(e, 32); len(pts) >= 2 {
				segments = append(segments, pointsToSegments(pts)...)
			}

		case *entity.Line:
			segments = append(segments, segment{
				start: point{X: e.Start[0], Y: e.Start[1]},
				end:   point{X: e.End[0], Y: e.End[1]},
			})
		}
	}

	outlines = append(outlines, chainSegments(segments, 0.01)...)
	if len(outlines) == 0 {
		result.Errors = append(result.Errors, "No closed shapes found in DXF file")
		return result
	}

	n := 0
	for _, o := range outlines {
		lo, hi := o.bounds()
		width, height := hi.X-lo.X, hi.Y-lo.Y
		if width < minShapeSize || height < minShapeSize {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Skipped degenerate shape (%s x %s)", model.FormatNumber(width), model.FormatNumber(height)))
			continue
		}
		n++
		if len(o) != 4 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("DXF Piece %d is not a rectangle, using its %s x %s bounding box",
					n, model.FormatNumber(width), model.FormatNumber(height)))
		}
		result.Pieces = append(result.Pieces, model.NewPieceDemand(fmt.Sprintf("DXF Piece %d", n), width, height, 1))
	}

	return result
}

// lwPolylineToOutline converts an LWPOLYLINE. Bulged vertices become
// interpolated arcs to the next vertex.
func lwPolylineToOutline(lw *entity.LwPolyline) outline {
	var o outline
	for i, v := range lw.Vertices {
		current := point{X: v[0], Y: v[1]}

		bulge := 0.0
		if i < len(lw.Bulges) {
			bulge = lw.Bulges[i]
		}
		if math.Abs(bulge) <= 1e-9 {
			o = append(o, current)
			continue
		}

		nv := lw.Vertices[(i+1)%len(lw.Vertices)]
		arc := bulgeArcPoints(current, point{X: nv[0], Y: nv[1]}, bulge, 32)
		// The next vertex is added by its own iteration
		o = append(o, arc[:len(arc)-1]...)
	}
	return o
}

// bulgeArcPoints samples the arc between two vertices. The DXF bulge is the
// tangent of a quarter of the included angle; its sign gives the direction.
func bulgeArcPoints(p1, p2 point, bulge float64, steps int) outline {
	mx, my := (p1.X+p2.X)/2, (p1.Y+p2.Y)/2
	dx, dy := p2.X-p1.X, p2.Y-p1.Y
	chord := math.Hypot(dx, dy)
	if chord < 1e-9 {
		return outline{p1, p2}
	}

	sagitta := math.Abs(bulge) * chord / 2
	radius := (chord*chord/(4*sagitta) + sagitta) / 2

	perpX, perpY := -dy/chord, dx/chord
	if bulge > 0 {
		perpX, perpY = -perpX, -perpY
	}
	dist := radius - sagitta
	cx, cy := mx+perpX*dist, my+perpY*dist

	start := math.Atan2(p1.Y-cy, p1.X-cx)
	end := math.Atan2(p2.Y-cy, p2.X-cx)
	if bulge < 0 && end > start {
		end -= 2 * math.Pi
	}
	if bulge > 0 && end < start {
		end += 2 * math.Pi
	}

	pts := make(outline, 0, steps+1)
	for i := 0; i <= steps; i++ {
		a := start + float64(i)/float64(steps)*(end-start)
		pts = append(pts, point{X: cx + radius*math.Cos(a), Y: cy + radius*math.Sin(a)})
	}
	return pts
}

// circleToOutline approximates a circle as a regular polygon.
func circleToOutline(c *entity.Circle, steps int) outline {
	o := make(outline, steps)
	for i := range o {
		a := 2 * math.Pi * float64(i) / float64(steps)
		o[i] = point{X: c.Center[0] + c.Radius*math.Cos(a), Y: c.Center[1] + c.Radius*math.Sin(a)}
	}
	return o
}

// arcToPoints samples an ARC entity counter-clockwise from its start angle.
func arcToPoints(a *entity.Arc, steps int) []point {
	cx, cy, r := a.Circle.Center[0], a.Circle.Center[1], a.Circle.Radius
	start := a.Angle[0] * math.Pi / 180
	end := a.Angle[1] * math.Pi / 180
	if end <= start {
		end += 2 * math.Pi
	}

	pts := make([]point, steps+1)
	for i := range pts {
		t := start + float64(i)/float64(steps)*(end-start)
		pts[i] = point{X: cx + r*math.Cos(t), Y: cy + r*math.Sin(t)}
	}
	return pts
}

func pointsToSegments(pts []point) []segment {
	segs := make([]segment, 0, len(pts)-1)
	for i := 0; i < len(pts)-1; i++ {
		segs = append(segs, segment{start: pts[i], end: pts[i+1]})
	}
	return segs
}

// chainSegments connects segments whose endpoints lie within tolerance into
// closed outlines, largest first. Open chains are dropped.
func chainSegments(segs []segment, tolerance float64) []outline {
	used := make([]bool, len(segs))
	var outlines []outline

	for first := range segs {
		if used[first] {
			continue
		}
		used[first] = true
		chain := outline{segs[first].start, segs[first].end}

		for extended := true; extended; {
			extended = false
			tail := chain[len(chain)-1]
			for i, seg := range segs {
				if used[i] {
					continue
				}
				switch {
				case pointsClose(tail, seg.start, tolerance):
					chain = append(chain, seg.end)
				case pointsClose(tail, seg.end, tolerance):
					chain = append(chain, seg.start)
				default:
					continue
				}
				used[i] = true
				extended = true
				break
			}
		}

		if len(chain) < 4 || !pointsClose(chain[0], chain[len(chain)-1], tolerance) {
			continue
		}
		outlines = append(outlines, chain[:len(chain)-1])
	}

	sort.SliceStable(outlines, func(i, j int) bool {
		return outlines[i].area() > outlines[j].area()
	})
	return outlines
}

func pointsClose(a, b point, tolerance float64) bool {
	return math.Hypot(a.X-b.X, a.Y-b.Y) <= tolerance
}
