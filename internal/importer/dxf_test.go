package importer

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/yofu/dxf"
)

func rectSegments(x, y, w, h float64) []segment {
	a, b, c, d := point{x, y}, point{x + w, y}, point{x + w, y + h}, point{x, y + h}
	// Deliberately out of order and with one reversed edge
	return []segment{{a, b}, {c, d}, {c, b}, {d, a}}
}

func TestChainSegments_ClosesRectangles(t *testing.T) {
	segs := append(rectSegments(0, 0, 10, 5), rectSegments(20, 20, 30, 40)...)
	outlines := chainSegments(segs, 0.01)

	if len(outlines) != 2 {
		t.Fatalf("expected 2 outlines, got %d", len(outlines))
	}
	if got := outlines[0].area(); math.Abs(got-1200) > 1e-9 {
		t.Errorf("largest outline should come first, got area %v", got)
	}
	lo, hi := outlines[1].bounds()
	if lo != (point{0, 0}) || hi != (point{10, 5}) {
		t.Errorf("unexpected bounds %v %v", lo, hi)
	}
}

func TestChainSegments_DropsOpenChains(t *testing.T) {
	open := []segment{{point{0, 0}, point{5, 0}}, {point{5, 0}, point{5, 5}}}
	if got := chainSegments(open, 0.01); len(got) != 0 {
		t.Errorf("expected no outlines, got %d", len(got))
	}
}

func TestBulgeArcPoints_Semicircle(t *testing.T) {
	pts := bulgeArcPoints(point{0, 0}, point{10, 0}, 1, 16)
	if len(pts) != 17 {
		t.Fatalf("expected 17 points, got %d", len(pts))
	}
	for _, p := range pts {
		if r := math.Hypot(p.X-5, p.Y); math.Abs(r-5) > 1e-9 {
			t.Fatalf("point %v is off the circle (r=%v)", p, r)
		}
	}
}

func TestImportDXF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pieces.dxf")

	d := dxf.NewDrawing()
	corners := [][2]float64{{10, 10}, {40, 10}, {40, 30}, {10, 30}}
	for i := range corners {
		a, b := corners[i], corners[(i+1)%len(corners)]
		if _, err := d.Line(a[0], a[1], 0, b[0], b[1], 0); err != nil {
			t.Fatalf("line: %v", err)
		}
	}
	if _, err := d.Circle(100, 100, 0, 6); err != nil {
		t.Fatalf("circle: %v", err)
	}
	if err := d.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	result := ImportDXF(path)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Pieces) != 2 {
		t.Fatalf("expected 2 pieces, got %d", len(result.Pieces))
	}

	var rect, disc bool
	for _, p := range result.Pieces {
		switch {
		case math.Abs(p.Width-30) < 1e-6 && math.Abs(p.Height-20) < 1e-6:
			rect = true
		case math.Abs(p.Width-12) < 1e-6 && math.Abs(p.Height-12) < 1e-6:
			disc = true
		}
		if p.Quantity != 1 {
			t.Errorf("expected quantity 1, got %d", p.Quantity)
		}
	}
	if !rect || !disc {
		t.Errorf("expected a 30 x 20 and a 12 x 12 piece, got %+v", result.Pieces)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("expected one bounding box warning for the circle, got %v", result.Warnings)
	}
}

func TestImportDXF_Missing(t *testing.T) {
	if r := ImportDXF("/nonexistent/file.dxf"); len(r.Errors) == 0 {
		t.Error("expected error for nonexistent file")
	}
}
