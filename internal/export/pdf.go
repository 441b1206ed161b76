// Package export writes cutting plans to PDF cut sheets, QR-coded piece
// labels and JSON.
package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/cutplan/internal/model"
)

// ErrEmptyPlan is returned when a plan has no sheets to draw.
var ErrEmptyPlan = errors.New("plan has no sheets")

// pieceColor represents an RGB fill for a placed piece.
type pieceColor struct {
	R, G, B int
}

var pieceColors = []pieceColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	legendHeight = 18.0
	drawAreaTop  = marginTop + headerHeight + 5.0
	contentWidth = pageWidth - marginLeft - marginRight
)

// ExportPDF writes the plan to path. Each sheet gets a layout page with its
// cut lines numbered in sequence, followed by its instructions; a summary
// page closes the document.
func ExportPDF(path string, plan model.CuttingPlan, units string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePDF(f, plan, units); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WritePDF renders the plan document to w.
func WritePDF(w io.Writer, plan model.CuttingPlan, units string) error {
	if len(plan.Layouts) == 0 {
		return ErrEmptyPlan
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, layout := range plan.Layouts {
		pdf.AddPage()
		renderLayoutPage(pdf, tr, layout, units)
		renderInstructions(pdf, tr, layout.SheetIndex, plan.Instructions)
	}

	pdf.AddPage()
	renderSummaryPage(pdf, tr, plan, units)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	return nil
}

// canvas maps sheet coordinates to page coordinates.
type canvas struct {
	scale, x, y, w, h float64
}

func (c canvas) rect(x, y, w, h float64) (float64, float64, float64, float64) {
	return c.x + x*c.scale, c.y + y*c.scale, w * c.scale, h * c.scale
}

func fitCanvas(width, height float64) canvas {
	drawW := contentWidth
	drawH := pageHeight - drawAreaTop - marginBottom - legendHeight
	scale := math.Min(drawW/width, drawH/height)
	c := canvas{scale: scale, w: width * scale, h: height * scale}
	c.x = marginLeft + (drawW-c.w)/2
	c.y = drawAreaTop
	return c
}

// renderLayoutPage draws one sheet with its pieces, offcuts and cut lines.
func renderLayoutPage(pdf *fpdf.Fpdf, tr func(string) string, layout model.Layout, units string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Sheet %d: %s (%s)", layout.SheetIndex, layout.SheetLabel,
		model.FormatSize(layout.Width, layout.Height, units))
	pdf.CellFormat(contentWidth, headerHeight, tr(title), "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Pieces: %d | Cuts: %d | Waste: %.2f%% | Kerf loss: %s",
		len(layout.Pieces), len(layout.Cuts), layout.WastePercentage, model.FormatNumber(layout.KerfArea))
	pdf.CellFormat(contentWidth, 5, stats, "", 0, "L", false, 0, "")

	c := fitCanvas(layout.Width, layout.Height)

	// Sheet background (wood color)
	pdf.SetFillColor(210, 180, 140)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(c.x, c.y, c.w, c.h, "FD")

	for _, o := range layout.Offcuts {
		if !o.Usable {
			continue
		}
		x, y, w, h := c.rect(o.X, o.Y, o.Width, o.Height)
		pdf.SetFillColor(235, 220, 190)
		pdf.SetDrawColor(150, 130, 100)
		pdf.SetLineWidth(0.2)
		pdf.Rect(x, y, w, h, "FD")
		drawHatchPattern(pdf, x, y, w, h)
	}

	for i, p := range layout.Pieces {
		col := pieceColors[i%len(pieceColors)]
		x, y, w, h := c.rect(p.X, p.Y, p.Width, p.Height)

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.3)
		pdf.Rect(x, y, w, h, "FD")

		if w > 15 && h > 8 {
			drawPieceLabel(pdf, tr, p, x, y, w, h)
		}
	}

	drawCutLines(pdf, c, layout.Cuts)
	drawDimensionAnnotations(pdf, tr, layout, units, c)
	drawPieceLegend(pdf, tr, layout, c.y+c.h+5)
}

func drawPieceLabel(pdf *fpdf.Fpdf, tr func(string) string, p model.Placement, x, y, w, h float64) {
	pdf.SetFont("Helvetica", "", labelFontSize(w, h))
	pdf.SetTextColor(0, 0, 0)

	label := tr(p.ID)
	dims := model.FormatNumber(p.Width) + "x" + model.FormatNumber(p.Height)
	if p.Rotated {
		dims += " R"
	}

	if lw := pdf.GetStringWidth(label); lw < w-2 {
		pdf.SetXY(x+(w-lw)/2, y+h/2-4)
		pdf.CellFormat(lw, 4, label, "", 0, "C", false, 0, "")
	}
	if dw := pdf.GetStringWidth(dims); h > 14 && dw < w-2 {
		pdf.SetXY(x+(w-dw)/2, y+h/2)
		pdf.CellFormat(dw, 4, dims, "", 0, "C", false, 0, "")
	}
}

// drawCutLines overlays every cut as a red line with its sequence number
// near the start of the line.
func drawCutLines(pdf *fpdf.Fpdf, c canvas, cuts []model.Cut) {
	pdf.SetDrawColor(220, 20, 20)
	pdf.SetLineWidth(0.35)
	pdf.SetFont("Helvetica", "B", 6)

	for _, cut := range cuts {
		x1, y1, _, _ := c.rect(cut.X1, cut.Y1, 0, 0)
		x2, y2, _, _ := c.rect(cut.X2, cut.Y2, 0, 0)
		pdf.SetDashPattern([]float64{1.5, 0.8}, 0)
		pdf.Line(x1, y1, x2, y2)
		pdf.SetDashPattern([]float64{}, 0)

		// Numbered marker
		pdf.SetFillColor(255, 255, 255)
		pdf.Circle(x1, y1, 2, "FD")
		pdf.SetTextColor(220, 20, 20)
		num := fmt.Sprintf("%d", cut.Sequence)
		nw := pdf.GetStringWidth(num)
		pdf.SetXY(x1-nw/2, y1-1.5)
		pdf.CellFormat(nw, 3, num, "", 0, "C", false, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
}

// drawHatchPattern draws diagonal lines inside a rectangle to mark reusable offcuts.
func drawHatchPattern(pdf *fpdf.Fpdf, x, y, w, h float64) {
	pdf.SetDrawColor(170, 150, 120)
	pdf.SetLineWidth(0.1)

	spacing := 4.0
	for d := spacing; d < w+h; d += spacing {
		x1 := x + math.Max(0, d-h)
		y1 := y + math.Min(h, d)
		x2 := x + math.Min(w, d)
		y2 := y + math.Max(0, d-w)
		pdf.Line(x1, y1, x2, y2)
	}
}

// drawDimensionAnnotations labels the sheet width below and height to the left.
func drawDimensionAnnotations(pdf *fpdf.Fpdf, tr func(string) string, layout model.Layout, units string, c canvas) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)

	widthLabel := tr(model.FormatLength(layout.Width, units))
	ww := pdf.GetStringWidth(widthLabel)
	pdf.SetXY(c.x+(c.w-ww)/2, c.y+c.h+1)
	pdf.CellFormat(ww, 4, widthLabel, "", 0, "C", false, 0, "")

	heightLabel := tr(model.FormatLength(layout.Height, units))
	pdf.TransformBegin()
	pdf.TransformRotate(90, c.x-3, c.y+c.h/2)
	hw := pdf.GetStringWidth(heightLabel)
	pdf.SetXY(c.x-3-hw/2, c.y+c.h/2-2)
	pdf.CellFormat(hw, 4, heightLabel, "", 0, "C", false, 0, "")
	pdf.TransformEnd()

	pdf.SetTextColor(0, 0, 0)
}

func drawPieceLegend(pdf *fpdf.Fpdf, tr func(string) string, layout model.Layout, startY float64) {
	if len(layout.Pieces) == 0 {
		return
	}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, startY)
	pdf.CellFormat(30, 4, "Pieces:", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	xPos := marginLeft + 32
	maxX := pageWidth - marginRight

	for i, p := range layout.Pieces {
		col := pieceColors[i%len(pieceColors)]
		label := fmt.Sprintf("%s (%sx%s)", p.ID, model.FormatNumber(p.Width), model.FormatNumber(p.Height))
		if p.GrainViolation {
			label += " !grain"
		}
		labelW := pdf.GetStringWidth(label) + 6

		if xPos+labelW > maxX {
			startY += 5
			xPos = marginLeft
		}

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(xPos, startY+0.5, 3, 3, "F")
		pdf.SetXY(xPos+4, startY)
		pdf.CellFormat(labelW-4, 4, tr(label), "", 0, "L", false, 0, "")

		xPos += labelW + 2
	}
}

// instruction table columns: step, description, measurement, pieces, notes
var instructionCols = []float64{12, 105, 40, 45, 65}

// renderInstructions lists the steps for one sheet, continuing onto new
// pages as needed.
func renderInstructions(pdf *fpdf.Fpdf, tr func(string) string, sheetIndex int, instructions []model.Instruction) {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(contentWidth, 8, fmt.Sprintf("Sheet %d: cutting sequence", sheetIndex), "", 0, "L", false, 0, "")

	y := instructionHeader(pdf, marginTop+10)
	pdf.SetFont("Helvetica", "", 8)
	const lineH = 4.0

	for _, in := range instructions {
		if in.SheetIndex != sheetIndex {
			continue
		}
		notes := strings.TrimSpace(strings.Join([]string{in.SafetyNote, in.Note}, " "))
		cells := []string{
			fmt.Sprintf("%d", in.Step),
			in.Description,
			in.Measurement,
			strings.Join(in.PiecesProduced, ", "),
			notes,
		}

		lines := 1
		for i, text := range cells {
			if n := len(pdf.SplitLines([]byte(tr(text)), instructionCols[i]-2)); n > lines {
				lines = n
			}
		}
		rowH := float64(lines) * lineH

		if y+rowH > pageHeight-marginBottom {
			pdf.AddPage()
			y = instructionHeader(pdf, marginTop)
			pdf.SetFont("Helvetica", "", 8)
		}

		x := marginLeft
		for i, text := range cells {
			pdf.Rect(x, y, instructionCols[i], rowH, "D")
			pdf.SetXY(x+1, y)
			pdf.MultiCell(instructionCols[i]-2, lineH, tr(text), "", "L", false)
			x += instructionCols[i]
		}
		y += rowH
	}
}

func instructionHeader(pdf *fpdf.Fpdf, y float64) float64 {
	headers := []string{"Step", "Description", "Measurement", "Pieces", "Notes"}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.2)
	x := marginLeft
	for i, h := range headers {
		pdf.SetXY(x, y)
		pdf.CellFormat(instructionCols[i], 6, h, "1", 0, "C", true, 0, "")
		x += instructionCols[i]
	}
	return y + 6
}

// renderSummaryPage draws overall statistics and a per-sheet table.
func renderSummaryPage(pdf *fpdf.Fpdf, tr func(string) string, plan model.CuttingPlan, units string) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(contentWidth, 10, "Cutting Plan Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Overall Statistics", "", 0, "L", false, 0, "")
	y += 9

	s := plan.Statistics
	items := []struct{ label, value string }{
		{"Optimization Mode", string(plan.Mode)},
		{"Sheets Used", fmt.Sprintf("%d", s.SheetsUsed)},
		{"Pieces Placed", fmt.Sprintf("%d", s.PiecesPlaced)},
		{"Total Cuts", fmt.Sprintf("%d", s.TotalCuts)},
		{"Total Cut Length", model.FormatLength(s.TotalCutLength, units)},
		{"Waste", fmt.Sprintf("%.2f%%", s.TotalWastePercentage)},
		{"Largest Offcut", model.FormatSize(s.LargestOffcutWidth, s.LargestOffcutHeight, units)},
		{"Estimated Time", fmt.Sprintf("%s min", model.FormatNumber(s.EstimatedTimeMinutes))},
		{"Material Cost", s.TotalCost.StringFixed(2)},
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range items {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(60, 6, tr(item.value), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}

	y += 5
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Sheet Breakdown", "", 0, "L", false, 0, "")
	y += 9

	colWidths := []float64{18, 60, 50, 25, 25, 35, 35}
	headers := []string{"Sheet", "Stock", "Size", "Pieces", "Cuts", "Waste", "Cost"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	x := marginLeft
	for i, h := range headers {
		pdf.SetXY(x, y)
		pdf.CellFormat(colWidths[i], 6, h, "1", 0, "C", true, 0, "")
		x += colWidths[i]
	}
	y += 6

	pdf.SetFont("Helvetica", "", 9)
	for i, l := range plan.Layouts {
		row := []string{
			fmt.Sprintf("%d", l.SheetIndex),
			l.SheetLabel,
			model.FormatSize(l.Width, l.Height, units),
			fmt.Sprintf("%d", len(l.Pieces)),
			fmt.Sprintf("%d", len(l.Cuts)),
			fmt.Sprintf("%.2f%%", l.WastePercentage),
			l.Cost.StringFixed(2),
		}
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		x = marginLeft
		for j, cell := range row {
			pdf.SetXY(x, y)
			pdf.CellFormat(colWidths[j], 6, tr(cell), "1", 0, "C", true, 0, "")
			x += colWidths[j]
		}
		y += 6
		if y > pageHeight-marginBottom-6 {
			pdf.AddPage()
			y = marginTop
		}
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(contentWidth, 4, fmt.Sprintf("Kerf policy: %s", plan.KerfPolicy), "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// labelFontSize returns an appropriate font size based on the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 8
	case minDim > 20:
		return 7
	default:
		return 6
	}
}
