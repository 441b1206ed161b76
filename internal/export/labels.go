package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/cutplan/internal/model"
)

// ErrNoPieces is returned when a plan has no placed pieces to label.
var ErrNoPieces = errors.New("no pieces placed to generate labels for")

// LabelInfo holds the data encoded into each piece label's QR code.
type LabelInfo struct {
	PieceID    string  `json:"id"`
	Label      string  `json:"label"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	SheetIndex int     `json:"sheet"`
	SheetLabel string  `json:"sheet_label"`
	Rotated    bool    `json:"rotated"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
const (
	labelMarginTop  = 12.7 // mm
	labelMarginLeft = 4.8  // mm
	labelWidth      = 66.7 // mm per label
	labelHeight     = 25.4 // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0 // QR code size in mm
	labelPadding    = 2.0  // mm internal padding
)

// ExportLabels writes a PDF of QR-coded labels, one per placed piece, laid
// out on Avery 5160 sheets (3 x 10 on US Letter).
func ExportLabels(path string, plan model.CuttingPlan, units string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteLabels(f, plan, units); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteLabels renders the label document to w.
func WriteLabels(w io.Writer, plan model.CuttingPlan, units string) error {
	if len(plan.Layouts) == 0 {
		return ErrEmptyPlan
	}
	labels := CollectLabelInfos(plan)
	if len(labels) == 0 {
		return ErrNoPieces
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		if err := renderLabel(pdf, tr, x, y, label, units); err != nil {
			return fmt.Errorf("rendering label for %q: %w", label.PieceID, err)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing labels: %w", err)
	}
	return nil
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, tr func(string) string, x, y float64, info LabelInfo, units string) error {
	// Light border as a cutting guide
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshaling label info: %w", err)
	}
	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("generating QR code: %w", err)
	}

	// Piece IDs are unique within a plan
	imgName := "qr_" + info.PieceID
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)
	pdf.CellFormat(textW, 4.5, truncate(pdf, tr(info.PieceID), textW), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	pdf.CellFormat(textW, 3.5, tr(model.FormatSize(info.Width, info.Height, units)), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	where := fmt.Sprintf("Sheet %d @ (%s, %s)", info.SheetIndex, model.FormatNumber(info.X), model.FormatNumber(info.Y))
	pdf.CellFormat(textW, 3, where, "", 1, "L", false, 0, "")

	if info.Rotated {
		pdf.SetXY(textX, y+labelPadding+12.5)
		pdf.SetFont("Helvetica", "I", 6)
		pdf.SetTextColor(150, 100, 0)
		pdf.CellFormat(textW, 3, tr("Rotated 90°"), "", 0, "L", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)
	return nil
}

func truncate(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}

// CollectLabelInfos lists one label per placed piece in sheet order.
func CollectLabelInfos(plan model.CuttingPlan) []LabelInfo {
	var labels []LabelInfo
	for _, layout := range plan.Layouts {
		for _, p := range layout.Pieces {
			labels = append(labels, LabelInfo{
				PieceID:    p.ID,
				Label:      p.Label,
				Width:      p.Width,
				Height:     p.Height,
				SheetIndex: layout.SheetIndex,
				SheetLabel: layout.SheetLabel,
				Rotated:    p.Rotated,
				X:          p.X,
				Y:          p.Y,
			})
		}
	}
	return labels
}
