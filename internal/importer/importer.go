// Package importer reads piece lists and sheet stock from CSV, Excel and
// DXF files. Delimiters are detected automatically and columns are mapped
// by case-insensitive header names.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/cutplan/internal/model"
)

// Kind selects what a tabular file describes.
type Kind int

const (
	KindPieces Kind = iota
	KindSheets
)

func (k Kind) String() string {
	if k == KindSheets {
		return "sheets"
	}
	return "pieces"
}

// ImportResult holds the rows that parsed and a message for each that did not.
// Errors are per row; a non-empty Errors does not void the parsed rows.
type ImportResult struct {
	Pieces   []model.PieceDemand
	Sheets   []model.SheetType
	Errors   []string
	Warnings []string
}

// OK reports whether anything usable was imported.
func (r ImportResult) OK() bool {
	return len(r.Pieces)+len(r.Sheets) > 0
}

// ColumnMapping maps semantic column roles to their indices in the data.
// -1 means the column is absent.
type ColumnMapping struct {
	Label    int
	Width    int
	Height   int
	Quantity int
	Grain    int
	Priority int
	Material int
	Cost     int
}

func emptyMapping() ColumnMapping {
	return ColumnMapping{-1, -1, -1, -1, -1, -1, -1, -1}
}

// positionalMapping is used when the first row is not a header:
// Label, Width, Height, Quantity, Grain, then Priority for pieces or
// Cost for sheets.
func positionalMapping(kind Kind) ColumnMapping {
	m := ColumnMapping{Label: 0, Width: 1, Height: 2, Quantity: 3, Grain: 4, Priority: -1, Material: -1, Cost: -1}
	if kind == KindSheets {
		m.Cost = 5
	} else {
		m.Priority = 5
	}
	return m
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"label":    {"label", "name", "part", "part name", "description", "desc", "piece", "item", "sheet"},
	"width":    {"width", "w", "length", "len", "x"},
	"height":   {"height", "h", "depth", "d", "y"},
	"quantity": {"quantity", "qty", "count", "num", "amount", "pcs", "pieces", "stock"},
	"grain":    {"grain", "grain direction", "direction", "grain dir", "has grain"},
	"priority": {"priority", "prio", "rank"},
	"material": {"material", "material type", "mat", "stock type"},
	"cost":     {"cost", "price", "cost per sheet", "unit cost"},
}

// headerRoles fixes the order roles are tried in, so a cell that is an
// alias for two roles always resolves the same way.
var headerRoles = []string{"label", "width", "height", "quantity", "grain", "priority", "material", "cost"}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		records, err := readCSV(bytes.NewReader(data), delim)
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		// Prefer delimiters with higher consistency and more columns
		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

func readCSV(r io.Reader, delimiter rune) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

// DetectColumns examines a header row and returns a ColumnMapping.
// Returns the mapping and true if a header was detected, or the positional
// mapping for kind and false if no header was found.
func DetectColumns(row []string, kind Kind) (ColumnMapping, bool) {
	mapping := emptyMapping()
	slots := map[string]*int{
		"label":    &mapping.Label,
		"width":    &mapping.Width,
		"height":   &mapping.Height,
		"quantity": &mapping.Quantity,
		"grain":    &mapping.Grain,
		"priority": &mapping.Priority,
		"material": &mapping.Material,
		"cost":     &mapping.Cost,
	}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
	roles:
		for _, role := range headerRoles {
			for _, alias := range headerAliases[role] {
				if normalized != alias {
					continue
				}
				isHeader = true
				if slot := slots[role]; *slot == -1 {
					*slot = i
				}
				break roles
			}
		}
	}

	if !isHeader {
		return positionalMapping(kind), false
	}
	return mapping, true
}

// parseSheetGrain reads a yes/no grain flag for sheet stock.
func parseSheetGrain(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1", "grain", "long":
		return true, true
	case "", "no", "n", "false", "0", "none", "-":
		return false, true
	default:
		return false, false
	}
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// dimensions holds the columns pieces and sheets have in common.
type dimensions struct {
	label    string
	width    float64
	height   float64
	quantity int
}

func parseDimensions(row []string, mapping ColumnMapping, rowLabel string) (dimensions, string) {
	var d dimensions
	d.label = getCell(row, mapping.Label)

	widthStr := getCell(row, mapping.Width)
	if widthStr == "" {
		return d, fmt.Sprintf("%s: Missing width value", rowLabel)
	}
	width, err := strconv.ParseFloat(widthStr, 64)
	if err != nil {
		return d, fmt.Sprintf("%s: Invalid width '%s'", rowLabel, widthStr)
	}

	heightStr := getCell(row, mapping.Height)
	if heightStr == "" {
		return d, fmt.Sprintf("%s: Missing height value", rowLabel)
	}
	height, err := strconv.ParseFloat(heightStr, 64)
	if err != nil {
		return d, fmt.Sprintf("%s: Invalid height '%s'", rowLabel, heightStr)
	}

	qtyStr := getCell(row, mapping.Quantity)
	if qtyStr == "" {
		return d, fmt.Sprintf("%s: Missing quantity value", rowLabel)
	}
	qty, err := strconv.Atoi(qtyStr)
	if err != nil {
		return d, fmt.Sprintf("%s: Invalid quantity '%s'", rowLabel, qtyStr)
	}

	if width <= 0 || height <= 0 || qty <= 0 {
		return d, fmt.Sprintf("%s: Width, height, and quantity must be positive", rowLabel)
	}

	d.width, d.height, d.quantity = width, height, qty
	return d, ""
}

// parsePieceRow extracts a PieceDemand from a row.
// Returns the piece, any error message, and any warnings.
func parsePieceRow(row []string, mapping ColumnMapping, rowLabel string, count int) (model.PieceDemand, string, []string) {
	d, errMsg := parseDimensions(row, mapping, rowLabel)
	if errMsg != "" {
		return model.PieceDemand{}, errMsg, nil
	}
	if d.label == "" {
		d.label = fmt.Sprintf("Piece %d", count+1)
	}

	piece := model.NewPieceDemand(d.label, d.width, d.height, d.quantity)
	piece.Material = getCell(row, mapping.Material)

	var warnings []string
	if grainStr := getCell(row, mapping.Grain); grainStr != "" {
		if grain, ok := model.ParseGrain(grainStr); ok {
			piece.Grain = grain
		} else {
			warnings = append(warnings, fmt.Sprintf("%s: Unknown grain direction '%s', defaulting to none", rowLabel, grainStr))
		}
	}
	if prioStr := getCell(row, mapping.Priority); prioStr != "" {
		if prio, err := strconv.Atoi(prioStr); err == nil {
			piece.Priority = prio
		} else {
			warnings = append(warnings, fmt.Sprintf("%s: Invalid priority '%s', ignoring", rowLabel, prioStr))
		}
	}

	return piece, "", warnings
}

// parseSheetRow extracts a SheetType from a row.
func parseSheetRow(row []string, mapping ColumnMapping, rowLabel string, count int) (model.SheetType, string, []string) {
	d, errMsg := parseDimensions(row, mapping, rowLabel)
	if errMsg != "" {
		return model.SheetType{}, errMsg, nil
	}
	if d.label == "" {
		d.label = fmt.Sprintf("Sheet %d", count+1)
	}

	sheet := model.NewSheetType(d.label, d.width, d.height, d.quantity)
	sheet.Material = getCell(row, mapping.Material)

	var warnings []string
	if grainStr := getCell(row, mapping.Grain); grainStr != "" {
		if grain, ok := parseSheetGrain(grainStr); ok {
			sheet.HasGrain = grain
		} else {
			warnings = append(warnings, fmt.Sprintf("%s: Unknown grain flag '%s', assuming no grain", rowLabel, grainStr))
		}
	}
	if costStr := getCell(row, mapping.Cost); costStr != "" {
		costStr = strings.TrimLeft(costStr, "$€£")
		if cost, err := decimal.NewFromString(costStr); err == nil && !cost.IsNegative() {
			sheet.CostPerSheet = cost
		} else {
			warnings = append(warnings, fmt.Sprintf("%s: Invalid cost '%s', using 0", rowLabel, costStr))
		}
	}

	return sheet, "", warnings
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCSV imports pieces or sheets from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
func ImportCSV(path string, kind Kind) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	records, err := readCSV(bytes.NewReader(data), delimiter)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}
	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, kind, "Line", result.Warnings)
}

// ImportCSVFromReader imports from a CSV reader with a known delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune, kind Kind) ImportResult {
	result := ImportResult{}

	records, err := readCSV(reader, delimiter)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}
	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, kind, "Line", nil)
}

// ImportExcel imports from the first worksheet of an .xlsx file.
func ImportExcel(path string, kind Kind) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}
	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, kind, "Row", nil)
}

// ImportFile picks the reader by file extension.
func ImportFile(path string, kind Kind) ImportResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ImportExcel(path, kind)
	case ".dxf":
		if kind == KindSheets {
			return ImportResult{Errors: []string{"DXF files can only supply pieces"}}
		}
		return ImportDXF(path)
	default:
		return ImportCSV(path, kind)
	}
}

// importFromRows is the shared import logic for both CSV and Excel data.
func importFromRows(rows [][]string, kind Kind, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{
		Warnings: initialWarnings,
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0], kind)
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		missing := []string{}
		if mapping.Width == -1 {
			missing = append(missing, "Width")
		}
		if mapping.Height == -1 {
			missing = append(missing, "Height")
		}
		if mapping.Quantity == -1 {
			missing = append(missing, "Quantity")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if len(rows[0]) >= 3 {
		// An unrecognized header still looks non-numeric in the width column
		if _, err := strconv.ParseFloat(strings.TrimSpace(rows[0][1]), 64); err != nil {
			startRow = 1
			result.Warnings = append(result.Warnings, "Detected header row, skipping")
		}
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)

		var errMsg string
		var warnings []string
		if kind == KindSheets {
			var sheet model.SheetType
			sheet, errMsg, warnings = parseSheetRow(row, mapping, rowLabel, len(result.Sheets))
			if errMsg == "" {
				result.Sheets = append(result.Sheets, sheet)
			}
		} else {
			var piece model.PieceDemand
			piece, errMsg, warnings = parsePieceRow(row, mapping, rowLabel, len(result.Pieces))
			if errMsg == "" {
				result.Pieces = append(result.Pieces, piece)
			}
		}

		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		result.Warnings = append(result.Warnings, warnings...)
	}

	return result
}
