package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/piwi3910/cutplan/internal/model"
)

// StockLibrary is the user's saved sheet stock. Requests without sheets
// are planned against it.
type StockLibrary struct {
	Sheets []model.SheetType `json:"sheets"`
}

// StockPath returns the stock library file kept next to a config file.
func StockPath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), "stock.json")
}

// SaveStock writes the library as JSON, creating parent directories.
func SaveStock(path string, lib StockLibrary) error {
	return writeJSON(path, lib)
}

// LoadStock reads the library. A missing file is an empty library.
func LoadStock(path string) (StockLibrary, error) {
	lib := StockLibrary{Sheets: []model.SheetType{}}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lib, nil
		}
		return StockLibrary{}, fmt.Errorf("reading stock: %w", err)
	}
	if err := json.Unmarshal(data, &lib); err != nil {
		return StockLibrary{}, fmt.Errorf("parsing stock %s: %w", path, err)
	}
	if lib.Sheets == nil {
		lib.Sheets = []model.SheetType{}
	}
	return lib, nil
}

// Merge adds sheets not already in the library. A sheet matches an existing
// entry by ID, or by label and size when either has no ID; matching entries
// take the incoming quantity and cost. It returns how many were added.
func (l *StockLibrary) Merge(sheets []model.SheetType) int {
	added := 0
	for _, s := range sheets {
		if i := l.indexOf(s); i >= 0 {
			l.Sheets[i].Quantity = s.Quantity
			l.Sheets[i].CostPerSheet = s.CostPerSheet
			continue
		}
		l.Sheets = append(l.Sheets, s)
		added++
	}
	return added
}

func (l *StockLibrary) indexOf(s model.SheetType) int {
	for i, e := range l.Sheets {
		if s.ID != "" && e.ID == s.ID {
			return i
		}
		if strings.EqualFold(e.Label, s.Label) && e.Width == s.Width && e.Height == s.Height {
			return i
		}
	}
	return -1
}

// FindByLabel returns the first sheet with the given label, ignoring case.
func (l StockLibrary) FindByLabel(label string) (model.SheetType, bool) {
	for _, s := range l.Sheets {
		if strings.EqualFold(s.Label, label) {
			return s, true
		}
	}
	return model.SheetType{}, false
}

// Labels lists the sheet labels in library order.
func (l StockLibrary) Labels() []string {
	labels := make([]string, len(l.Sheets))
	for i, s := range l.Sheets {
		labels[i] = s.Label
	}
	return labels
}
