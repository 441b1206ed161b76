package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/piwi3910/cutplan/internal/model"
)

// WriteJSON encodes the plan as indented JSON.
func WriteJSON(w io.Writer, plan model.CuttingPlan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(plan); err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}
	return nil
}

// ExportJSON writes the plan to path, creating parent directories.
func ExportJSON(path string, plan model.CuttingPlan) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteJSON(f, plan); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
