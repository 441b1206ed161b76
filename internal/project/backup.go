package project

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/piwi3910/cutplan/internal/model"
)

const backupVersion = "1.0.0"

// BackupData bundles everything under ~/.cutplan into one file.
type BackupData struct {
	Version   string          `json:"version"`
	CreatedAt string          `json:"created_at"`
	Config    model.AppConfig `json:"config"`
	Stock     StockLibrary    `json:"stock"`
}

// ExportAllData writes config and stock to a single JSON file.
func ExportAllData(exportPath string, config model.AppConfig, stock StockLibrary) error {
	backup := BackupData{
		Version:   backupVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Config:    config,
		Stock:     stock,
	}
	if err := writeJSON(exportPath, backup); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	return nil
}

// ImportAllData reads a backup JSON file and returns the contained data.
// The caller is responsible for applying it.
func ImportAllData(importPath string) (BackupData, error) {
	data, err := os.ReadFile(importPath)
	if err != nil {
		return BackupData{}, fmt.Errorf("failed to read backup file: %w", err)
	}
	var backup BackupData
	if err := json.Unmarshal(data, &backup); err != nil {
		return BackupData{}, fmt.Errorf("failed to parse backup file: %w", err)
	}
	if backup.Version == "" {
		return BackupData{}, fmt.Errorf("invalid backup file: missing version field")
	}
	if backup.Config.RecentRequests == nil {
		backup.Config.RecentRequests = []string{}
	}
	if backup.Stock.Sheets == nil {
		backup.Stock.Sheets = []model.SheetType{}
	}
	return backup, nil
}
