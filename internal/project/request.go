package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/piwi3910/cutplan/internal/model"
)

// Format is a request file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the encoding from the file extension. Anything that
// is not .yaml or .yml is treated as JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// NewRequest returns an empty request whose settings start from the
// built-in defaults overlaid with the user's saved config.
func NewRequest(config model.AppConfig) model.Request {
	settings := model.DefaultSettings()
	config.ApplyToSettings(&settings)
	return model.Request{
		Sheets:   []model.SheetType{},
		Pieces:   []model.PieceDemand{},
		Settings: settings,
	}
}

// DecodeRequest reads a request. Settings absent from the input keep the
// values seeded from config.
func DecodeRequest(r io.Reader, format Format, config model.AppConfig) (model.Request, error) {
	req := NewRequest(config)
	data, err := io.ReadAll(r)
	if err != nil {
		return model.Request{}, fmt.Errorf("reading request: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return model.Request{}, fmt.Errorf("request is empty")
	}

	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &req)
	default:
		err = json.Unmarshal(data, &req)
	}
	if err != nil {
		return model.Request{}, fmt.Errorf("decoding %s request: %w", format, err)
	}
	return req, nil
}

// LoadRequest reads a .json, .yaml or .yml request file.
func LoadRequest(path string, config model.AppConfig) (model.Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Request{}, fmt.Errorf("opening request: %w", err)
	}
	defer f.Close()

	req, err := DecodeRequest(f, FormatForPath(path), config)
	if err != nil {
		return model.Request{}, fmt.Errorf("%s: %w", path, err)
	}
	return req, nil
}

// EncodeRequest writes req in the given format.
func EncodeRequest(w io.Writer, req model.Request, format Format) error {
	if format == FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(req); err != nil {
			return fmt.Errorf("encoding yaml request: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(req); err != nil {
		return fmt.Errorf("encoding json request: %w", err)
	}
	return nil
}

// SaveRequest writes req to path, choosing the encoding from the extension.
func SaveRequest(path string, req model.Request) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := EncodeRequest(&buf, req, FormatForPath(path)); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
