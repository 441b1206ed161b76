package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piwi3910/cutplan/internal/importer"
	"github.com/piwi3910/cutplan/internal/project"
)

func newImportCmd(a *app) *cobra.Command {
	var (
		sheetsPath string
		out        string
		delimiter  string
	)

	cmd := &cobra.Command{
		Use:   "import <pieces.(csv|xlsx|dxf)>",
		Short: "Build a request file from a piece list and optional sheet list",
		Long: `Reads pieces from CSV, Excel or DXF and, with --sheets, the stock from CSV or
Excel, then writes a request file seeded with the configured defaults.
Without --sheets the request is planned against the stock library.
Use - to read a CSV piece list from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := project.NewRequest(a.config)

			var pieces importer.ImportResult
			var err error
			if args[0] == "-" {
				delim := []rune(delimiter)
				if len(delim) != 1 {
					return fmt.Errorf("delimiter must be a single character, got %q", delimiter)
				}
				result := importer.ImportCSVFromReader(cmd.InOrStdin(), delim[0], importer.KindPieces)
				pieces, err = checkImport(a.logger, "stdin", importer.KindPieces, result)
			} else {
				pieces, err = importFile(a.logger, args[0], importer.KindPieces)
			}
			if err != nil {
				return err
			}
			req.Pieces = pieces.Pieces

			if sheetsPath != "" {
				sheets, err := importFile(a.logger, sheetsPath, importer.KindSheets)
				if err != nil {
					return err
				}
				req.Sheets = sheets.Sheets
			}

			if err := project.SaveRequest(out, req); err != nil {
				return fmt.Errorf("writing request: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s with %d piece rows and %d sheet rows\n", out, len(req.Pieces), len(req.Sheets))
			return nil
		},
	}
	cmd.Flags().StringVar(&sheetsPath, "sheets", "", "CSV or Excel file listing the sheet stock")
	cmd.Flags().StringVarP(&out, "out", "o", "request.yaml", "Request file to write (.yaml, .yml or .json)")
	cmd.Flags().StringVar(&delimiter, "delimiter", ",", "CSV delimiter when reading from standard input")
	return cmd
}

// importFile runs the importer and logs every row message. Row errors are
// tolerated as long as something was imported.
func importFile(logger *slog.Logger, path string, kind importer.Kind) (importer.ImportResult, error) {
	return checkImport(logger, path, kind, importer.ImportFile(path, kind))
}

func checkImport(logger *slog.Logger, path string, kind importer.Kind, result importer.ImportResult) (importer.ImportResult, error) {
	for _, w := range result.Warnings {
		logger.Warn(w, "file", path)
	}
	for _, e := range result.Errors {
		logger.Error(e, "file", path)
	}
	if !result.OK() {
		if len(result.Errors) > 0 {
			return result, fmt.Errorf("importing %s from %s: %s", kind, path, strings.Join(result.Errors, "; "))
		}
		return result, fmt.Errorf("no %s found in %s", kind, path)
	}
	logger.Info("imported", "kind", kind.String(), "file", path, "rows", len(result.Pieces)+len(result.Sheets))
	return result, nil
}
