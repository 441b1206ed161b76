package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/piwi3910/cutplan/internal/logging"
	"github.com/piwi3910/cutplan/internal/model"
	"github.com/piwi3910/cutplan/internal/project"
)

// app is the state shared by every command once the root has parsed its
// persistent flags.
type app struct {
	configPath string
	logLevel   string
	units      string
	plain      bool

	config model.AppConfig
	logger *slog.Logger
	dirty  bool // config changed and must be saved
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "cutplan",
		Short: "Plan guillotine cuts of rectangular pieces from sheet stock",
		Long: `cutplan packs the pieces of a request file onto the available sheets so
every piece comes out with straight, edge-to-edge cuts, and prints the
layouts together with step-by-step cutting instructions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.saveConfig()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", project.DefaultConfigPath(), "Path to the cutplan config file")
	flags.StringVar(&a.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.StringVar(&a.units, "units", "", "Display units for reports (in, mm); defaults to the config")
	flags.BoolVar(&a.plain, "plain", false, "Print plain Markdown even on a terminal")

	root.AddCommand(
		newOptimizeCmd(a),
		newCompareCmd(a),
		newLabelsCmd(a),
		newEstimateCmd(a),
		newImportCmd(a),
		newStockCmd(a),
		newBackupCmd(a),
		newConfigCmd(a),
	)
	return root
}

func (a *app) init() error {
	level, err := logging.ParseLevel(a.logLevel)
	if err != nil {
		return err
	}
	a.logger = logging.New(level)

	config, err := project.LoadAppConfig(a.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.config = config
	if a.units == "" {
		a.units = config.Units
	}
	a.logger.Debug("config loaded", "path", a.configPath, "units", a.units)
	return nil
}

func (a *app) saveConfig() error {
	if !a.dirty {
		return nil
	}
	if err := project.SaveAppConfig(a.configPath, a.config); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	a.dirty = false
	return nil
}

func (a *app) stockPath() string {
	return project.StockPath(a.configPath)
}

// loadRequest reads a request file. A request that lists no sheets is
// planned against the stock library.
func (a *app) loadRequest(path string) (model.Request, error) {
	req, err := project.LoadRequest(path, a.config)
	if err != nil {
		return model.Request{}, err
	}

	if len(req.Sheets) == 0 {
		lib, err := project.LoadStock(a.stockPath())
		if err != nil {
			return model.Request{}, err
		}
		if len(lib.Sheets) == 0 {
			return model.Request{}, fmt.Errorf("%s lists no sheets and the stock library is empty", path)
		}
		a.logger.Info("using stock library", "sheets", len(lib.Sheets), "path", a.stockPath())
		req.Sheets = lib.Sheets
	}

	if abs, err := filepath.Abs(path); err == nil {
		a.config.AddRecent(abs)
		a.dirty = true
	}
	return req, nil
}
