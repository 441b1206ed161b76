package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/cutplan/internal/project"
)

func newBackupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or restore the config and stock library",
	}

	exportCmd := &cobra.Command{
		Use:   "export <file.json>",
		Short: "Write config and stock library to one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := project.LoadStock(a.stockPath())
			if err != nil {
				return err
			}
			if err := project.ExportAllData(args[0], a.config, lib); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backed up config and %d stock sheet(s) to %s\n", len(lib.Sheets), args[0])
			return nil
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Replace config and stock library with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backup, err := project.ImportAllData(args[0])
			if err != nil {
				return err
			}
			if err := project.SaveStock(a.stockPath(), backup.Stock); err != nil {
				return fmt.Errorf("restoring stock: %w", err)
			}
			a.config = backup.Config
			a.dirty = true
			a.logger.Info("restored backup", "version", backup.Version, "created", backup.CreatedAt)
			fmt.Fprintf(cmd.OutOrStdout(), "Restored config and %d stock sheet(s)\n", len(backup.Stock.Sheets))
			return nil
		},
	}

	cmd.AddCommand(exportCmd, importCmd)
	return cmd
}
