package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piwi3910/cutplan/internal/model"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the defaults new requests start from",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the current config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(a.config)
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a default (mode, kerf, min-offcut, grain, kerf-policy, feed-rate, setup-minutes, units)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := setConfigValue(&a.config, args[0], args[1]); err != nil {
				return err
			}
			// Reject values the optimizer would refuse later
			settings := model.DefaultSettings()
			a.config.ApplyToSettings(&settings)
			if err := settings.Validate(); err != nil {
				return err
			}
			a.dirty = true
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
			return nil
		},
	}

	cmd.AddCommand(show, set)
	return cmd
}

func setConfigValue(c *model.AppConfig, key, value string) error {
	number := func() (float64, error) {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil || v <= 0 {
			return 0, fmt.Errorf("%s must be a positive number, got %q", key, value)
		}
		return v, nil
	}

	var err error
	switch strings.ToLower(key) {
	case "mode":
		c.DefaultMode = model.Mode(strings.ToLower(value))
	case "kerf":
		c.DefaultKerfWidth, err = number()
	case "min-offcut":
		c.DefaultMinOffcut, err = number()
	case "grain":
		c.DefaultGrainImportance = model.GrainImportance(strings.ToLower(value))
	case "kerf-policy":
		c.DefaultKerfPolicy = model.KerfPolicy(strings.ToLower(value))
	case "feed-rate":
		c.DefaultFeedRate, err = number()
	case "setup-minutes":
		c.DefaultSetupMinutes, err = number()
	case "units":
		switch u := strings.ToLower(value); u {
		case model.UnitsInches, model.UnitsMillimeters:
			c.Units = u
		default:
			return fmt.Errorf("units must be %q or %q, got %q", model.UnitsInches, model.UnitsMillimeters, value)
		}
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return err
}
