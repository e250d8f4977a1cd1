package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jxucoder/shoplite/internal/config"
)

// configKey describes a single configuration value.
type configKey struct {
	Key     string
	Desc    string
	Default string
}

// allConfigKeys lists every configurable value in display order.
var allConfigKeys = []configKey{
	{config.KeyBaseURL, "Chat service base URL", config.DefaultBaseURL},
	{config.KeyTimeout, "Per-request timeout (e.g. 30s, 2m; 0 = none)", "0"},
}

// ---------------------------------------------------------------------------
// Cobra commands
// ---------------------------------------------------------------------------

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage Shoplite configuration",
		Long: `Manage Shoplite configuration.

Configuration is stored in ~/.shoplite/config.env and can be overridden
by environment variables.

  shoplite config set KEY VALUE      Set a single config value
  shoplite config show               Show current configuration
  shoplite config path               Print config file path`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set KEY VALUE",
			Short: "Set a config value",
			Long: `Set a single configuration value. Example:
  shoplite config set SHOPLITE_BASE_URL http://localhost:5000`,
			Args: cobra.ExactArgs(2),
			RunE: runConfigSet,
		},
		&cobra.Command{
			Use:   "show",
			Short: "Show current configuration",
			Args:  cobra.NoArgs,
			RunE:  runConfigShow,
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print config file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), config.FilePath())
				return nil
			},
		},
	)
	return cmd
}

// validateValue rejects values Load would silently ignore or Validate reject.
func validateValue(key, value string) error {
	switch key {
	case config.KeyBaseURL:
		return (&config.Config{BaseURL: value}).Validate()
	case config.KeyTimeout:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must not be negative", key)
		}
	}
	return nil
}

// runConfigSet sets a single key=value in the config file.
func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	if err := validateValue(key, value); err != nil {
		return err
	}

	path := config.FilePath()
	fileValues, err := config.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	fileValues[key] = value

	if err := config.WriteFile(path, fileValues); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
	return nil
}

// runConfigShow displays the current effective configuration.
func runConfigShow(cmd *cobra.Command, args []string) error {
	path := config.FilePath()
	fileValues, err := config.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config file: %s\n\n", path)

	for _, ck := range allConfigKeys {
		value := ck.Default
		source := " (default)"
		if v := os.Getenv(ck.Key); v != "" {
			value, source = v, " (from env)"
		} else if v := fileValues[ck.Key]; v != "" {
			value, source = v, " (from config file)"
		}
		fmt.Fprintf(out, "  %-20s %s%s\n", ck.Key, value, source)
		fmt.Fprintf(out, "  %-20s %s\n", "", ck.Desc)
	}
	return nil
}
