package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

type contextKey string

// Context key for configuration
const ConfigKey contextKey = "config"

// ErrUnresolved is returned when at least one dependency could not be resolved.
var ErrUnresolved = errors.New("one or more dependencies are not ready")

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "devdeps",
	Short: "Check and install the local toolchain of a Teams app project",
	Long: `devdeps detects, validates and privately installs the external tools a
Teams app project needs for local debugging: Node.js, the .NET SDK, Azure
Functions Core Tools, ngrok, the Teams App Test Tool and the video
extensibility test app.

Portable installs live under ~/.fx/bin and never touch global tool
installations.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadAppConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx as the parent context.
func ExecuteContext(ctx context.Context) error {
	app := &AppConfig{}
	ctx = context.WithValue(ctx, ConfigKey, app)
	err := rootCmd.ExecuteContext(ctx)
	if flushErr := app.Flush(); flushErr != nil && err == nil {
		err = fmt.Errorf("failed to write metrics: %w", flushErr)
	}
	return err
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output format (text, json, yaml)")
	rootCmd.PersistentFlags().String("config", "", "config file (default .devdeps.yaml or $XDG_CONFIG_HOME/devdeps/config.yaml)")
	rootCmd.PersistentFlags().String("metrics-file", "", "write Prometheus metrics to this textfile on exit")
}
