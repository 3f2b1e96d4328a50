package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OfficeDev/teams-toolkit-sub010/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage devdeps configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := appConfig(cmd)
		if err != nil {
			return err
		}
		path := app.ConfigPath
		if len(args) > 0 {
			path = args[0]
		}
		force, _ := cmd.Flags().GetBool("force")
		if _, statErr := os.Stat(path); statErr == nil && !force {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
		if err := config.SaveConfig(config.DefaultConfig(), path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Wrote configuration to %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := appConfig(cmd)
		if err != nil {
			return err
		}
		format := app.Config.Output.Format
		if format == "text" {
			format = "yaml"
		}
		return writeOutput(cmd.OutOrStdout(), format, app.Config, nil)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd)
	configInitCmd.Flags().BoolP("force", "f", false, "overwrite an existing file")
}
