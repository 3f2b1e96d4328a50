package cmd

import (
	"github.com/spf13/cobra"

	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/registry"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/types"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/logger"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/ui"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List supported dependency types",
	Long:  `List shows every dependency type devdeps can check, with the versions it supports.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	app, err := appConfig(cmd)
	if err != nil {
		return err
	}
	env, err := app.Env("")
	if err != nil {
		return err
	}
	reg := registry.New(env)

	infos := make([]types.DependencyInfo, 0, len(types.AllDependencyTypes()))
	for _, t := range types.AllDependencyTypes() {
		c, err := reg.CreateChecker(t, logger.NewNoOpDepsLogger(), app.Telemetry)
		if err != nil {
			return err
		}
		info, err := c.GetDepsInfo(cmd.Context())
		if err != nil {
			return err
		}
		infos = append(infos, *info)
	}

	return writeOutput(cmd.OutOrStdout(), app.Config.Output.Format, infos, func() string {
		return ui.RenderDepsInfo(infos, app.Config.Output.Color)
	})
}
