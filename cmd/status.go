package cmd

import (
	"github.com/spf13/cobra"

	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/orchestrator"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/registry"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/types"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/logger"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status [types...]",
	Short: "Show dependency status without installing anything",
	Long: `Status detects each dependency and reports what is installed. It never
downloads or installs. Without arguments every supported dependency is
checked.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringP("project", "p", ".", "project directory")
}

func runStatus(cmd *cobra.Command, args []string) error {
	app, err := appConfig(cmd)
	if err != nil {
		return err
	}
	projectFlag, _ := cmd.Flags().GetString("project")
	project, err := projectPath(projectFlag)
	if err != nil {
		return err
	}

	deps := types.AllDependencyTypes()
	if len(args) > 0 {
		if deps, err = requestedTypes(cmd, project, args); err != nil {
			return err
		}
	}

	env, err := app.Env(project)
	if err != nil {
		return err
	}
	manager := orchestrator.New(registry.New(env), logger.NewNoOpDepsLogger(), app.Telemetry)
	statuses, err := manager.GetStatus(cmd.Context(), deps)
	if err != nil {
		return err
	}

	return writeOutput(cmd.OutOrStdout(), app.Config.Output.Format, statuses, func() string {
		return ui.RenderStatuses(statuses, app.Config.Output.Color)
	})
}
