package cmd

import (
	"github.com/spf13/cobra"

	"github.com/OfficeDev/teams-toolkit-sub010/internal/detector"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/ui"
)

var detectCmd = &cobra.Command{
	Use:   "detect [path]",
	Short: "Detect which dependencies a project needs",
	Long: `Detect inspects the project files (package.json, host.json, *.csproj,
teamsapp.local.yml, .vscode/tasks.json) and source languages to infer the
dependencies that ensure would resolve.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	app, err := appConfig(cmd)
	if err != nil {
		return err
	}
	target := "."
	if len(args) > 0 {
		target = args[0]
	}
	project, err := projectPath(target)
	if err != nil {
		return err
	}

	res, err := detector.Detect(cmd.Context(), project, detector.DefaultRules())
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), app.Config.Output.Format, res, func() string {
		return ui.RenderDetection(res, app.Config.Output.Color)
	})
}
