package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/orchestrator"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/registry"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/types"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/detector"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/logger"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/ui"
)

// ensureCmd represents the ensure command
var ensureCmd = &cobra.Command{
	Use:   "ensure [types...]",
	Short: "Check and install the dependencies a project needs",
	Long: `Ensure checks each requested dependency and installs a private copy under
~/.fx/bin when it is missing. Without arguments the dependencies are detected
from the project.

Example usage:
  devdeps ensure                              # Detect and resolve for the current project
  devdeps ensure func-core-tools test-tool    # Resolve specific dependencies
  devdeps ensure --fast-fail --output json    # Stop installing after the first failure`,
	RunE: runEnsure,
}

func init() {
	rootCmd.AddCommand(ensureCmd)

	ensureCmd.Flags().Bool("fast-fail", false, "only detect the remaining dependencies after the first one fails")
	ensureCmd.Flags().Bool("doctor", false, "suppress installer progress output")
	ensureCmd.Flags().StringP("project", "p", ".", "project directory")
}

func runEnsure(cmd *cobra.Command, args []string) error {
	app, err := appConfig(cmd)
	if err != nil {
		return err
	}
	fastFail, _ := cmd.Flags().GetBool("fast-fail")
	doctor, _ := cmd.Flags().GetBool("doctor")
	projectFlag, _ := cmd.Flags().GetString("project")

	project, err := projectPath(projectFlag)
	if err != nil {
		return err
	}
	deps, err := requestedTypes(cmd, project, args)
	if err != nil {
		return err
	}
	env, err := app.Env(project)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	opts := orchestrator.EnsureOptions{FastFail: fastFail, Doctor: doctor}
	format := app.Config.Output.Format
	reg := registry.New(env)

	var statuses []types.DependencyStatus
	resolve := func(sink logger.Logger) error {
		manager := orchestrator.New(reg, app.DepsLogger(sink), app.Telemetry)
		var e error
		statuses, e = manager.EnsureDependencies(ctx, deps, opts)
		return e
	}

	if format == "text" && logger.IsInteractive() {
		err = ui.RunSpinner(ctx, "Resolving dependencies...", func(progress ui.Progress) error {
			return resolve(ui.ProgressSink{Progress: progress})
		})
	} else if format == "text" {
		err = resolve(app.Logger)
	} else {
		// Keep machine-readable stdout clean
		err = resolve(logger.NewWriterLogger(os.Stderr))
	}
	if err != nil {
		return err
	}

	if err := writeOutput(cmd.OutOrStdout(), format, statuses, func() string {
		return ui.RenderStatuses(statuses, app.Config.Output.Color)
	}); err != nil {
		return err
	}
	return unresolved(statuses)
}

// requestedTypes parses explicit dependency types or detects them from the project.
func requestedTypes(cmd *cobra.Command, project string, args []string) ([]types.DependencyType, error) {
	if len(args) > 0 {
		deps := make([]types.DependencyType, 0, len(args))
		for _, arg := range args {
			t, err := types.ParseDependencyType(arg)
			if err != nil {
				return nil, err
			}
			deps = append(deps, t)
		}
		return deps, nil
	}

	res, err := detector.Detect(cmd.Context(), project, detector.DefaultRules())
	if err != nil {
		return nil, err
	}
	return res.Types(), nil
}

func projectPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
		return "", fmt.Errorf("path does not exist: %s", abs)
	}
	return abs, nil
}

// unresolved reports ErrUnresolved when any status carries an error.
func unresolved(statuses []types.DependencyStatus) error {
	for _, s := range statuses {
		if s.Error != nil {
			return ErrUnresolved
		}
	}
	return nil
}
