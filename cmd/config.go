package cmd

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/OfficeDev/teams-toolkit-sub010/internal/config"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/checker"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/commander"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/download"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/retry"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/logger"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/telemetry"
	"github.com/OfficeDev/teams-toolkit-sub010/pkg/npm"
)

// AppConfig holds all the shared configuration and dependencies
type AppConfig struct {
	Config     *config.Config
	ConfigPath string
	Logger     logger.Logger
	Level      logger.Level
	Telemetry  telemetry.Telemetry

	metrics     *telemetry.Prometheus
	metricsFile string
}

// appConfig returns the AppConfig stored on the command context.
func appConfig(cmd *cobra.Command) (*AppConfig, error) {
	app, ok := cmd.Context().Value(ConfigKey).(*AppConfig)
	if !ok || app == nil {
		return nil, fmt.Errorf("application config not initialized")
	}
	return app, nil
}

// loadAppConfig reads the config file and global flags into the AppConfig.
func loadAppConfig(cmd *cobra.Command, _ []string) error {
	app, err := appConfig(cmd)
	if err != nil {
		return err
	}

	explicit, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(explicit)
	if err != nil {
		return err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = logger.LevelDebug
	}

	if output, _ := cmd.Flags().GetString("output"); output != "" {
		cfg.Output.Format = output
	}
	switch cfg.Output.Format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unsupported output format %q", cfg.Output.Format)
	}

	metricsFile, _ := cmd.Flags().GetString("metrics-file")
	if metricsFile == "" {
		metricsFile = cfg.Metrics.File
	}

	app.Config = cfg
	app.ConfigPath = config.GetConfigPath(explicit)
	app.Level = level
	app.Logger = logger.NewStdoutLogger()
	app.metricsFile = metricsFile
	if metricsFile != "" {
		app.metrics = telemetry.NewPrometheus()
		app.Telemetry = app.metrics
	} else {
		app.Telemetry = telemetry.NewNoop()
	}
	return nil
}

// Flush writes the metrics textfile when one was requested.
func (a *AppConfig) Flush() error {
	if a == nil || a.metrics == nil || a.metricsFile == "" {
		return nil
	}
	return a.metrics.WriteTextfile(a.metricsFile)
}

// DepsLogger returns a leveled logger writing to sink.
func (a *AppConfig) DepsLogger(sink logger.Logger) logger.DepsLogger {
	return logger.NewDepsLogger(sink, a.Level)
}

// Env builds the checker environment for the running machine.
func (a *AppConfig) Env(projectPath string) (checker.Env, error) {
	return newEnv(a.Config, projectPath, runtime.GOOS, runtime.GOARCH)
}

func newEnv(cfg *config.Config, projectPath, goos, goarch string) (checker.Env, error) {
	root, err := cfg.ResolveConfigRoot()
	if err != nil {
		return checker.Env{}, err
	}

	policy := retry.DefaultConfig()
	policy.MaxTries = cfg.Network.RetryAttempts + 1

	return checker.Env{
		OS:          goos,
		Arch:        goarch,
		ConfigRoot:  root,
		ProjectPath: projectPath,
		Commander:   commander.NewReal(),
		Downloader:  download.NewClientWithRetry(policy),
		Registry:    npm.NewClientWithBaseURL(cfg.Network.RegistryURL).WithRetry(policy),
		Now:         time.Now,
		Settings:    settingsFromConfig(cfg),
	}, nil
}

func settingsFromConfig(cfg *config.Config) checker.Settings {
	return checker.Settings{
		FuncVersion:    cfg.Func.Version,
		FuncSymlinkDir: cfg.Func.SymlinkDir,
		NgrokVersion:   cfg.Ngrok.Version,
		TestTool: checker.TestToolOptions{
			VersionRange:   cfg.TestTool.VersionRange,
			SymlinkDir:     cfg.TestTool.SymlinkDir,
			ReleaseType:    checker.ReleaseType(cfg.TestTool.ReleaseType),
			UpdateInterval: cfg.TestTool.UpdateInterval,
		},
		VxTestApp: checker.VxTestAppOptions{
			Version:    cfg.VxTestApp.Version,
			SymlinkDir: cfg.VxTestApp.SymlinkDir,
		},
		VxTestAppBaseURL:    cfg.VxTestApp.BaseURL,
		DotnetScriptDir:     cfg.Dotnet.ScriptDir,
		DotnetScriptBaseURL: cfg.Dotnet.ScriptBaseURL,
	}
}
