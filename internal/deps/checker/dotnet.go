package checker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/fileutil"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/types"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/version"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/logger"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/telemetry"
)

const (
	dotnetName = ".NET Core SDK"

	// DefaultDotnetScriptBaseURL hosts dotnet-install.ps1 and dotnet-install.sh.
	DefaultDotnetScriptBaseURL = "https://dot.net/v1"

	dotnetInstallTimeout = 5 * time.Minute
	dotnetMaxBuffer      = 500 * 1024
)

var dotnetSupportedVersions = []string{"3.1", "5.0", "6.0"}

type dotnetConfig struct {
	DotnetExecutablePath string `json:"dotnetExecutablePath"`
}

// DotnetChecker finds a usable .NET SDK, adopting a global one or installing a private copy.
type DotnetChecker struct {
	base
}

// NewDotnetChecker creates the .NET SDK checker.
func NewDotnetChecker(env Env, log logger.DepsLogger, tel telemetry.Telemetry) *DotnetChecker {
	return &DotnetChecker{base: newBase(env, log, tel)}
}

// installVersion is the channel passed to the install script.
func (c *DotnetChecker) installVersion() string {
	if c.env.isMac() && c.env.Arch == "arm64" {
		return "6.0"
	}
	return "3.1"
}

func (c *DotnetChecker) displayName() string {
	return fmt.Sprintf("%s (v%s)", dotnetName, c.installVersion())
}

func (c *DotnetChecker) configPath() string {
	return filepath.Join(c.env.ConfigRoot, "dotnet.json")
}

func (c *DotnetChecker) installDir() string {
	return c.env.binDir("dotnet")
}

func (c *DotnetChecker) samplePath() string {
	return filepath.Join(c.env.ConfigRoot, "dotnetSample")
}

func (c *DotnetChecker) execPathIn(dir string) string {
	if c.env.isWindows() {
		return filepath.Join(dir, "dotnet.exe")
	}
	return filepath.Join(dir, "dotnet")
}

func (c *DotnetChecker) status(ctx context.Context, installed bool) *types.DependencyStatus {
	var binFolders []string
	if p := c.execPathFromConfig(); p != "" {
		binFolders = []string{p}
	}
	return &types.DependencyStatus{
		Name:        dotnetName,
		Type:        types.Dotnet,
		IsInstalled: installed,
		Command:     c.Command(ctx),
		Details: types.DependencyDetails{
			IsLinuxSupported:  false,
			InstallVersion:    c.installVersion(),
			SupportedVersions: dotnetSupportedVersions,
			BinFolders:        binFolders,
		},
	}
}

func (c *DotnetChecker) GetInstallationInfo(ctx context.Context) (*types.DependencyStatus, error) {
	c.logger.Debug(fmt.Sprintf("[start] read dotnet path from '%s'", c.configPath()))
	dotnetPath := c.execPathFromConfig()
	c.logger.Debug(fmt.Sprintf("[end] read dotnet path, dotnetPath = '%s'", dotnetPath))

	if dotnetPath != "" && c.isInstalledCorrectly(ctx, dotnetPath) {
		return c.status(ctx, true), nil
	}

	if c.tryAcquireGlobalSdk(ctx) && c.validate(ctx) {
		c.telemetry.SendEvent(telemetry.EventDotnetAlreadyInstalled, nil, 0)
		c.logger.Info(fmt.Sprintf("Using global .NET SDK at '%s'", c.execPathFromConfig()))
		return c.status(ctx, true), nil
	}

	return c.status(ctx, false), nil
}

func (c *DotnetChecker) Resolve(ctx context.Context) (*types.DependencyStatus, error) {
	defer c.logger.Cleanup()

	status, err := c.GetInstallationInfo(ctx)
	if err == nil && !status.IsInstalled {
		if err = c.install(ctx); err == nil {
			status, err = c.GetInstallationInfo(ctx)
		}
	}
	if err != nil {
		return c.fail(c.status(ctx, false), err, types.DotnetFailToInstallHelpLink)
	}
	return result(status)
}

func (c *DotnetChecker) IsInstalled(ctx context.Context) bool {
	p := c.execPathFromConfig()
	return p != "" && c.isInstalledCorrectly(ctx, p)
}

// Command is the recorded executable path, or plain "dotnet" when none is recorded.
func (c *DotnetChecker) Command(context.Context) string {
	if p := c.execPathFromConfig(); p != "" {
		return p
	}
	return "dotnet"
}

func (c *DotnetChecker) GetDepsInfo(context.Context) (*types.DependencyInfo, error) {
	return &types.DependencyInfo{
		Name:              dotnetName,
		Type:              types.Dotnet,
		InstallVersion:    c.installVersion(),
		SupportedVersions: dotnetSupportedVersions,
		IsLinuxSupported:  false,
	}, nil
}

func (c *DotnetChecker) install(ctx context.Context) error {
	if c.env.isLinux() {
		return types.NewPlatformNotSupportedError(
			fmt.Sprintf("%s is not installed. Install it manually on Linux.", c.displayName()),
			types.DotnetExplanationHelpLink)
	}

	c.logger.Debug("[start] cleanup bin/dotnet and config")
	if err := c.cleanup(ctx); err != nil {
		return err
	}
	c.logger.Debug("[end] cleanup bin/dotnet and config")

	installDir := c.installDir()
	c.logger.Info(fmt.Sprintf("Downloading and installing %s into %s", c.displayName(), installDir))
	if err := c.handleInstall(ctx, installDir); err != nil {
		c.telemetry.SendEvent(telemetry.EventDotnetInstallError, nil, 0)
		return types.NewInstallFailedError(
			fmt.Sprintf("Failed to install %s.", c.displayName()),
			types.DotnetFailToInstallHelpLink, err)
	}

	c.logger.Debug("[start] validate dotnet version")
	if !c.validate(ctx) {
		c.telemetry.SendEvent(telemetry.EventDotnetInstallError, nil, 0)
		return types.NewValidationFailedError(
			fmt.Sprintf("Failed to install %s.", c.displayName()),
			types.DotnetFailToInstallHelpLink, nil)
	}
	c.telemetry.SendEvent(telemetry.EventDotnetInstallCompleted, nil, 0)
	return nil
}

// handleInstall fails only when the install script cannot be obtained. A script
// that runs but misbehaves is left to the validation that follows.
func (c *DotnetChecker) handleInstall(ctx context.Context, installDir string) error {
	if err := c.runInstallScript(ctx, installDir); err != nil {
		c.logger.Error(fmt.Sprintf("Failed to install %s, error = '%v'", c.displayName(), err))
		return err
	}
	c.logger.Debug("[start] write dotnet path to config")
	if err := fileutil.WriteJSON(ctx, c.configPath(), dotnetConfig{DotnetExecutablePath: c.execPathIn(installDir)}); err != nil {
		c.logger.Error(fmt.Sprintf("Failed to record dotnet path, error = '%v'", err))
		return nil
	}
	c.logger.Info(fmt.Sprintf("Finished installing %s.", c.displayName()))
	return nil
}

func (c *DotnetChecker) scriptName() string {
	if c.env.isWindows() {
		return "dotnet-install.ps1"
	}
	return "dotnet-install.sh"
}

// installScript returns a bundled script when present, otherwise downloads it.
func (c *DotnetChecker) installScript(ctx context.Context) (string, error) {
	if dir := c.env.Settings.DotnetScriptDir; dir != "" {
		p := filepath.Join(dir, c.scriptName())
		if fileutil.Exists(p) {
			return p, nil
		}
	}
	base := c.env.Settings.DotnetScriptBaseURL
	if base == "" {
		base = DefaultDotnetScriptBaseURL
	}
	dst := c.env.binDir("dotnet-install", c.scriptName())
	if err := c.env.Downloader.DownloadFile(ctx, strings.TrimSuffix(base, "/")+"/"+c.scriptName(), dst); err != nil {
		return "", err
	}
	return dst, nil
}

func (c *DotnetChecker) runInstallScript(ctx context.Context, installDir string) error {
	script, err := c.installScript(ctx)
	if err != nil {
		return err
	}
	_ = os.Chmod(script, 0755)

	command := InstallCommand(c.env.OS, script, installDir, c.installVersion())
	opts := types.RunOptions{
		Dir:       filepath.Dir(script),
		Timeout:   dotnetInstallTimeout,
		MaxBuffer: dotnetMaxBuffer,
	}

	start := time.Now()
	out, err := c.env.Commander.Run(ctx, command[0], command[1:], opts)
	timecost := time.Since(start).Seconds()
	c.logger.Debug(fmt.Sprintf("Finished running dotnet-install script, command = '%s', stdout = '%s', stderr = '%s'",
		strings.Join(command, " "), out.Stdout, out.Stderr))

	if err != nil {
		msg := fmt.Sprintf("Failed to install %s. The install script exited with an error, command = '%s', error = '%v', timecost = '%.2fs'",
			c.displayName(), strings.Join(command, " "), err, timecost)
		c.telemetry.SendSystemErrorEvent(telemetry.EventDotnetInstallScriptError, "failed to exec dotnet script", msg)
		c.logger.Error(msg)
		return nil
	}
	if strings.TrimSpace(out.Stderr) != "" {
		msg := fmt.Sprintf("Failed to install %s. The install script wrote to stderr, stdout = '%s', stderr = '%s', timecost = '%.2fs'",
			c.displayName(), out.Stdout, out.Stderr, timecost)
		c.telemetry.SendSystemErrorEvent(telemetry.EventDotnetInstallScriptError, "failed to exec dotnet script", msg)
		c.logger.Error(msg)
		return nil
	}
	c.telemetry.SendEvent(telemetry.EventDotnetInstallScriptCompleted, nil, timecost)
	return nil
}

// InstallCommand builds the argv that runs the dotnet-install script for goos.
func InstallCommand(goos, script, installDir, channel string) []string {
	if goos == "windows" {
		inner := strings.Join([]string{
			EscapeFilePath(goos, script),
			"-InstallDir",
			EscapeFilePath(goos, installDir),
			"-Channel",
			channel,
		}, " ")
		return []string{
			"powershell.exe",
			"-NoProfile",
			"-ExecutionPolicy",
			"unrestricted",
			"-Command",
			"& { [Net.ServicePointManager]::SecurityProtocol = [Net.ServicePointManager]::SecurityProtocol -bor [Net.SecurityProtocolType]::Tls12 ; & " + inner + " }",
		}
	}
	return []string{"bash", script, "-InstallDir", installDir, "-Channel", channel}
}

// EscapeFilePath quotes p for the PowerShell command that runs the install
// script. bash receives its paths as argv, so p is returned as is elsewhere.
func EscapeFilePath(goos, p string) string {
	if goos == "windows" {
		return "'" + strings.ReplaceAll(p, "'", "''") + "'"
	}
	return p
}

func (c *DotnetChecker) execPathFromConfig() string {
	var cfg dotnetConfig
	if err := fileutil.ReadJSON(c.configPath(), &cfg); err != nil {
		c.logger.Debug(fmt.Sprintf("get dotnet path failed, error: '%v'", err))
		return ""
	}
	return cfg.DotnetExecutablePath
}

func (c *DotnetChecker) isInstalledCorrectly(ctx context.Context, dotnetPath string) bool {
	var installed []string
	for _, sdk := range c.searchSdks(ctx, dotnetPath) {
		if v, err := version.ParseTriple(sdk.Version); err == nil {
			installed = append(installed, v.MajorMinor())
		}
	}
	for _, v := range installed {
		for _, s := range dotnetSupportedVersions {
			if v == s {
				return true
			}
		}
	}
	return false
}

func (c *DotnetChecker) searchSdks(ctx context.Context, dotnetPath string) []version.SDK {
	if dotnetPath == "" {
		return nil
	}
	out, err := c.run(ctx, dotnetPath, []string{"--list-sdks"}, types.RunOptions{Timeout: time.Minute})
	if err != nil {
		msg := fmt.Sprintf("Failed to search dotnet sdk by dotnetPath = '%s', error = '%v'", dotnetPath, err)
		c.logger.Debug(msg)
		c.telemetry.SendSystemErrorEvent(telemetry.EventDotnetSearchSdks, "failed to search dotnet sdks", msg)
		return nil
	}
	return version.ParseListSdks(out)
}

func (c *DotnetChecker) isPrivateInstall(sdk version.SDK) bool {
	return filepath.Clean(c.installDir()) == filepath.Dir(filepath.Clean(sdk.Path))
}

// tryAcquireGlobalSdk records the first non-private SDK on PATH without copying it.
func (c *DotnetChecker) tryAcquireGlobalSdk(ctx context.Context) bool {
	var global []version.SDK
	for _, sdk := range c.searchSdks(ctx, "dotnet") {
		if !c.isPrivateInstall(sdk) {
			global = append(global, sdk)
		}
	}
	if len(global) == 0 {
		return false
	}
	execPath := c.execPathIn(filepath.Dir(filepath.Clean(global[0].Path)))
	if err := fileutil.WriteJSON(ctx, c.configPath(), dotnetConfig{DotnetExecutablePath: execPath}); err != nil {
		c.logger.Debug(fmt.Sprintf("Failed to acquire global dotnet sdk, error = '%v'", err))
		return false
	}
	return true
}

// validate checks the recorded SDK version and runs a hello-world smoke test.
// An invalid install is removed together with its config.
func (c *DotnetChecker) validate(ctx context.Context) bool {
	p := c.execPathFromConfig()
	valid := p != "" && c.isInstalledCorrectly(ctx, p) && c.validateWithHelloWorld(ctx, p)
	if !valid {
		c.telemetry.SendEvent(telemetry.EventDotnetValidationError, nil, 0)
		if err := c.cleanup(ctx); err != nil {
			c.logger.Debug(fmt.Sprintf("cleanup failed: %v", err))
		}
	}
	return valid
}

func (c *DotnetChecker) validateWithHelloWorld(ctx context.Context, dotnetPath string) bool {
	sample := c.samplePath()
	defer func() { _ = fileutil.Cleanup(sample) }()
	_ = fileutil.Cleanup(sample)

	steps := [][]string{
		{"new", "console", "--output", sample, "--force"},
		{"run", "--project", sample, "--force"},
	}
	for _, args := range steps {
		if _, err := c.run(ctx, dotnetPath, args, types.RunOptions{Timeout: dotnetInstallTimeout}); err != nil {
			c.telemetry.SendSystemErrorEvent(telemetry.EventDotnetValidationError, "failed to validate dotnet", err.Error())
			c.logger.Debug(fmt.Sprintf("Failed to run hello world, dotnetPath = %s, error = %v", dotnetPath, err))
			return false
		}
	}
	return true
}

func (c *DotnetChecker) cleanup(ctx context.Context) error {
	if err := fileutil.RemoveJSON(ctx, c.configPath()); err != nil {
		return err
	}
	return fileutil.EmptyDir(c.installDir())
}
