// Package checker implements detection and private installation of every
// supported dependency type.
package checker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/download"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/installer"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/types"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/version"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/logger"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/telemetry"
)

// VersionRegistry answers "what is the newest published version in this range".
type VersionRegistry interface {
	MaxSatisfyingVersion(ctx context.Context, name, versionRange string) (string, error)
}

// Settings are the per-tool knobs callers may override.
type Settings struct {
	FuncVersion    string
	FuncSymlinkDir string
	NgrokVersion   string
	TestTool       TestToolOptions
	VxTestApp      VxTestAppOptions
	// VxTestAppBaseURL is the release download root for the companion app archives.
	VxTestAppBaseURL string
	// DotnetScriptDir may hold a bundled dotnet-install script; otherwise it is downloaded.
	DotnetScriptDir     string
	DotnetScriptBaseURL string
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	return Settings{
		FuncVersion:         DefaultFuncVersion,
		NgrokVersion:        DefaultNgrokVersion,
		TestTool:            DefaultTestToolOptions(),
		VxTestAppBaseURL:    DefaultVxTestAppBaseURL,
		DotnetScriptBaseURL: DefaultDotnetScriptBaseURL,
	}
}

// Env is everything a checker needs from the outside world.
type Env struct {
	OS   string
	Arch string
	// ConfigRoot is the per-user root holding portable installs, e.g. ~/.fx.
	ConfigRoot  string
	ProjectPath string

	Commander  types.Commander
	Downloader download.Downloader
	Registry   VersionRegistry
	Now        func() time.Time

	Settings Settings
}

func (e Env) isWindows() bool { return e.OS == "windows" }
func (e Env) isLinux() bool   { return e.OS == "linux" }
func (e Env) isMac() bool     { return e.OS == "darwin" }

func (e Env) binDir(parts ...string) string {
	return filepath.Join(append([]string{e.ConfigRoot, "bin"}, parts...)...)
}

// execName appends the Windows batch suffix npm uses for its shims.
func (e Env) execName(name string) string {
	if e.isWindows() {
		return name + ".cmd"
	}
	return name
}

// shell is the shell used to run npm shims and globally installed tools.
func (e Env) shell() string {
	if e.isWindows() {
		return "cmd.exe"
	}
	return "sh"
}

func (e Env) projectPath(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	root := e.ProjectPath
	if root == "" {
		root, _ = os.Getwd()
	}
	return filepath.Join(root, rel)
}

func (e Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// pathWith prepends dir to PATH so a portable binary wins over a global one.
func (e Env) pathWith(dir string) []string {
	return []string{"PATH=" + dir + string(os.PathListSeparator) + os.Getenv("PATH")}
}

// base holds the collaborators shared by every checker.
type base struct {
	env       Env
	logger    logger.DepsLogger
	telemetry telemetry.Telemetry
	npm       *installer.NpmInstaller
}

func newBase(env Env, log logger.DepsLogger, tel telemetry.Telemetry) base {
	if log == nil {
		log = logger.NewNoOpDepsLogger()
	}
	if tel == nil {
		tel = telemetry.NewNoop()
	}
	return base{
		env:       env,
		logger:    log,
		telemetry: tel,
		npm:       installer.NewNpmInstaller(env.Commander, env.OS),
	}
}

func (b base) run(ctx context.Context, name string, args []string, opts types.RunOptions) (string, error) {
	b.logger.Debug("run: " + name + " " + strings.Join(args, " "))
	out, err := b.env.Commander.Run(ctx, name, args, opts)
	return out.Stdout, err
}

// nodeVersion runs `node --version`.
func (b base) nodeVersion(ctx context.Context) (version.Triple, error) {
	out, err := b.run(ctx, "node", []string{"--version"}, types.RunOptions{Timeout: time.Minute})
	if err != nil {
		return version.Triple{}, err
	}
	return version.ParseNodeVersion(out)
}

// fail records err on status after dumping the detail log. It is the single
// point where unclassified errors become install failures.
func (b base) fail(status *types.DependencyStatus, err error, helpLink string) (*types.DependencyStatus, error) {
	de := types.Classify(err, helpLink)
	b.logger.PrintDetailLog()
	b.logger.Error(de.Error())
	status.IsInstalled = false
	status.Error = de
	return status, de
}

// result converts status into the (status, error) pair returned by Resolve.
func result(status *types.DependencyStatus) (*types.DependencyStatus, error) {
	if status.Error != nil {
		return status, status.Error
	}
	return status, nil
}
