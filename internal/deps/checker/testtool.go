package checker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/fileutil"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/installer"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/types"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/version"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/logger"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/telemetry"
)

// ReleaseType selects where the test tool is installed from.
type ReleaseType string

const (
	ReleaseTypeNpm    ReleaseType = "npm"
	ReleaseTypeBinary ReleaseType = "binary"
)

const (
	testToolName        = "Teams App Test Tool"
	testToolPackageName = "@microsoft/teams-app-test-tool"
	testToolCommand     = "teamsapptester"
	testToolInstallInfo = ".testTool.installInfo.json"
	testToolTimeout     = 5 * time.Minute
)

var localTestToolPackage = regexp.MustCompile(`(?i)microsoft-teams-app-test-tool.*\.tgz`)

// TestToolOptions controls which test tool build is resolved and where it is linked.
type TestToolOptions struct {
	VersionRange string
	// SymlinkDir is relative to the project, e.g. devTools/teamsapptester.
	SymlinkDir     string
	ReleaseType    ReleaseType
	UpdateInterval time.Duration
}

// DefaultTestToolOptions returns the npm channel settings used by new projects.
func DefaultTestToolOptions() TestToolOptions {
	return TestToolOptions{
		VersionRange:   "~0.2.0",
		SymlinkDir:     "devTools/teamsapptester",
		ReleaseType:    ReleaseTypeNpm,
		UpdateInterval: 7 * 24 * time.Hour,
	}
}

type installInfoFile struct {
	LastCheckTimestamp int64 `json:"lastCheckTimestamp"`
}

// TestToolChecker resolves the Teams App Test Tool into a versioned portable dir
// linked into the project, keeping it current within the requested range.
type TestToolChecker struct {
	base
	opts  TestToolOptions
	props map[string]string
}

// NewTestToolChecker creates the test tool checker from env.Settings.TestTool,
// filling unset options from DefaultTestToolOptions.
func NewTestToolChecker(env Env, log logger.DepsLogger, tel telemetry.Telemetry) *TestToolChecker {
	opts := env.Settings.TestTool
	def := DefaultTestToolOptions()
	if opts.VersionRange == "" {
		opts.VersionRange = def.VersionRange
	}
	if opts.ReleaseType == "" {
		opts.ReleaseType = def.ReleaseType
	}
	if opts.UpdateInterval <= 0 {
		opts.UpdateInterval = def.UpdateInterval
	}
	return &TestToolChecker{
		base:  newBase(env, log, tel),
		opts:  opts,
		props: map[string]string{},
	}
}

type testToolInstall struct {
	version   string
	binFolder string
	portable  bool
}

func (c *TestToolChecker) commandName() string {
	if c.opts.ReleaseType == ReleaseTypeBinary {
		if c.env.isWindows() {
			return testToolCommand + ".exe"
		}
		return testToolCommand
	}
	return c.env.execName(testToolCommand)
}

func (c *TestToolChecker) portableRoot() string {
	if c.opts.ReleaseType == ReleaseTypeBinary {
		return c.env.binDir("testToolBinary")
	}
	return c.env.binDir("testTool")
}

func (c *TestToolChecker) binFolder(installPath string) string {
	if c.opts.ReleaseType == ReleaseTypeBinary {
		return installPath
	}
	return filepath.Join(installPath, "node_modules", ".bin")
}

func (c *TestToolChecker) symlinkDir() string {
	if c.opts.SymlinkDir == "" {
		return ""
	}
	return c.env.projectPath(c.opts.SymlinkDir)
}

func (c *TestToolChecker) installInfoPath() string {
	return c.env.projectPath(filepath.Join("devTools", testToolInstallInfo))
}

func (c *TestToolChecker) success(found testToolInstall) *types.DependencyStatus {
	status := c.failure(nil)
	status.IsInstalled = true
	status.Details.InstallVersion = found.version
	if found.binFolder != "" {
		status.Details.BinFolders = []string{found.binFolder}
	}
	return status
}

func (c *TestToolChecker) failure(de *types.DepsError) *types.DependencyStatus {
	props := make(map[string]string, len(c.props))
	for k, v := range c.props {
		props[k] = v
	}
	return &types.DependencyStatus{
		Name:    testToolName,
		Type:    types.TestTool,
		Command: c.commandName(),
		Details: types.DependencyDetails{
			IsLinuxSupported: true,
			InstallVersion:   c.opts.VersionRange,
		},
		Error:               de,
		TelemetryProperties: props,
	}
}

func (c *TestToolChecker) GetInstallationInfo(ctx context.Context) (*types.DependencyStatus, error) {
	found, ok := c.detect(ctx)
	if !ok {
		return c.failure(nil), nil
	}
	return c.success(found), nil
}

// detect checks the project symlink, then portable installs newest first, then PATH.
func (c *TestToolChecker) detect(ctx context.Context) (testToolInstall, bool) {
	link := c.symlinkDir()
	if link != "" {
		v, err := c.checkVersion(ctx, c.binFolder(link))
		if err == nil {
			c.props[telemetry.PropSymlinkTestToolVersion] = v
			return testToolInstall{version: v, binFolder: link, portable: true}, true
		}
		c.props[telemetry.PropSymlinkTestToolVersionError] = err.Error()
		if err := fileutil.UnlinkSymlink(link); err != nil {
			c.logger.Debug(fmt.Sprintf("failed to unlink %s: %v", link, err))
		}
	}

	if v, ok := c.latestPortableVersion(ctx); ok {
		portablePath := filepath.Join(c.portableRoot(), v)
		c.props[telemetry.PropSelectedPortableTestToolVersion] = v
		if link == "" {
			return testToolInstall{version: v, binFolder: portablePath, portable: true}, true
		}
		if err := fileutil.CreateSymlink(portablePath, link); err != nil {
			c.logger.Warning(fmt.Sprintf("failed to link %s: %v", link, err))
			return testToolInstall{version: v, binFolder: portablePath, portable: true}, true
		}
		return testToolInstall{version: v, binFolder: link, portable: true}, true
	}

	v, err := c.checkVersion(ctx, "")
	if err == nil {
		c.props[telemetry.PropGlobalTestToolVersion] = v
		return testToolInstall{version: v}, true
	}
	c.props[telemetry.PropGlobalTestToolVersionError] = err.Error()
	return testToolInstall{}, false
}

func (c *TestToolChecker) latestPortableVersion(ctx context.Context) (string, bool) {
	root := c.portableRoot()
	for _, v := range version.SatisfyingDesc(fileutil.ListDirs(root), c.opts.VersionRange) {
		_, err := c.checkVersion(ctx, c.binFolder(filepath.Join(root, v)))
		if err == nil {
			return v, true
		}
		c.props[telemetry.PropVersioningTestToolVersionError] += fmt.Sprintf("[%s] %s", v, err.Error())
	}
	return "", false
}

// checkVersion runs the tool from binFolder, or from PATH when binFolder is empty,
// and checks the reported version against the requested range.
func (c *TestToolChecker) checkVersion(ctx context.Context, binFolder string) (string, error) {
	execPath := c.commandName()
	if binFolder != "" {
		execPath = filepath.Join(binFolder, execPath)
	}
	out, err := c.run(ctx, execPath, []string{"--version"}, types.RunOptions{Shell: c.env.shell(), Timeout: testToolTimeout})
	if err != nil {
		return "", err
	}
	actual := strings.TrimSpace(out)
	if !version.Satisfies(actual, c.opts.VersionRange) {
		return "", fmt.Errorf("%s version %q does not satisfy %s", testToolName, actual, c.opts.VersionRange)
	}
	return actual, nil
}

func (c *TestToolChecker) Resolve(ctx context.Context) (*types.DependencyStatus, error) {
	defer c.logger.Cleanup()

	status, err := c.resolve(ctx)
	if err != nil {
		return c.fail(c.failure(nil), err, types.V3DefaultHelpLink)
	}
	return status, nil
}

func (c *TestToolChecker) resolve(ctx context.Context) (*types.DependencyStatus, error) {
	if c.opts.ReleaseType == ReleaseTypeNpm {
		if _, err := c.nodeVersion(ctx); err != nil {
			return nil, types.NewNotFoundError(
				"Cannot find Node.js. Node.js is required to run the Teams App Test Tool.",
				types.NodeNotFoundHelpLink)
		}
	}

	found, ok := c.detect(ctx)
	if !ok {
		var installed testToolInstall
		err := c.telemetry.SendEventWithDuration(ctx, telemetry.EventTestToolInstall, func(ctx context.Context) error {
			var err error
			installed, err = c.install(ctx)
			return err
		})
		if err != nil {
			c.telemetry.SendSystemErrorEvent(telemetry.EventTestToolInstallError, err.Error(), "")
			return nil, err
		}
		return c.success(installed), nil
	}

	if found.portable {
		if updated, ok := c.autoUpdate(ctx); ok {
			found = updated
		}
	}
	return c.success(found), nil
}

// autoUpdate reinstalls when the last check is older than the update interval and
// the registry has a strictly newer version in range. Failures keep the current install.
func (c *TestToolChecker) autoUpdate(ctx context.Context) (testToolInstall, bool) {
	info, hasInfo := c.readInstallInfo()
	now := c.env.now()
	if hasInfo && !now.After(time.UnixMilli(info.LastCheckTimestamp).Add(c.opts.UpdateInterval)) {
		return testToolInstall{}, false
	}

	c.telemetry.SendEvent(telemetry.EventTestToolUpdateCheck, nil, 0)
	latest, hasLatest := c.latestPortableVersion(ctx)
	if hasLatest && !c.hasNewerRelease(ctx, latest) {
		c.writeInstallInfo(ctx)
		return testToolInstall{}, false
	}

	last := "<never>"
	if hasInfo {
		last = strconv.FormatInt(info.LastCheckTimestamp, 10)
	}
	previous := "<undefined>"
	if hasLatest {
		previous = latest
	}
	c.props[telemetry.PropTestToolLastUpdateTimestamp] = last
	c.props[telemetry.PropTestToolUpdatePreviousVersion] = previous

	updated, err := c.install(ctx)
	if err != nil {
		c.props[telemetry.PropTestToolUpdateError] = err.Error()
		c.logger.Debug(fmt.Sprintf("test tool update failed: %v", err))
		c.writeInstallInfo(ctx)
		return testToolInstall{}, false
	}
	return updated, true
}

// hasNewerRelease asks the registry for the newest version in range. A failed
// lookup counts as newer so the update is attempted anyway; an answer with
// nothing in range does not.
func (c *TestToolChecker) hasNewerRelease(ctx context.Context, installed string) bool {
	if c.env.Registry == nil {
		return false
	}
	if c.opts.ReleaseType == ReleaseTypeBinary {
		return false
	}
	latest, err := c.env.Registry.MaxSatisfyingVersion(ctx, testToolPackageName, c.opts.VersionRange)
	if errors.Is(err, types.ErrNoMatchingVersion) {
		return false
	}
	if err != nil {
		c.logger.Debug(fmt.Sprintf("failed to query %s versions: %v", testToolPackageName, err))
		return true
	}
	return version.GreaterThan(latest, installed)
}

func (c *TestToolChecker) readInstallInfo() (installInfoFile, bool) {
	var info installInfoFile
	path := c.installInfoPath()
	if err := fileutil.ReadJSON(path, &info); err != nil || info.LastCheckTimestamp <= 0 {
		_ = fileutil.Cleanup(path)
		return installInfoFile{}, false
	}
	return info, true
}

func (c *TestToolChecker) writeInstallInfo(ctx context.Context) {
	info := installInfoFile{LastCheckTimestamp: c.env.now().UnixMilli()}
	if err := fileutil.WriteJSON(ctx, c.installInfoPath(), info); err != nil {
		c.logger.Debug(fmt.Sprintf("failed to write %s: %v", testToolInstallInfo, err))
	}
}

func (c *TestToolChecker) install(ctx context.Context) (testToolInstall, error) {
	if c.opts.ReleaseType == ReleaseTypeNpm && !c.npm.HasNpm(ctx) {
		return testToolInstall{}, types.NewNeedsPackageManagerError(testToolName, types.V3DefaultHelpLink)
	}

	tmp := filepath.Join(c.portableRoot(), fileutil.TempDirName())
	var err error
	if c.opts.ReleaseType == ReleaseTypeNpm {
		err = c.npmInstall(ctx, tmp)
	} else {
		err = c.binaryInstall(ctx, tmp)
	}
	if err != nil {
		_ = fileutil.Cleanup(tmp)
		c.props[telemetry.PropInstallTestToolError] = err.Error()
		return testToolInstall{}, err
	}

	actual, err := c.checkVersion(ctx, c.binFolder(tmp))
	if err != nil {
		_ = fileutil.Cleanup(tmp)
		c.props[telemetry.PropInstallTestToolError] = err.Error()
		return testToolInstall{}, types.NewValidationFailedError(
			fmt.Sprintf("Failed to validate %s: %v", testToolName, err), types.V3DefaultHelpLink, err)
	}
	c.props[telemetry.PropInstalledTestToolVersion] = actual

	portablePath := filepath.Join(c.portableRoot(), actual)
	if err := fileutil.Rename(tmp, portablePath); err != nil {
		_ = fileutil.Cleanup(tmp)
		return testToolInstall{}, types.NewInstallFailedError(
			fmt.Sprintf("Failed to install %s.", testToolName), types.V3DefaultHelpLink, err)
	}

	found := testToolInstall{version: actual, binFolder: portablePath, portable: true}
	if link := c.symlinkDir(); link != "" {
		if err := fileutil.CreateSymlink(portablePath, link); err != nil {
			return testToolInstall{}, types.NewInstallFailedError(
				fmt.Sprintf("Failed to link %s into the project.", testToolName), types.V3DefaultHelpLink, err)
		}
		found.binFolder = link
	}
	c.writeInstallInfo(ctx)
	return found, nil
}

// npmInstall prefers a local package tarball in the project or devTools over the registry.
func (c *TestToolChecker) npmInstall(ctx context.Context, prefix string) error {
	pkg, ok := installer.FindLocalTarball(c.env.projectPath("."), localTestToolPackage)
	if !ok {
		pkg, ok = installer.FindLocalTarball(c.env.projectPath("devTools"), localTestToolPackage)
	}
	if !ok {
		pkg = installer.PackageSpec(testToolPackageName, c.opts.VersionRange)
	}
	if err := c.npm.Install(ctx, pkg, prefix); err != nil {
		return types.NewInstallFailedError(fmt.Sprintf("Failed to install %s.", testToolName), types.V3DefaultHelpLink, err)
	}
	return nil
}

func (c *TestToolChecker) binaryInstall(context.Context, string) error {
	return types.NewInstallFailedError(
		fmt.Sprintf("Installing %s from release binaries is not available.", testToolName),
		types.V3DefaultHelpLink, types.ErrNotImplemented)
}

func (c *TestToolChecker) IsInstalled(ctx context.Context) bool {
	status, err := c.GetInstallationInfo(ctx)
	return err == nil && status.IsInstalled
}

func (c *TestToolChecker) Command(context.Context) string { return c.commandName() }

func (c *TestToolChecker) GetDepsInfo(context.Context) (*types.DependencyInfo, error) {
	return &types.DependencyInfo{
		Name:             testToolName,
		Type:             types.TestTool,
		InstallVersion:   c.opts.VersionRange,
		IsLinuxSupported: true,
	}, nil
}
