package checker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
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

const (
	funcPackageName = "azure-functions-core-tools"
	funcToolName    = "Azure Functions Core Tools"

	// DefaultFuncVersion is the requested func range when none is configured.
	DefaultFuncVersion = "4"
)

// funcNodeCompatibility maps a func major version to the node majors it runs on.
var funcNodeCompatibility = map[int][]int{
	3: {10, 12, 14},
	4: {14, 16, 18},
}

// FuncNodeCompatible reports whether func major funcMajor runs on node major nodeMajor.
// known is false when funcMajor has no entry; such combinations count as compatible.
func FuncNodeCompatible(funcMajor, nodeMajor int) (compatible, known bool) {
	nodes, ok := funcNodeCompatibility[funcMajor]
	if !ok {
		return true, false
	}
	return version.ContainsMajor(nodes, nodeMajor), true
}

type funcInstallation struct {
	installed  bool
	version    version.Triple
	binFolder  string
	fromLegacy bool
}

// FuncToolChecker resolves Azure Functions Core Tools, preferring a private npm install.
type FuncToolChecker struct {
	base
	portable     portableTool
	versionRange string
	symlinkDir   string

	portableFunc funcInstallation
	globalFunc   funcInstallation
}

// NewFuncToolChecker creates the func checker using env.Settings.FuncVersion as the requested range.
func NewFuncToolChecker(env Env, log logger.DepsLogger, tel telemetry.Telemetry) *FuncToolChecker {
	versionRange := env.Settings.FuncVersion
	if versionRange == "" {
		versionRange = DefaultFuncVersion
	}
	return &FuncToolChecker{
		base:         newBase(env, log, tel),
		portable:     portableTool{env: env, dir: "func", sentinelName: "func-sentinel"},
		versionRange: versionRange,
		symlinkDir:   env.Settings.FuncSymlinkDir,
	}
}

func (c *FuncToolChecker) displayName() string {
	return fmt.Sprintf("%s (v%s)", funcToolName, c.versionRange)
}

func (c *FuncToolChecker) status(installed bool) *types.DependencyStatus {
	var binFolders []string
	if c.portableFunc.installed {
		binFolders = []string{c.portableFunc.binFolder}
	}
	return &types.DependencyStatus{
		Name:        funcToolName,
		Type:        types.FuncCoreTools,
		IsInstalled: installed,
		Command:     c.env.execName("func"),
		Details: types.DependencyDetails{
			IsLinuxSupported:  false,
			InstallVersion:    c.versionRange,
			SupportedVersions: []string{c.versionRange},
			BinFolders:        binFolders,
		},
	}
}

// GetInstallationInfo reports the detected func. When Node.js is on PATH the
// same compatibility check as Resolve applies.
func (c *FuncToolChecker) GetInstallationInfo(ctx context.Context) (*types.DependencyStatus, error) {
	status := c.detect(ctx)
	if node, err := c.nodeVersion(ctx); err == nil {
		c.checkCompatibility(status, node)
	}
	return status, nil
}

func (c *FuncToolChecker) detect(ctx context.Context) *types.DependencyStatus {
	c.globalFunc = c.checkGlobalFunc(ctx)
	c.portableFunc = c.checkPortableFunc(ctx)

	if c.portableFunc.installed && c.symlinkDir != "" {
		link := c.env.projectPath(c.symlinkDir)
		if err := fileutil.CreateSymlink(c.portableFunc.binFolder, link); err != nil {
			c.logger.Warning(fmt.Sprintf("failed to link %s: %v", link, err))
		}
	}

	return c.status(c.portableFunc.installed || c.globalFunc.installed)
}

// checkCompatibility marks status not installed when the func in use, portable
// first, does not run on node.
func (c *FuncToolChecker) checkCompatibility(status *types.DependencyStatus, node version.Triple) {
	var de *types.DepsError
	if c.portableFunc.installed {
		de = c.checkFuncAndNode(c.portableFunc.version, node, true)
	} else if c.globalFunc.installed {
		de = c.checkFuncAndNode(c.globalFunc.version, node, false)
	}
	if de != nil {
		status.IsInstalled = false
		status.Error = de
	}
}

func (c *FuncToolChecker) Resolve(ctx context.Context) (*types.DependencyStatus, error) {
	defer c.logger.Cleanup()

	status, err := c.resolve(ctx)
	if err != nil {
		return c.fail(c.status(false), err, types.DefaultHelpLink)
	}
	if status.Error != nil {
		return c.fail(status, status.Error, types.FunctionDepsVersionsLink)
	}
	return status, nil
}

func (c *FuncToolChecker) resolve(ctx context.Context) (*types.DependencyStatus, error) {
	node, err := c.nodeVersion(ctx)
	if err != nil {
		return nil, types.NewNotFoundError(
			"Cannot find Node.js. Node.js is required to run Azure Functions Core Tools.",
			types.NodeNotFoundHelpLink)
	}

	status := c.detect(ctx)
	if !status.IsInstalled {
		err := c.telemetry.SendEventWithDuration(ctx, telemetry.EventFuncInstall, c.install)
		if err != nil {
			c.telemetry.SendSystemErrorEvent(telemetry.EventFuncInstallError, err.Error(), "")
			return nil, err
		}
		c.telemetry.SendEvent(telemetry.EventFuncInstallCompleted, nil, 0)
		status = c.detect(ctx)
	}

	c.checkCompatibility(status, node)
	return status, nil
}

func (c *FuncToolChecker) checkFuncAndNode(funcVersion, node version.Triple, portable bool) *types.DepsError {
	compatible, known := FuncNodeCompatible(funcVersion.Major, node.Major)
	if !known {
		c.logger.Warning(fmt.Sprintf("No Node.js compatibility data for func v%d; assuming Node.js v%d works.", funcVersion.Major, node.Major))
		return nil
	}
	if compatible {
		return nil
	}
	c.telemetry.SendUserErrorEvent(telemetry.EventFuncNodeMismatch,
		fmt.Sprintf("func %s with node %s", funcVersion.String(), node.String()))
	supported := funcNodeCompatibility[funcVersion.Major]
	names := make([]string, 0, len(supported))
	for _, n := range supported {
		names = append(names, "v"+strconv.Itoa(n))
	}
	where := "globally installed"
	if portable {
		where = "portable"
	}
	return types.NewVersionMismatchError(
		fmt.Sprintf("The %s Azure Functions Core Tools v%s does not work with Node.js v%s. Supported Node.js versions: %s. See %s.",
			where, funcVersion.String(), node.String(), strings.Join(names, ", "), types.NodeInstallationLink),
		types.FunctionDepsVersionsLink)
}

func (c *FuncToolChecker) IsInstalled(ctx context.Context) bool {
	status, err := c.GetInstallationInfo(ctx)
	return err == nil && status.IsInstalled
}

func (c *FuncToolChecker) Command(context.Context) string { return c.env.execName("func") }

func (c *FuncToolChecker) GetDepsInfo(context.Context) (*types.DependencyInfo, error) {
	return &types.DependencyInfo{
		Name:              funcToolName,
		Type:              types.FuncCoreTools,
		InstallVersion:    c.versionRange,
		SupportedVersions: []string{c.versionRange},
		IsLinuxSupported:  false,
	}, nil
}

// checkPortableFunc picks the newest valid versioned install, or the legacy one when it is newer.
func (c *FuncToolChecker) checkPortableFunc(ctx context.Context) funcInstallation {
	legacy := c.checkLegacyFunc(ctx)
	latest := c.findValidVersionedFunc(ctx)
	if latest.installed && (!legacy.installed || version.GreaterThanOrEqual(latest.version.String(), legacy.version.String())) {
		return latest
	}
	if legacy.installed {
		if c.env.isWindows() {
			c.removePs1Shims("")
		}
		return legacy
	}
	return funcInstallation{}
}

func (c *FuncToolChecker) findValidVersionedFunc(ctx context.Context) funcInstallation {
	for _, v := range c.portable.versions(c.versionRange) {
		actual, ok := c.queryPortableFunc(ctx, v)
		folder := c.binaryFolder(v)
		if ok && actual.String() == v && folder != "" {
			return funcInstallation{installed: true, version: actual, binFolder: folder}
		}
		c.logger.Debug(fmt.Sprintf("portable func %s is not usable", v))
	}
	return funcInstallation{}
}

func (c *FuncToolChecker) checkLegacyFunc(ctx context.Context) funcInstallation {
	v, ok := c.queryPortableFunc(ctx, "")
	folder := c.binaryFolder("")
	if !ok || folder == "" || !version.Satisfies(v.String(), c.versionRange) {
		return funcInstallation{}
	}
	return funcInstallation{installed: true, version: v, binFolder: folder, fromLegacy: true}
}

func (c *FuncToolChecker) checkGlobalFunc(ctx context.Context) funcInstallation {
	out, err := c.run(ctx, "func", []string{"--version"}, types.RunOptions{Shell: c.globalShell(), Timeout: time.Minute})
	if err != nil {
		return funcInstallation{}
	}
	v, err := version.ParseTriple(out)
	if err != nil || !version.Satisfies(v.String(), c.versionRange) {
		return funcInstallation{}
	}
	return funcInstallation{installed: true, version: v}
}

// globalShell runs func through cmd.exe on Windows to avoid the PowerShell execution policy.
func (c *FuncToolChecker) globalShell() string {
	if c.env.isWindows() {
		return "cmd.exe"
	}
	return ""
}

func (c *FuncToolChecker) entryPoint(dir string) string {
	return filepath.Join(dir, "node_modules", funcPackageName, "lib", "main.js")
}

func (c *FuncToolChecker) queryFuncVersion(ctx context.Context, dir string) (version.Triple, error) {
	out, err := c.run(ctx, "node", []string{c.entryPoint(dir), "--version"}, types.RunOptions{Timeout: time.Minute})
	if err != nil {
		return version.Triple{}, err
	}
	return version.ParseTriple(out)
}

// queryPortableFunc only trusts installs whose sentinel exists; func -v can succeed
// on a half-written install where func start would fail.
func (c *FuncToolChecker) queryPortableFunc(ctx context.Context, v string) (version.Triple, bool) {
	inst := c.portable.install(v)
	if !fileutil.Exists(inst.Sentinel) {
		return version.Triple{}, false
	}
	actual, err := c.queryFuncVersion(ctx, inst.Dir)
	if err != nil {
		return version.Triple{}, false
	}
	return actual, true
}

func (c *FuncToolChecker) portableBinFolders(dir string) []string {
	return []string{
		dir,
		filepath.Join(dir, "node_modules", ".bin"),
	}
}

func (c *FuncToolChecker) binaryFolder(v string) string {
	for _, folder := range c.portableBinFolders(c.portable.installPath(v)) {
		if fileutil.Exists(filepath.Join(folder, c.env.execName("func"))) {
			return folder
		}
	}
	return ""
}

func (c *FuncToolChecker) removePs1Shims(v string) {
	for _, folder := range c.portableBinFolders(c.portable.installPath(v)) {
		p := filepath.Join(folder, "func.ps1")
		if fileutil.Exists(p) {
			_ = os.Remove(p)
		}
	}
}

func (c *FuncToolChecker) install(ctx context.Context) error {
	if c.env.isLinux() {
		return types.NewPlatformNotSupportedError(
			fmt.Sprintf("%s is not installed. Install it manually on Linux.", c.displayName()),
			types.DefaultHelpLink)
	}
	if !c.npm.HasNpm(ctx) {
		return types.NewNeedsPackageManagerError(c.displayName(), types.DefaultHelpLink)
	}

	c.portable.removeStaleTemps()
	tmp := c.portable.newTemp()
	c.logger.Info(fmt.Sprintf("Installing %s...", c.displayName()))

	if err := c.npm.Install(ctx, installer.PackageSpec(funcPackageName, c.versionRange), tmp.Dir); err != nil {
		_ = tmp.Discard()
		return types.NewInstallFailedError(fmt.Sprintf("Failed to install %s.", c.displayName()), types.DefaultHelpLink, err)
	}
	if c.env.isWindows() {
		c.removePs1Shims(filepath.Base(tmp.Dir))
	}

	actual, err := c.queryFuncVersion(ctx, tmp.Dir)
	if err != nil || !version.Satisfies(actual.String(), c.versionRange) {
		_ = tmp.Discard()
		return types.NewValidationFailedError(fmt.Sprintf("Failed to validate %s after install.", c.displayName()), types.DefaultHelpLink, err)
	}

	final, err := tmp.MoveTo(c.portable.installPath(actual.String()), actual.String())
	if err != nil {
		_ = tmp.Discard()
		return err
	}
	if err := final.Commit(); err != nil {
		return err
	}
	c.logger.Info(fmt.Sprintf("Installed %s %s.", funcToolName, actual.String()))
	return nil
}
