package checker

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/types"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/version"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/logger"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/telemetry"
)

// RuntimeProfile configures the node checker for one hosting context.
type RuntimeProfile struct {
	Type             types.DependencyType
	SupportedMajors  []int
	NotFoundLink     string
	NotSupportedLink string
}

var (
	AzureNodeProfile = RuntimeProfile{
		Type:             types.AzureNode,
		SupportedMajors:  []int{14, 16, 18},
		NotFoundLink:     types.NodeNotFoundHelpLink,
		NotSupportedLink: types.NodeNotSupportedForAzureHelpLink,
	}
	FunctionNodeProfile = RuntimeProfile{
		Type:             types.FunctionNode,
		SupportedMajors:  []int{14, 16, 18},
		NotFoundLink:     types.NodeNotFoundHelpLink,
		NotSupportedLink: types.NodeNotSupportedForFunctionsHelpLink,
	}
	SPFxNodeProfile = RuntimeProfile{
		Type:             types.SPFxNode,
		SupportedMajors:  []int{12, 14, 16},
		NotFoundLink:     types.NodeNotFoundHelpLink,
		NotSupportedLink: types.NodeNotSupportedForSPFxHelpLink,
	}
)

const nodeName = "Node.js"

// NodeChecker verifies the installed node runtime. It never installs.
type NodeChecker struct {
	base
	profile RuntimeProfile
}

// NewNodeChecker creates a runtime checker for one hosting context.
func NewNodeChecker(env Env, profile RuntimeProfile, log logger.DepsLogger, tel telemetry.Telemetry) *NodeChecker {
	return &NodeChecker{base: newBase(env, log, tel), profile: profile}
}

func (c *NodeChecker) supportedVersions() []string {
	out := make([]string, 0, len(c.profile.SupportedMajors))
	for _, m := range c.profile.SupportedMajors {
		out = append(out, "v"+strconv.Itoa(m))
	}
	return out
}

func (c *NodeChecker) status() *types.DependencyStatus {
	return &types.DependencyStatus{
		Name:    nodeName,
		Type:    c.profile.Type,
		Command: "node",
		Details: types.DependencyDetails{
			IsLinuxSupported:  true,
			SupportedVersions: c.supportedVersions(),
		},
	}
}

func (c *NodeChecker) GetInstallationInfo(ctx context.Context) (*types.DependencyStatus, error) {
	status := c.status()
	supported := strings.Join(c.supportedVersions(), ", ")

	v, err := c.nodeVersion(ctx)
	if err != nil {
		c.logger.Debug(fmt.Sprintf("node not found: %v", err))
		c.telemetry.SendEvent(telemetry.EventNodeNotFound, nil, 0)
		status.Error = types.NewNotFoundError(
			fmt.Sprintf("Cannot find Node.js. Install Node.js (%s) and try again.", supported),
			c.profile.NotFoundLink)
		return status, nil
	}

	status.Details.InstallVersion = "v" + v.String()
	if !version.ContainsMajor(c.profile.SupportedMajors, v.Major) {
		c.telemetry.SendEvent(telemetry.EventNodeNotSupported, map[string]string{
			telemetry.PropDetectedVersion:   v.String(),
			telemetry.PropSupportedVersions: supported,
		}, 0)
		status.Error = types.NewNotSupportedError(
			fmt.Sprintf("Node.js v%s is not supported. Supported versions: %s.", v.String(), supported),
			c.profile.NotSupportedLink)
		return status, nil
	}

	status.IsInstalled = true
	return status, nil
}

func (c *NodeChecker) Resolve(ctx context.Context) (*types.DependencyStatus, error) {
	defer c.logger.Cleanup()

	status, err := c.GetInstallationInfo(ctx)
	if err != nil {
		return c.fail(c.status(), err, types.DefaultHelpLink)
	}
	if status.Error != nil {
		return c.fail(status, status.Error, c.profile.NotFoundLink)
	}
	return status, nil
}

func (c *NodeChecker) IsInstalled(ctx context.Context) bool {
	status, err := c.GetInstallationInfo(ctx)
	return err == nil && status.IsInstalled
}

func (c *NodeChecker) Command(context.Context) string { return "node" }

func (c *NodeChecker) GetDepsInfo(context.Context) (*types.DependencyInfo, error) {
	return &types.DependencyInfo{
		Name:              nodeName,
		Type:              c.profile.Type,
		SupportedVersions: c.supportedVersions(),
		IsLinuxSupported:  true,
	}, nil
}
