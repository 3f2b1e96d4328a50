package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/types"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/detector"
)

func TestRenderStatuses(t *testing.T) {
	out := RenderStatuses([]types.DependencyStatus{
		{
			Name:        "Node.js",
			Type:        types.AzureNode,
			IsInstalled: true,
			Command:     "node",
			Details: types.DependencyDetails{
				InstallVersion:    "v18.17.1",
				SupportedVersions: []string{"v16", "v18", "v20"},
			},
		},
		{
			Name: ".NET Core SDK",
			Type: types.Dotnet,
			Error: types.NewInstallFailedError(
				"Failed to install .NET Core SDK", types.DotnetFailToInstallHelpLink, nil),
		},
	}, false)

	assert.Contains(t, out, "✓ Node.js")
	assert.Contains(t, out, "version: v18.17.1")
	assert.Contains(t, out, "supported: v16, v18, v20")
	assert.Contains(t, out, "✗ .NET Core SDK")
	assert.Contains(t, out, "error: Failed to install .NET Core SDK")
	assert.Contains(t, out, "help: "+types.DotnetFailToInstallHelpLink)
	assert.Contains(t, out, "1 of 2 dependencies ready")
}

func TestRenderStatusesEmpty(t *testing.T) {
	assert.Contains(t, RenderStatuses(nil, false), "No dependencies requested.")
}

func TestRenderDepsInfo(t *testing.T) {
	out := RenderDepsInfo([]types.DependencyInfo{
		{Name: "ngrok", Type: types.Ngrok, InstallVersion: "4.3.3", IsLinuxSupported: true},
	}, false)
	assert.Contains(t, out, "• ngrok (ngrok)")
	assert.Contains(t, out, "installs: 4.3.3")
	assert.Contains(t, out, "linux: yes")
}

func TestRenderDetection(t *testing.T) {
	out := RenderDetection(&detector.Result{
		Root:     "/work/bot",
		Findings: []detector.Finding{{Type: types.FuncCoreTools, Reason: "host.json found"}},
	}, false)
	assert.Contains(t, out, "Project Path: /work/bot")
	assert.Contains(t, out, "• func-core-tools (host.json found)")

	assert.Empty(t, RenderDetection(nil, false))
}
