package detector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/types"
)

const localYAML = `version: v1.5
provision:
  - uses: teamsApp/create
deploy:
  - uses: devTool/install
    with:
      func:
        version: ~4.0.5455
        symlinkDir: ./devTools/func
      dotnet: false
      testTool:
        version: ~0.2.0
        symlinkDir: ./devTools/teamsapptester
`

func TestDetectFunctionsBot(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"package.json":       `{"name":"bot"}`,
		"host.json":          `{"version":"2.0"}`,
		"src/index.ts":       "export const a = 1;\n",
		"teamsapp.local.yml": localYAML,
		".vscode/tasks.json": `{"tasks":[{"label":"Start local tunnel","type":"teamsfx","command":"debug-start-local-tunnel","args":{"type":"ngrok"}}]}`,
	})

	res, err := Detect(context.Background(), root, DefaultRules())
	require.NoError(t, err)

	assert.Equal(t, []types.DependencyType{
		types.FunctionNode,
		types.FuncCoreTools,
		types.Ngrok,
		types.TestTool,
	}, res.Types())
	assert.Equal(t, "Azure Functions project with package.json", res.Findings[0].Reason)
	assert.Equal(t, "host.json found", res.Findings[1].Reason)
}

func TestDetectSPFx(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"package.json": `{"name":"webpart"}`,
		".yo-rc.json":  `{"@microsoft/generator-sharepoint":{"version":"1.18.0"}}`,
	})

	res, err := Detect(context.Background(), root, DefaultRules())
	require.NoError(t, err)
	assert.Equal(t, []types.DependencyType{types.SPFxNode}, res.Types())
}

func TestDetectDotnet(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"Bot.csproj":            "<Project Sdk=\"Microsoft.NET.Sdk.Web\"></Project>\n",
		"Program.cs":            "namespace Bot { class Program {} }\n",
		"teamsapp.testtool.yml": "deploy:\n  - uses: devTool/install\n    with:\n      dotnet: true\n      testTool:\n        version: ~0.2.0\n",
	})

	res, err := Detect(context.Background(), root, DefaultRules())
	require.NoError(t, err)
	require.Len(t, res.Findings, 2)
	assert.Equal(t, types.Dotnet, res.Findings[0].Type)
	assert.Equal(t, "Bot.csproj found", res.Findings[0].Reason)
	assert.Equal(t, types.TestTool, res.Findings[1].Type)
}

func TestDetectEmptyProject(t *testing.T) {
	res, err := Detect(context.Background(), t.TempDir(), DefaultRules())
	require.NoError(t, err)
	assert.Empty(t, res.Findings)
	assert.Empty(t, res.Types())
}

func TestDetectInvalidLifecycleFile(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"teamsapp.local.yml": "deploy: [unclosed\n",
	})

	_, err := Detect(context.Background(), root, DefaultRules())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rule devtool")
}

type failingRule struct{}

func (failingRule) Name() string { return "failing" }
func (failingRule) Detect(context.Context, *Project) ([]Finding, error) {
	return nil, errors.New("boom")
}

func TestDetectRuleError(t *testing.T) {
	_, err := Detect(context.Background(), t.TempDir(), []Rule{failingRule{}})
	assert.ErrorContains(t, err, "rule failing: boom")
}

func TestDetectCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Detect(ctx, t.TempDir(), DefaultRules())
	assert.ErrorIs(t, err, context.Canceled)
}
