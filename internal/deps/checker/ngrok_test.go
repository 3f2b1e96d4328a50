package checker

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/fileutil"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/types"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/telemetry"
)

func TestNgrokChecker_InstallsPortableCopy(t *testing.T) {
	env, mock, _ := newTestEnv(t, "linux")
	root := env.binDir("ngrok")
	mock.Hooks["npm install ngrok@4.3.3"] = func() {
		for _, name := range fileutil.ListDirs(root) {
			if strings.HasPrefix(name, "tmp-") {
				mkdir(t, filepath.Join(root, name, "node_modules", "ngrok", "bin"))
			}
		}
		// the wrapper's binary only becomes reachable once installed
		mock.Responses["ngrok version"] = "ngrok version 2.3.40"
	}
	rec := &telemetry.Recorder{}

	c := NewNgrokChecker(env, nil, rec)
	status, err := c.Resolve(context.Background())
	require.NoError(t, err)
	assert.True(t, status.IsInstalled)

	binFolder := filepath.Join(root, "4.3.3", "node_modules", "ngrok", "bin")
	assert.Equal(t, []string{binFolder}, status.Details.BinFolders)
	assert.True(t, fileutil.Exists(filepath.Join(root, "4.3.3", "ngrok-sentinel")))
	assert.True(t, rec.Has(telemetry.EventNgrokInstallCompleted))

	last := mock.RecordedCalls[len(mock.RecordedCalls)-1]
	assert.Equal(t, "ngrok version", last.Key())
	assert.Equal(t, "sh", last.Opts.Shell)
	require.Len(t, last.Opts.Env, 1)
	assert.True(t, strings.HasPrefix(last.Opts.Env[0], "PATH="+binFolder))
}

func TestNgrokChecker_RejectsUnsupportedBinary(t *testing.T) {
	env, mock, _ := newTestEnv(t, "linux")
	mock.Responses["ngrok version"] = "ngrok version 1.7.0"

	c := NewNgrokChecker(env, nil, nil)
	assert.False(t, c.IsInstalled(context.Background()))

	status, err := c.Resolve(context.Background())
	assert.Error(t, err)
	assert.False(t, status.IsInstalled)
	assert.Equal(t, types.NgrokInstallationHelpLink, status.Error.HelpLink)
}

func TestNgrokChecker_GlobalBinary(t *testing.T) {
	env, mock, _ := newTestEnv(t, "darwin")
	mock.Responses["ngrok version"] = "ngrok version 3.1.0"

	status, err := NewNgrokChecker(env, nil, nil).Resolve(context.Background())
	require.NoError(t, err)
	assert.True(t, status.IsInstalled)
	assert.Empty(t, status.Details.BinFolders)
	assert.False(t, mock.Called("npm install"))
}

func TestNgrokChecker_SentinelGuardsPortableCopy(t *testing.T) {
	env, mock, _ := newTestEnv(t, "linux")
	dir := env.binDir("ngrok", "4.3.3")
	mkdir(t, filepath.Join(dir, "node_modules", "ngrok", "bin"))
	mock.Responses["ngrok version"] = "ngrok version 2.3.40"

	// no sentinel: the half-written copy is ignored and the global binary wins
	status, err := NewNgrokChecker(env, nil, nil).GetInstallationInfo(context.Background())
	require.NoError(t, err)
	assert.True(t, status.IsInstalled)
	assert.Empty(t, status.Details.BinFolders)

	touch(t, filepath.Join(dir, "ngrok-sentinel"))
	status, err = NewNgrokChecker(env, nil, nil).GetInstallationInfo(context.Background())
	require.NoError(t, err)
	assert.Len(t, status.Details.BinFolders, 1)
}

func TestNgrokChecker_NpmInstallFailure(t *testing.T) {
	env, mock, _ := newTestEnv(t, "linux")
	mock.Errors["npm install"] = errors.New("E404")
	rec := &telemetry.Recorder{}

	status, err := NewNgrokChecker(env, nil, rec).Resolve(context.Background())
	assert.True(t, types.IsInstallFailed(err))
	assert.False(t, status.IsInstalled)
	assert.True(t, rec.Has(telemetry.EventNgrokInstallError))
	for _, name := range fileutil.ListDirs(env.binDir("ngrok")) {
		assert.NotContains(t, name, "tmp-")
	}
}
