package checker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/fileutil"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/types"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/telemetry"
)

func TestVxTestAppChecker_Options(t *testing.T) {
	tests := []struct {
		name    string
		opts    VxTestAppOptions
		invalid bool
	}{
		{name: "both absent uses defaults", opts: VxTestAppOptions{}},
		{name: "both present", opts: VxTestAppOptions{Version: "1.0.2", SymlinkDir: "devTools/vx"}},
		{name: "version only", opts: VxTestAppOptions{Version: "1.0.2"}, invalid: true},
		{name: "symlink only", opts: VxTestAppOptions{SymlinkDir: "devTools/vx"}, invalid: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, _, dl := newTestEnv(t, "darwin")
			env.Settings.VxTestApp = tt.opts
			c := NewVxTestAppChecker(env, nil, nil)

			status, err := c.GetInstallationInfo(context.Background())
			require.NoError(t, err)
			assert.False(t, status.IsInstalled)
			if !tt.invalid {
				assert.Nil(t, status.Error)
				return
			}
			require.NotNil(t, status.Error)
			assert.Equal(t, types.KindInvalidOptions, status.Error.Kind)

			_, err = c.Resolve(context.Background())
			assert.True(t, types.IsInvalidOptions(err))
			assert.Empty(t, dl.calls)
		})
	}
}

func TestVxTestAppChecker_DownloadsAndLinks(t *testing.T) {
	env, _, dl := newTestEnv(t, "darwin")
	env.Arch = "arm64"
	env.Settings.VxTestAppBaseURL = "https://example.test/releases/"
	dl.fn = func(url, dst string) error {
		writeZip(t, dst, map[string]string{
			"video-extensibility-test-app.app/Contents/Info.plist": "<plist/>",
		})
		return nil
	}
	rec := &telemetry.Recorder{}

	c := NewVxTestAppChecker(env, nil, rec)
	status, err := c.Resolve(context.Background())
	require.NoError(t, err)
	assert.True(t, status.IsInstalled)
	require.Len(t, dl.calls, 1)
	assert.Equal(t, "https://example.test/releases/v"+DefaultVxTestAppVersion+"/video-extensibility-test-app-darwin-arm64.zip", dl.calls[0])
	assert.True(t, rec.Has(telemetry.EventVxTestAppInstall))

	global := env.binDir("vxTestApp", DefaultVxTestAppVersion)
	assert.True(t, fileutil.Exists(filepath.Join(global, "vxTestApp-sentinel")))
	link := filepath.Join(env.ProjectPath, DefaultVxTestAppSymlinkDir)
	target, err := os.Readlink(link)
	require.NoError(t, err)
	assert.Equal(t, global, target)

	// the archive is not kept
	for _, name := range fileutil.ListDirs(env.binDir("vxTestApp")) {
		assert.Equal(t, DefaultVxTestAppVersion, name)
	}

	// second project reuses the global copy
	env.ProjectPath = t.TempDir()
	status, err = NewVxTestAppChecker(env, nil, nil).Resolve(context.Background())
	require.NoError(t, err)
	assert.True(t, status.IsInstalled)
	assert.Len(t, dl.calls, 1)
	assert.True(t, NewVxTestAppChecker(env, nil, nil).IsInstalled(context.Background()))
}

func TestVxTestAppChecker_DownloadFailure(t *testing.T) {
	env, _, _ := newTestEnv(t, "windows")
	rec := &telemetry.Recorder{}

	status, err := NewVxTestAppChecker(env, nil, rec).Resolve(context.Background())
	assert.True(t, types.IsInstallFailed(err))
	assert.False(t, status.IsInstalled)
	assert.True(t, rec.Has(telemetry.EventVxTestAppInstallError))
	assert.Empty(t, fileutil.ListDirs(env.binDir("vxTestApp")))
}

func TestVxTestAppChecker_PostInstallVerification(t *testing.T) {
	env, _, dl := newTestEnv(t, "darwin")
	dl.fn = func(url, dst string) error {
		writeZip(t, dst, map[string]string{"README.txt": "missing app bundle"})
		return nil
	}

	status, err := NewVxTestAppChecker(env, nil, nil).Resolve(context.Background())
	assert.True(t, types.IsValidationFailed(err))
	assert.Contains(t, status.Error.Message, "post-install verification failed")
	assert.False(t, status.IsInstalled)
}

func TestVxTestAppChecker_Linux(t *testing.T) {
	env, _, dl := newTestEnv(t, "linux")

	_, err := NewVxTestAppChecker(env, nil, nil).Resolve(context.Background())
	assert.True(t, types.IsPlatformNotSupported(err))
	assert.Empty(t, dl.calls)
}
