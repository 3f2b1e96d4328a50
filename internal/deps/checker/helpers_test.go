package checker

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/commander"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeDownloader struct {
	calls []string
	fn    func(url, dst string) error
}

func (f *fakeDownloader) DownloadFile(_ context.Context, url, dst string) error {
	f.calls = append(f.calls, url)
	if f.fn == nil {
		return errors.New("network unavailable")
	}
	return f.fn(url, dst)
}

type fakeRegistry struct {
	latest string
	err    error
	calls  int
}

func (f *fakeRegistry) MaxSatisfyingVersion(context.Context, string, string) (string, error) {
	f.calls++
	return f.latest, f.err
}

func newTestEnv(t *testing.T, goos string) (Env, *commander.Mock, *fakeDownloader) {
	t.Helper()
	mock := commander.NewMock()
	dl := &fakeDownloader{}
	env := Env{
		OS:          goos,
		Arch:        "amd64",
		ConfigRoot:  t.TempDir(),
		ProjectPath: t.TempDir(),
		Commander:   mock,
		Downloader:  dl,
		Now:         func() time.Time { return testNow },
		Settings:    DefaultSettings(),
	}
	return env, mock, dl
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte{}, 0755))
}

func mkdir(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(path, 0755))
}

func writeZip(t *testing.T, dst string, files map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0755))
	f, err := os.Create(dst)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for name, content := range files {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
}
