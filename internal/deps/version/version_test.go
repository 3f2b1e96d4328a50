package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNodeVersion(t *testing.T) {
	t.Run("typical output", func(t *testing.T) {
		v, err := ParseNodeVersion("v16.14.2\n")
		require.NoError(t, err)
		assert.Equal(t, 16, v.Major)
		assert.Equal(t, "16.14.2", v.String())
	})

	t.Run("missing leading v", func(t *testing.T) {
		_, err := ParseNodeVersion("16.14.2")
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseNodeVersion("command not found")
		assert.Error(t, err)
	})
}

func TestParseTriple(t *testing.T) {
	v, err := ParseTriple("Core Tools Version: 4.0.5198 Commit hash: N/A")
	require.NoError(t, err)
	assert.Equal(t, Triple{Major: 4, Minor: 0, Patch: 5198, Raw: "4.0.5198"}, v)
	assert.Equal(t, "4.0", v.MajorMinor())
}

func TestParseListSdks(t *testing.T) {
	output := "3.1.416 [/usr/share/dotnet/sdk]\r\n" +
		"5.0.201 [C:\\Program Files\\dotnet\\sdk]\n" +
		"\n" +
		"6.0.100-preview.1 [/opt/dotnet/sdk]\n" +
		"not an sdk line\n"

	sdks := ParseListSdks(output)
	// preview SDKs do not match and are skipped
	require.Len(t, sdks, 2)
	assert.Equal(t, SDK{Version: "3.1.416", Path: "/usr/share/dotnet/sdk"}, sdks[0])
	assert.Equal(t, SDK{Version: "5.0.201", Path: `C:\Program Files\dotnet\sdk`}, sdks[1])
}

func TestContainsMajorBoundaries(t *testing.T) {
	accepted := []int{14, 16, 18}
	for major, want := range map[int]bool{13: false, 14: true, 16: true, 18: true, 19: false, 15: false} {
		assert.Equal(t, want, ContainsMajor(accepted, major), "major %d", major)
	}
}

func TestSatisfyingDesc(t *testing.T) {
	t.Run("tilde range picks patch line only", func(t *testing.T) {
		got := SatisfyingDesc([]string{"1.2.2", "1.3.0", "1.2.3", "tmp-abc123"}, "~1.2.3")
		assert.Equal(t, []string{"1.2.3"}, got)
	})

	t.Run("major range sorted newest first", func(t *testing.T) {
		got := SatisfyingDesc([]string{"4.0.4590", "3.0.3904", "4.0.5198", "4.1.0"}, "4")
		assert.Equal(t, []string{"4.1.0", "4.0.5198", "4.0.4590"}, got)
	})

	t.Run("invalid range", func(t *testing.T) {
		assert.Empty(t, SatisfyingDesc([]string{"1.0.0"}, "not a range !!"))
	})
}

func TestMaxSatisfying(t *testing.T) {
	v, ok := MaxSatisfying([]string{"1.2.2", "1.2.3", "1.3.0"}, "~1.2.3")
	require.True(t, ok)
	assert.Equal(t, "1.2.3", v)

	_, ok = MaxSatisfying([]string{"2.0.0"}, "~1.2.3")
	assert.False(t, ok)
}

func TestCompare(t *testing.T) {
	assert.True(t, Satisfies("v4.0.5198", "4"))
	assert.False(t, Satisfies("3.0.3904", "4"))
	assert.True(t, GreaterThan("0.2.1", "0.2.0"))
	assert.False(t, GreaterThan("0.2.0", "0.2.0"))
	assert.True(t, GreaterThanOrEqual("0.2.0", "0.2.0"))
	assert.True(t, IsValid("1.2.3"))
	assert.False(t, IsValid("tmp-123456"))
}
