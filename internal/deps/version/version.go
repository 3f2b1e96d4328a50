// Package version parses tool version output and evaluates npm-style version ranges.
package version

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var (
	nodeVersionRegex   = regexp.MustCompile(`v(\d+)\.(\d+)\.(\d+)`)
	tripleVersionRegex = regexp.MustCompile(`(\d+)\.(\d+)\.(\d+)`)
	listSdksRegex      = regexp.MustCompile(`(?P<version>\d+\.\d+\.\d+)\s+\[(?P<installPath>[^\]]+)\]`)
)

// Triple is a parsed MAJOR.MINOR.PATCH version.
type Triple struct {
	Major int
	Minor int
	Patch int
	// Raw is the matched text.
	Raw string
}

func (t Triple) String() string {
	return fmt.Sprintf("%d.%d.%d", t.Major, t.Minor, t.Patch)
}

// MajorMinor renders the version as "MAJOR.MINOR".
func (t Triple) MajorMinor() string {
	return fmt.Sprintf("%d.%d", t.Major, t.Minor)
}

// ParseNodeVersion parses `node --version` output such as "v16.14.2".
func ParseNodeVersion(output string) (Triple, error) {
	return parse(nodeVersionRegex, output)
}

// ParseTriple finds the first MAJOR.MINOR.PATCH in output.
func ParseTriple(output string) (Triple, error) {
	return parse(tripleVersionRegex, output)
}

func parse(re *regexp.Regexp, output string) (Triple, error) {
	m := re.FindStringSubmatch(output)
	if m == nil {
		return Triple{}, fmt.Errorf("no version found in %q", strings.TrimSpace(output))
	}
	var nums [3]int
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return Triple{}, fmt.Errorf("invalid version %q: %w", m[0], err)
		}
		nums[i] = n
	}
	return Triple{Major: nums[0], Minor: nums[1], Patch: nums[2], Raw: m[0]}, nil
}

// SDK is one line of `dotnet --list-sdks`.
type SDK struct {
	Version string
	Path    string
}

// ParseListSdks parses `dotnet --list-sdks` output, one version and install path per line.
func ParseListSdks(output string) []SDK {
	var sdks []SDK
	vi := listSdksRegex.SubexpIndex("version")
	pi := listSdksRegex.SubexpIndex("installPath")
	for _, line := range strings.Split(strings.ReplaceAll(output, "\r\n", "\n"), "\n") {
		m := listSdksRegex.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil || m[pi] == "" {
			continue
		}
		sdks = append(sdks, SDK{Version: m[vi], Path: m[pi]})
	}
	return sdks
}

// ContainsMajor reports whether major is in the accepted set.
func ContainsMajor(accepted []int, major int) bool {
	for _, a := range accepted {
		if a == major {
			return true
		}
	}
	return false
}

// Satisfies reports whether v is a valid semver inside the npm-style range.
func Satisfies(v, rangeStr string) bool {
	c, err := semver.NewConstraint(rangeStr)
	if err != nil {
		return false
	}
	sv, err := semver.StrictNewVersion(strings.TrimPrefix(strings.TrimSpace(v), "v"))
	if err != nil {
		return false
	}
	return c.Check(sv)
}

// IsValid reports whether name is a strict MAJOR.MINOR.PATCH semver.
func IsValid(name string) bool {
	_, err := semver.StrictNewVersion(name)
	return err == nil
}

// SatisfyingDesc filters candidates to valid versions inside rangeStr, newest first.
func SatisfyingDesc(candidates []string, rangeStr string) []string {
	c, err := semver.NewConstraint(rangeStr)
	if err != nil {
		return nil
	}
	var matched semver.Collection
	for _, name := range candidates {
		v, err := semver.StrictNewVersion(name)
		if err != nil || !c.Check(v) {
			continue
		}
		matched = append(matched, v)
	}
	sort.Sort(sort.Reverse(matched))
	out := make([]string, 0, len(matched))
	for _, v := range matched {
		out = append(out, v.Original())
	}
	return out
}

// MaxSatisfying returns the newest candidate inside rangeStr.
func MaxSatisfying(candidates []string, rangeStr string) (string, bool) {
	matched := SatisfyingDesc(candidates, rangeStr)
	if len(matched) == 0 {
		return "", false
	}
	return matched[0], true
}

// GreaterThan reports whether a is a strictly newer semver than b.
func GreaterThan(a, b string) bool {
	va, err := semver.NewVersion(a)
	if err != nil {
		return false
	}
	vb, err := semver.NewVersion(b)
	if err != nil {
		return false
	}
	return va.GreaterThan(vb)
}

// GreaterThanOrEqual reports whether a is the same or newer than b.
func GreaterThanOrEqual(a, b string) bool {
	va, err := semver.NewVersion(a)
	if err != nil {
		return false
	}
	vb, err := semver.NewVersion(b)
	if err != nil {
		return false
	}
	return !va.LessThan(vb)
}
