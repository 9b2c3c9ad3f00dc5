package version

import (
	"encoding/json"
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stamp sets the link-time values for one test.
func stamp(t *testing.T, version, commit, date string) {
	t.Helper()
	oldV, oldC, oldD := Version, Commit, Date
	Version, Commit, Date = version, commit, date
	t.Cleanup(func() { Version, Commit, Date = oldV, oldC, oldD })
}

func TestFillFromBuildInfo(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "v1.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}

	tests := []struct {
		name string
		in   BuildInfo
		want BuildInfo
	}{
		{
			name: "unstamped binary takes toolchain values",
			in:   BuildInfo{Version: "dev", Commit: unknown, Date: unknown},
			want: BuildInfo{Version: "v1.4.0", Commit: "0123456789ab", Date: "2026-01-02T03:04:05Z", Modified: true},
		},
		{
			name: "ldflags win",
			in:   BuildInfo{Version: "1.5.0", Commit: "abc1234", Date: "2026-02-01T00:00:00Z"},
			want: BuildInfo{Version: "1.5.0", Commit: "abc1234", Date: "2026-02-01T00:00:00Z", Modified: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in
			fillFromBuildInfo(&got, bi)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFillFromBuildInfo_DevelKeepsDev(t *testing.T) {
	info := BuildInfo{Version: "dev", Commit: unknown, Date: unknown}

	fillFromBuildInfo(&info, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})

	assert.Equal(t, "dev", info.Version)
	assert.Equal(t, unknown, info.Commit)
}

func TestGetInfo_StampedValues(t *testing.T) {
	stamp(t, "2.0.0", "feedbee", "2026-03-04T05:06:07Z")

	info := GetInfo()

	assert.Equal(t, "2.0.0", info.Version)
	assert.Equal(t, "feedbee", info.Commit)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, "2.0.0", Short())
}

func TestString(t *testing.T) {
	info := BuildInfo{
		Version: "1.0.0", Commit: "abc", Date: "today", Modified: true,
		GoVersion: "go1.25.5", OS: "linux", Arch: "amd64",
	}

	assert.Equal(t, "memex 1.0.0 (commit: abc-dirty, built: today, go1.25.5 linux/amd64)", info.String())
}

func TestBuildInfo_JSON(t *testing.T) {
	data, err := json.Marshal(BuildInfo{Version: "1.0.0", GoVersion: "go1.25.5", OS: "darwin", Arch: "arm64"})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "darwin", m["os"])
	assert.Equal(t, "go1.25.5", m["go_version"])
	assert.NotContains(t, m, "modified")
}
