// Package version reports which memex build is running.
//
// Release builds stamp the values with ldflags:
//
//	-X github.com/Aman-CERP/memex/pkg/version.Version=$(VERSION)
//	-X github.com/Aman-CERP/memex/pkg/version.Commit=$(git rev-parse --short HEAD)
//	-X github.com/Aman-CERP/memex/pkg/version.Date=$(date -u +%FT%TZ)
//
// Binaries built with `go install` or `go build` carry no ldflags; GetInfo
// then falls back to the module version and VCS stamps embedded by the
// toolchain.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const unknown = "unknown"

// Stamped at link time.
var (
	Version = "dev"
	Commit  = unknown
	Date    = unknown
)

// BuildInfo describes the running binary. It is printed by `memex version --json`.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetInfo merges the ldflags values with the toolchain's embedded build info.
// Stamped values always win.
func GetInfo() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		fillFromBuildInfo(&info, bi)
	}
	return info
}

func fillFromBuildInfo(info *BuildInfo, bi *debug.BuildInfo) {
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == unknown {
				info.Commit = shortRevision(s.Value)
			}
		case "vcs.time":
			if info.Date == unknown {
				info.Date = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

// String renders the one-line form printed by `memex version`.
func (b BuildInfo) String() string {
	commit := b.Commit
	if b.Modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("memex %s (commit: %s, built: %s, %s %s/%s)",
		b.Version, commit, b.Date, b.GoVersion, b.OS, b.Arch)
}

// String is GetInfo().String().
func String() string {
	return GetInfo().String()
}

// Short returns the version alone.
func Short() string {
	return GetInfo().Version
}
