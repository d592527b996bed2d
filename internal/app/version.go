package app

import (
	"fmt"
	"runtime/debug"
)

// Build-time variables set via ldflags:
//
//	-ldflags "-X github.com/tejashwikalptaru/gosketch/internal/app.Version=v1.2.0"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// VersionInfo describes the running build.
type VersionInfo struct {
	Version   string
	GitCommit string
	BuildTime string
	GoVersion string
}

// GetVersionInfo returns the ldflags values, filled in from the embedded
// build information when they were not set.
func GetVersionInfo() VersionInfo {
	return versionInfo(debug.ReadBuildInfo())
}

func versionInfo(build *debug.BuildInfo, ok bool) VersionInfo {
	v := VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
	}
	if !ok || build == nil {
		return v
	}

	v.GoVersion = build.GoVersion
	if v.Version == "dev" && build.Main.Version != "" && build.Main.Version != "(devel)" {
		v.Version = build.Main.Version
	}
	for _, s := range build.Settings {
		switch s.Key {
		case "vcs.revision":
			if v.GitCommit == "unknown" && len(s.Value) >= 7 {
				v.GitCommit = s.Value[:7]
			}
		case "vcs.time":
			if v.BuildTime == "unknown" {
				v.BuildTime = s.Value
			}
		}
	}
	return v
}

// FullString returns the version line logged at startup.
func (v VersionInfo) FullString() string {
	s := fmt.Sprintf("GoSketch %s (commit: %s, built: %s", v.Version, v.GitCommit, v.BuildTime)
	if v.GoVersion != "" {
		s += ", " + v.GoVersion
	}
	return s + ")"
}
