package app

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionInfo_WithoutBuildInfo(t *testing.T) {
	v := versionInfo(nil, false)

	assert.Equal(t, Version, v.Version)
	assert.Equal(t, "GoSketch dev (commit: unknown, built: unknown)", v.FullString())
}

func TestVersionInfo_FillsFromBuildInfo(t *testing.T) {
	build := &debug.BuildInfo{
		GoVersion: "go1.25.0",
		Main:      debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		},
	}

	v := versionInfo(build, true)

	assert.Equal(t, "v0.3.1", v.Version)
	assert.Equal(t, "0123456", v.GitCommit)
	assert.Equal(t, "2026-01-02T03:04:05Z", v.BuildTime)
	assert.Equal(t, "GoSketch v0.3.1 (commit: 0123456, built: 2026-01-02T03:04:05Z, go1.25.0)", v.FullString())
}

func TestVersionInfo_DevelBuildKeepsDefault(t *testing.T) {
	v := versionInfo(&debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, true)
	assert.Equal(t, "dev", v.Version)
}
