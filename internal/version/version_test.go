package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo()

	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Contains(t, info.Platform, runtime.GOOS)
}

func TestGetVersionString(t *testing.T) {
	origCommit := GitCommit
	defer func() { GitCommit = origCommit }()

	GitCommit = "unknown"
	assert.Equal(t, "mailpilot "+Version, GetVersionString())

	GitCommit = "abcdef1234567890"
	assert.Equal(t, "mailpilot "+Version+" (abcdef12)", GetVersionString())
}

func TestGetDetailedVersionString(t *testing.T) {
	out := GetDetailedVersionString()

	assert.Contains(t, out, "mailpilot "+Version)
	assert.Contains(t, out, "Git commit:")
	assert.Contains(t, out, "Go version:")
	assert.Contains(t, out, "Platform:")
}

func TestReleaseDetection(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	defer func() { Version, GitCommit = origVersion, origCommit }()

	GitCommit = "unknown"
	assert.False(t, IsRelease())
	assert.True(t, IsDevelopment())

	GitCommit = "abcdef12"
	Version = "1.0.0"
	assert.True(t, IsRelease())

	Version = "1.1.0-dev"
	assert.False(t, IsRelease())
}
