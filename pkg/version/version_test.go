package version

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo()

	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.GitCommit)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	assert.True(t, strings.HasPrefix(info.GoVersion, "go"))
}

func TestGetInfoKeepsReleaseVersion(t *testing.T) {
	saved := Version
	t.Cleanup(func() { Version = saved })

	Version = "v1.2.3"
	assert.Equal(t, "v1.2.3", GetInfo().Version)
}

func TestInfoString(t *testing.T) {
	info := Info{
		Version:   "1.0.0",
		GitCommit: "abc1234",
		BuildTime: "2024-01-01",
		GoVersion: "go1.23",
		Platform:  "linux/amd64",
	}

	assert.Equal(t, "termreel 1.0.0 (commit abc1234, built 2024-01-01, go1.23, linux/amd64)", info.String())
	assert.Equal(t, "termreel 1.0.0", info.Short())
}
