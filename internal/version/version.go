// Package version reports the build version of the devscan binaries.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set at build time:
//
//	go build -ldflags="-X github.com/muurk/devscan/internal/version.Version=v1.2.3 \
//	                   -X github.com/muurk/devscan/internal/version.Commit=abc123"
//
// Unset values are filled from the VCS stamp of the build, then default to
// "dev" and "unknown".
var (
	Version = ""
	Commit  = ""
)

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		fill(info.Settings)
	}
	if Version == "" {
		Version = "dev"
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// fill sets Version and Commit from vcs.* build settings
func fill(settings []debug.BuildSetting) {
	vcs := make(map[string]string, len(settings))
	for _, s := range settings {
		vcs[s.Key] = s.Value
	}

	if Commit == "" && vcs["vcs.revision"] != "" {
		Commit = vcs["vcs.revision"]
		if len(Commit) > 7 {
			Commit = Commit[:7]
		}
		if vcs["vcs.modified"] == "true" {
			Commit += "-dirty"
		}
	}
	// no tags in the build info, the commit date stands in
	if Version == "" && len(vcs["vcs.time"]) >= 10 {
		Version = "dev-" + vcs["vcs.time"][:4] + vcs["vcs.time"][5:7] + vcs["vcs.time"][8:10]
	}
}

// Info describes the running build
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// Get returns the build description
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Full returns the version including the commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}
