package contracts

import (
	"runtime"
	"runtime/debug"
	"sync"
)

const (
	// Version is the release of the analyzer and its CLI.
	Version = "1.0.0"

	// APIVersion is the version of the HTTP and WebSocket contracts.
	APIVersion = "v1"
)

// Overridable with -ldflags "-X hotfire/pkg/contracts.GitCommit=...". When
// left at "unknown" the VCS stamp from the Go build info is used.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo is served by GET /api/version.
type VersionInfo struct {
	Version      string `json:"version"`
	APIVersion   string `json:"api_version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	Modified     bool   `json:"modified,omitempty"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
}

var versionInfo = sync.OnceValue(func() VersionInfo {
	info := VersionInfo{
		Version:      Version,
		APIVersion:   APIVersion,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "unknown" {
				info.GitCommit = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "unknown" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
})

// GetVersionInfo returns the build description, computed once.
func GetVersionInfo() VersionInfo {
	return versionInfo()
}

// GetVersionString returns "Hotfire Analyzer v<version>".
func GetVersionString() string {
	return "Hotfire Analyzer v" + Version
}
