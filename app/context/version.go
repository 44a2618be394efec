package context

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// The semantic version of the application.
const version = "0.1.0"

// VersionInfo stores app version information.
type VersionInfo struct {
	Semantic string
	Commit   string
	Dirty    bool
	goInfo   string
}

// GetVersion returns the app version including VCS and Go runtime
// information, as far as the Go runtime knows about it.
func GetVersion() *VersionInfo {
	vi := &VersionInfo{
		Semantic: version,
		goInfo:   fmt.Sprintf("%s, %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
	}

	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		vi.fromBuildSettings(buildInfo.Settings)
	}

	return vi
}

// String returns the full version information.
func (vi *VersionInfo) String() string {
	if vi.Commit == "" {
		return fmt.Sprintf("v%s (%s)", vi.Semantic, vi.goInfo)
	}

	var dirty string
	if vi.Dirty {
		dirty = "-dirty"
	}

	return fmt.Sprintf("v%s (commit/%s%s, %s)", vi.Semantic, vi.Commit, dirty, vi.goInfo)
}

func (vi *VersionInfo) fromBuildSettings(settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			vi.Commit = s.Value[:min(10, len(s.Value))]
		case "vcs.modified":
			vi.Dirty = s.Value == "true"
		}
	}
}
