package buildinfo

import (
	"runtime"
	"runtime/debug"
	"sync"
)

// Name is the product name reported by both binaries.
const Name = "memcell"

// Set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

// Info is the JSON shape served on /version and printed by --version.
type Info struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

var (
	vcsOnce     sync.Once
	vcsRevision string
	vcsTime     string
)

func readVCS() {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			vcsRevision = s.Value
			if len(vcsRevision) > 12 {
				vcsRevision = vcsRevision[:12]
			}
		case "vcs.time":
			vcsTime = s.Value
		}
	}
}

// Get returns the build information, filling unset fields from the
// runtime's embedded build settings.
func Get() Info {
	info := Info{
		Name:      Name,
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
	}
	if info.GoVersion == "unknown" {
		info.GoVersion = runtime.Version()
	}
	if info.Commit == "unknown" || info.BuildTime == "unknown" {
		vcsOnce.Do(readVCS)
		if info.Commit == "unknown" && vcsRevision != "" {
			info.Commit = vcsRevision
		}
		if info.BuildTime == "unknown" && vcsTime != "" {
			info.BuildTime = vcsTime
		}
	}
	return info
}

// String formats the info as "memcell VERSION (COMMIT) built at TIME".
func (i Info) String() string {
	return i.Name + " " + i.Version + " (" + i.Commit + ") built at " + i.BuildTime
}

// String is shorthand for Get().String().
func String() string {
	return Get().String()
}
