package internal

import (
	"fmt"
	"runtime/debug"
	"strings"
)

const (
	VersionMajor = 0
	VersionMinor = 1
	VersionPatch = 0
	VersionTag   = "" // example: "rc1"
)

// -ldflags "-X github.com/matrix-org/mxevents/internal.build=alpha"
var build string

var version = versionString(VersionTag, build, vcsRevision())

// VersionString returns the semantic version of this build. The build
// name and the short VCS revision, when known, are added as build
// metadata, e.g. "0.1.0+alpha.3f2c1ab".
func VersionString() string {
	return version
}

func versionString(tag, build, revision string) string {
	v := fmt.Sprintf("%d.%d.%d", VersionMajor, VersionMinor, VersionPatch)
	if tag != "" {
		v += "-" + tag
	}
	var metadata []string
	if build != "" {
		metadata = append(metadata, build)
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}
	if revision != "" {
		metadata = append(metadata, revision)
	}
	if len(metadata) > 0 {
		v += "+" + strings.Join(metadata, ".")
	}
	return v
}

// vcsRevision is the commit the binary was built from, if the toolchain
// recorded one.
func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			return setting.Value
		}
	}
	return ""
}
