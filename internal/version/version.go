// Package version reports the hrtimer module version from build info.
package version

import "runtime/debug"

// Default is the default version value. Used only if the module version is not available.
const Default = "dev"

const modulePath = "github.com/tetratelabs/hrtimer"

// GetHrtimerVersion returns the version of hrtimer, either the main module or a
// dependency of it, or Default when built from a local checkout.
func GetHrtimerVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Default
	}
	return versionOf(info)
}

func versionOf(info *debug.BuildInfo) (ret string) {
	if info.Main.Path == modulePath {
		ret = info.Main.Version
	}
	for _, dep := range info.Deps {
		if dep.Path == modulePath {
			ret = dep.Version
		}
	}
	// In unit tests the main module is reported as "(devel)".
	if ret == "" || ret == "(devel)" {
		return Default
	}
	return ret
}
