package buildenv

import (
	"runtime"
	"strconv"
)

// Platform identifies the operating system and pointer size a build targets.
// SDK configurators key their path templates and flag choices on it.
type Platform struct {
	OS  string // "linux", "darwin" or "windows"
	X64 bool
}

// Host returns the platform of the machine running the build.
func Host() Platform {
	return Platform{OS: runtime.GOOS, X64: strconv.IntSize == 64}
}

func (p Platform) Windows() bool { return p.OS == "windows" }
func (p Platform) Darwin() bool  { return p.OS == "darwin" }
func (p Platform) Linux() bool   { return p.OS == "linux" }
