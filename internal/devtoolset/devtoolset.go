// Package devtoolset locates Red Hat devtoolset GCC installations, which the
// Linux builds of the DCC SDKs pin their host compiler version with.
package devtoolset

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/vfxbuild/sdkconf/internal/hostrun"
)

// Root returns the install root of the devtoolset with the given major
// version ("6" -> "/opt/rh/devtoolset-6/root/usr").
func Root(ver string) string {
	return filepath.Join("/opt/rh", "devtoolset-"+ver, "root", "usr")
}

// GCCFullVer returns the full version of the devtoolset's gcc by running
// "gcc -dumpversion". When the toolset is not installed, the bare major
// version is returned unchanged.
func GCCFullVer(ver string, run hostrun.Runner) string {
	gcc := filepath.Join(Root(ver), "bin", "gcc")
	if _, err := os.Stat(gcc); err != nil {
		return ver
	}
	out, err := run(gcc, []string{"-dumpversion"}, nil)
	if err != nil {
		return ver
	}
	if full := strings.TrimSpace(out); full != "" {
		return full
	}
	return ver
}
