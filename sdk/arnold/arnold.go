// Package arnold configures build environments against the Arnold rendering
// SDK. The SDK version is read from the AI_VERSION_* macros in ai_version.h;
// an unconfigured or incomplete install degrades to an all-zero version and a
// Require that appends nothing beyond the default link dependency.
package arnold

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/vfxbuild/sdkconf/buildenv"
	"github.com/vfxbuild/sdkconf/internal/diag"
)

// Version is the four-field Arnold SDK version.
type Version struct {
	Arch  int
	Major int
	Minor int
	Fix   int
}

// String returns the dotted "arch.major.minor.fix" form.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Arch, v.Major, v.Minor, v.Fix)
}

// Compat returns the two-field "arch.major" form used for binary
// compatibility checks.
func (v Version) Compat() string {
	return fmt.Sprintf("%d.%d", v.Arch, v.Major)
}

func (v Version) IsZero() bool {
	return v == Version{}
}

// Tool resolves the Arnold SDK from build arguments and configures
// environments against it.
type Tool struct {
	Args *buildenv.Args
	Diag *diag.Printer
	Plat buildenv.Platform
}

// New returns an Arnold configurator.
func New(args *buildenv.Args, d *diag.Printer, plat buildenv.Platform) *Tool {
	return &Tool{Args: args, Diag: d, Plat: plat}
}

// OptionsString documents the build arguments the configurator reads.
func OptionsString() string {
	return `ARNOLD OPTIONS
  with-arnold=<path>     : Arnold root directory.
  with-arnold-inc=<path> : Arnold headers directory.   [<root>/include]
  with-arnold-lib=<path> : Arnold libraries directory. [<root>/bin or <root>/lib]`
}

// PluginExt returns the loadable-module suffix Arnold expects on the target
// platform.
func (t *Tool) PluginExt() string {
	switch t.Plat.OS {
	case "darwin":
		return ".dylib"
	case "windows":
		return ".dll"
	default:
		return ".so"
	}
}

// Dirs returns the header and library directories of the configured Arnold
// install. Either may be empty when unconfigured or missing on disk.
func (t *Tool) Dirs() (incdir, libdir string) {
	root, _ := t.Args.Get("with-arnold")

	incdir = t.Args.GetDefault("with-arnold-inc", "")
	if incdir == "" && root != "" {
		incdir = filepath.Join(root, "include")
	}
	libdir = t.Args.GetDefault("with-arnold-lib", "")
	if libdir == "" && root != "" {
		// Arnold ships its shared libraries under bin/ except on windows.
		sub := "bin"
		if t.Plat.Windows() {
			sub = "lib"
		}
		libdir = filepath.Join(root, sub)
	}

	if incdir != "" && !isDir(incdir) {
		t.Diag.WarnOnce("arnold", "headers directory not found: %s", incdir)
		incdir = ""
	}
	if libdir != "" && !isDir(libdir) {
		t.Diag.WarnOnce("arnold", "libraries directory not found: %s", libdir)
		libdir = ""
	}
	return incdir, libdir
}

var versionDefine = regexp.MustCompile(`^\s*#define\s+AI_VERSION_(ARCH_NUM|MAJOR_NUM|MINOR_NUM|FIX)\s+(\S+)`)
var leadingDigits = regexp.MustCompile(`\d+`)

// Version reads the SDK version from ai_version.h. Macros that are absent or
// non-numeric report as zero.
func (t *Tool) Version() Version {
	incdir, _ := t.Dirs()
	if incdir == "" {
		return Version{}
	}
	return parseVersionHeader(filepath.Join(incdir, "ai_version.h"))
}

func parseVersionHeader(path string) Version {
	f, err := os.Open(path)
	if err != nil {
		return Version{}
	}
	defer f.Close()

	var v Version
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		m := versionDefine.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		switch m[1] {
		case "ARCH_NUM":
			v.Arch = atoiSafe(m[2])
		case "MAJOR_NUM":
			v.Major = atoiSafe(m[2])
		case "MINOR_NUM":
			v.Minor = atoiSafe(m[2])
		case "FIX":
			// The FIX macro sometimes carries a suffix ("3abc").
			v.Fix = atoiSafe(leadingDigits.FindString(m[2]))
		}
	}
	return v
}

func atoiSafe(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// Require appends Arnold's include/library paths and link dependency to env.
// Version-dependent rules: Arnold 5 needs VS2015+ on windows, Arnold 6 needs
// C++11 elsewhere.
func (t *Tool) Require(env *buildenv.Environment) {
	incdir, libdir := t.Dirs()
	if incdir != "" {
		env.AppendCPPPath(incdir)
	}
	if libdir != "" {
		env.AppendLibPath(libdir)
	}

	v := t.Version()
	if v.Arch >= 5 && t.Plat.Windows() {
		if t.Args.GetFloat("mscver", 0) < 14 {
			t.Diag.WarnOnce("arnold", "Arnold 5 and above require Visual Studio 2015 or newer (mscver 14.0)")
		}
	}
	if v.Arch >= 6 && !t.Plat.Windows() {
		if t.Args.GetInt("use-c++11", 0) == 0 {
			t.Args.Set("use-c++11", "1")
		}
		if !env.HasCXXFlag("-std=c++11") {
			env.AppendCXXFlags("-std=c++11")
		}
	}

	env.AppendLibs("ai")
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
