// Package maya configures build environments against the Autodesk Maya SDK.
//
// Maya versions are years with an optional binary-incompatible ".5"
// sub-release, and each release pins a host compiler version; SetupCompiler
// must therefore run before the build environment is constructed so the right
// toolchain gets selected.
package maya

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/vfxbuild/sdkconf/buildenv"
	"github.com/vfxbuild/sdkconf/internal/devtoolset"
	"github.com/vfxbuild/sdkconf/internal/diag"
	"github.com/vfxbuild/sdkconf/internal/hostrun"
)

// MscVer maps Maya release to the Visual Studio toolchain version it was
// built with.
var MscVer = map[string]string{
	"2013":   "9.0",
	"2013.5": "9.0",
	"2014":   "10.0",
	"2015":   "11.0",
	"2016":   "11.0",
	"2016.5": "11.0",
	"2017":   "11.0",
	"2018":   "14.0",
	"2019":   "14.0",
	"2020":   "14.1",
	"2022":   "14.2",
	"2023":   "14.2",
	"2024":   "14.3",
}

// GccVer maps Maya release to the devtoolset GCC major version it was built
// with.
var GccVer = map[string]string{
	"2019": "6",
	"2020": "6",
	"2022": "9",
	"2023": "9",
	"2024": "11",
}

// binary incompatible ".5" releases
var halfReleaseYears = map[int]bool{2013: true, 2016: true}

// Version is the Maya API version parsed from MTypes.h, e.g. 20165 for the
// 2016.5 release (year digits followed by the sub-release digit).
type Version int

// Year returns the release year encoded in the API version.
func (v Version) Year() int {
	s := strconv.Itoa(int(v))
	if len(s) < 4 {
		return 0
	}
	y, _ := strconv.Atoi(s[:4])
	return y
}

// Sub returns the sub-release digit following the year.
func (v Version) Sub() int {
	s := strconv.Itoa(int(v))
	if len(s) < 5 {
		return 0
	}
	return int(s[4] - '0')
}

// Nice returns the user-facing release name. Only 2013 and 2016 shipped a
// binary-incompatible ".5" release that must be reported distinctly; for all
// other years the sub-release digit is dropped.
func (v Version) Nice() string {
	year := v.Year()
	if v.Sub() >= 5 && halfReleaseYears[year] {
		return fmt.Sprintf("%d.5", year)
	}
	return strconv.Itoa(year)
}

// spec returns the version the way a with-maya argument spells it: any year
// with a sub-release digit of 5 or more reads "<year>.5", 2013/2016 or not.
func (v Version) spec() string {
	year := v.Year()
	if v.Sub() >= 5 {
		return fmt.Sprintf("%d.5", year)
	}
	return strconv.Itoa(year)
}

// Tool resolves the Maya SDK from build arguments and process environment
// variables and configures environments against it.
type Tool struct {
	Args *buildenv.Args
	Diag *diag.Printer
	Plat buildenv.Platform

	// Getenv is the process environment lookup, overridable in tests.
	Getenv func(string) string
	// Run executes host commands (devtoolset probe).
	Run hostrun.Runner
}

// New returns a Maya configurator using the process environment.
func New(args *buildenv.Args, d *diag.Printer, plat buildenv.Platform) *Tool {
	return &Tool{Args: args, Diag: d, Plat: plat, Getenv: os.Getenv, Run: hostrun.Run}
}

// OptionsString documents the build arguments the configurator reads.
func OptionsString() string {
	return `MAYA OPTIONS
  with-maya=<str>        : Version or Maya install directory []
  with-mayadevkit=<path> : Maya platform devkit path         []`
}

// PluginExt returns the loadable-module suffix Maya expects on the target
// platform.
func (t *Tool) PluginExt() string {
	switch t.Plat.OS {
	case "darwin":
		return ".bundle"
	case "windows":
		return ".mll"
	default:
		return ".so"
	}
}

// Plugin adds the flags a loadable Maya plugin build needs on top of Require.
func (t *Tool) Plugin(env *buildenv.Environment) {
	if !t.Plat.Windows() && !t.Plat.Darwin() {
		env.AppendLinkFlags("-Wl,-Bsymbolic")
	}
}

var versionSpec = regexp.MustCompile(`^\d+(\.\d+)?$`)

// Root resolves the Maya installation directory. The MAYA_LOCATION
// environment variable wins over computed paths unless with-maya was given
// explicitly on the command line this run.
func (t *Tool) Root() (string, bool) {
	spec, _ := t.Args.Get("with-maya")

	if loc := t.Getenv("MAYA_LOCATION"); loc != "" {
		if !t.Args.Explicit("with-maya") {
			t.Diag.PrintOnce("maya", "Using MAYA_LOCATION environment.")
			return loc, true
		}
		t.Diag.PrintOnce("maya", "Ignoring MAYA_LOCATION environment.")
	}

	if spec == "" {
		return "", false
	}

	if isDir(spec) {
		return strings.TrimSuffix(filepath.ToSlash(spec), "/"), true
	}

	if !versionSpec.MatchString(spec) {
		t.Diag.WarnOnce("maya", "Invalid Maya specification %q: Must be a directory or a version number", spec)
		return "", false
	}

	switch t.Plat.OS {
	case "windows":
		if t.Plat.X64 {
			return "C:/Program Files/Autodesk/Maya" + spec, true
		}
		return "C:/Program Files (x86)/Autodesk/Maya" + spec, true
	case "darwin":
		return "/Applications/Autodesk/maya" + spec, true
	default:
		dir := "/usr/autodesk/maya" + spec
		if t.Plat.X64 && isDir(dir+"-x64") {
			dir += "-x64"
		}
		return dir, true
	}
}

// IncludeDir resolves the Maya headers directory for the given install root.
// Releases whose base install ships without headers (detected by directory
// layout, not version, since the change predates reliable detection) need the
// with-mayadevkit argument. The MAYA_INCLUDE environment variable is honored
// with the same explicit-argument precedence rule as MAYA_LOCATION.
func (t *Tool) IncludeDir(root string) string {
	baseInc := filepath.Join(root, "include")
	if t.Plat.Darwin() {
		baseInc = filepath.Join(root, "devkit", "include")
	}
	requireDevkit := !isDir(filepath.Join(baseInc, "maya"))

	devkit := ""
	if requireDevkit {
		devkit = t.Args.GetDefault("with-mayadevkit", "")
	}

	if inc := t.Getenv("MAYA_INCLUDE"); inc != "" {
		if !requireDevkit || !t.Args.Explicit("with-mayadevkit") {
			t.Diag.PrintOnce("maya", "Using MAYA_INCLUDE environment.")
			return inc
		}
		t.Diag.PrintOnce("maya", "Ignoring MAYA_INCLUDE environment.")
	}

	if devkit == "" {
		return baseInc
	}

	devkit = strings.TrimSuffix(filepath.ToSlash(devkit), "/")
	if filepath.IsAbs(devkit) {
		return filepath.Join(devkit, "include")
	}
	return filepath.Join(root, devkit, "include")
}

// LibDir returns the Maya libraries directory for the given install root.
func (t *Tool) LibDir(root string) string {
	if t.Plat.Darwin() {
		return filepath.Join(root, "Maya.app", "Contents", "MacOS")
	}
	return filepath.Join(root, "lib")
}

var apiVersionDefine = regexp.MustCompile(`^\s*#define\s+MAYA_API_VERSION\s+([0-9]+)`)

// Version parses MAYA_API_VERSION from the MTypes.h header of the resolved
// install. The second result is false when no install or header was found.
func (t *Tool) Version() (Version, bool) {
	root, ok := t.Root()
	if !ok {
		return 0, false
	}

	// A bare version argument records what the user asked for; used below to
	// cross-check against what the headers actually are.
	wanted := ""
	if spec, _ := t.Args.Get("with-maya"); spec != "" && !isDir(spec) {
		wanted = spec
	}

	mtypes := filepath.Join(t.IncludeDir(root), "maya", "MTypes.h")
	f, err := os.Open(mtypes)
	if err != nil {
		t.Diag.WarnOnce("maya", "Cannot find maya headers (missing with-mayadevkit= ?).")
		return 0, false
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		m := apiVersionDefine.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		api, _ := strconv.Atoi(m[1])
		v := Version(api)
		if wanted != "" && v.spec() != wanted {
			t.Diag.WarnOnce("maya", "Maya headers version (%s) doesn't seem to match requested one (%s).\nMake sure to set or reset devkit path using 'with-mayadevkit=' flag.", v.spec(), wanted)
		}
		return v, true
	}

	t.Diag.WarnOnce("maya", "Cannot find maya headers (missing with-mayadevkit= ?).")
	return 0, false
}

// SetupCompiler pins the host compiler version matching the Maya release,
// unless the user already chose one explicitly. Must run before the build
// environment is constructed.
func (t *Tool) SetupCompiler() {
	switch {
	case t.Plat.Windows():
		t.setupMscVer()
	case t.Plat.Linux():
		t.setupGccVer()
	}
}

func (t *Tool) setupMscVer() {
	if t.Args.Explicit("mscver") {
		return
	}
	v, ok := t.Version()
	if !ok {
		return
	}
	if mscver, ok := MscVer[v.Nice()]; ok {
		t.Diag.PrintOnce("maya", "Using msvc %s", mscver)
		t.Args.Set("mscver", mscver)
	}
}

func (t *Tool) setupGccVer() {
	if t.Args.Explicit("devtoolset") {
		return
	}
	v, ok := t.Version()
	if !ok {
		return
	}
	if gccver, ok := GccVer[v.Nice()]; ok {
		t.Diag.PrintOnce("maya", "Using gcc %s", devtoolset.GCCFullVer(gccver, t.Run))
		t.Args.Set("devtoolset", gccver)
	}
}

// Require appends Maya's include path, defines, platform flags and link
// dependencies to env. An unresolvable install leaves env untouched.
func (t *Tool) Require(env *buildenv.Environment) {
	root, ok := t.Root()
	if !ok {
		t.Diag.WarnOnce("maya", "Please set Maya version or directory using with-maya=")
		return
	}

	inc := t.IncludeDir(root)
	env.AppendCPPPath(inc)
	env.AppendDefines("REQUIRE_IOSTREAM", "_BOOL")

	switch t.Plat.OS {
	case "darwin":
		env.AppendDefines("OSMac_")
		env.AppendCCFlags("-Wno-unused-private-field")
		env.AppendLibPath(t.LibDir(root))

		// OpenMayaMac.h must be force-included for the API headers to compile.
		mach := filepath.Join(inc, "maya", "OpenMayaMac.h")
		if isFile(mach) {
			env.AppendCCFlags("-include", mach, "-fno-gnu-keywords")
		}

		if v, ok := t.Version(); ok {
			if v.Year() < 2017 {
				t.Diag.WarnOnce("maya", "Maya below 2017 requires linking against libstdc++.\nThis can be done by using the command line flag 'use-stdc++=1'.")
			}
			// Maya 2018 moved the API to the C++11 standard.
			if v.Year() >= 2018 {
				env.AppendCCFlags("-std=c++11")
			}
		}

	case "windows":
		env.AppendLibPath(t.LibDir(root))
		env.AppendDefines("NT_PLUGIN")

	default:
		env.AppendLibPath(t.LibDir(root))
		if v, ok := t.Version(); ok {
			year := v.Year()
			switch {
			case year >= 2018 && year <= 2020:
				env.AppendCCFlags("-std=c++11")
			case year >= 2022:
				env.AppendCCFlags("-std=c++14")
			}
		}
		env.AppendDefines("LINUX")
		env.AppendCCFlags("-fno-strict-aliasing", "-Wno-comment", "-Wno-sign-compare",
			"-funsigned-char", "-Wno-reorder", "-fno-gnu-keywords", "-pthread")
	}

	env.AppendLibs("OpenMaya", "OpenMayaAnim", "OpenMayaFX", "OpenMayaRender", "OpenMayaUI", "Foundation")
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}
