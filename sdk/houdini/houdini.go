// Package houdini configures build environments against the SideFX Houdini
// SDK. Compile and link flags come from Houdini's own hcustom utility, whose
// output needs platform-specific repair before it is usable.
package houdini

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/vfxbuild/sdkconf/buildenv"
	"github.com/vfxbuild/sdkconf/internal/devtoolset"
	"github.com/vfxbuild/sdkconf/internal/diag"
	"github.com/vfxbuild/sdkconf/internal/hostrun"
	"github.com/vfxbuild/sdkconf/internal/vers"
)

// MscVer maps Houdini release to the Visual Studio toolchain version it was
// built with.
var MscVer = map[string]string{
	"15.0": "11.0",
	"15.5": "14.0",
	"16.0": "14.0",
	"16.5": "14.0",
	"17.0": "14.1",
	"17.5": "14.1",
	"18.0": "14.1",
	"18.5": "14.1",
}

// GccVer maps Houdini release to the devtoolset GCC major version it was
// built with.
var GccVer = map[string]string{
	"17.0": "6",
	"17.5": "6",
	"18.0": "6",
	"18.5": "6",
}

// Install describes a resolved Houdini installation.
type Install struct {
	Version string // full dotted version, e.g. "18.5.499"
	HFS     string // installation root, as the HFS environment variable
}

// Tool resolves the Houdini SDK from build arguments and configures
// environments against it through hcustom.
type Tool struct {
	Args *buildenv.Args
	Diag *diag.Printer
	Plat buildenv.Platform

	// Getenv is the process environment lookup, overridable in tests.
	Getenv func(string) string
	// Run executes hcustom and the devtoolset probe.
	Run hostrun.Runner
}

// New returns a Houdini configurator using the process environment.
func New(args *buildenv.Args, d *diag.Printer, plat buildenv.Platform) *Tool {
	return &Tool{Args: args, Diag: d, Plat: plat, Getenv: os.Getenv, Run: hostrun.Run}
}

// OptionsString documents the build arguments the configurator reads.
func OptionsString() string {
	return `HOUDINI OPTIONS
  with-houdini=<str> : Houdini version or install directory []`
}

// PluginExt returns the loadable-module suffix Houdini expects on the target
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

// Plugin adds the defines a loadable Houdini DSO build needs on top of
// Require.
func (t *Tool) Plugin(env *buildenv.Environment) {
	env.AppendDefines("MAKING_DSO")
}

var versionPattern = regexp.MustCompile(`\d+\.\d+\.\d+(\.\d+)?`)

// VersionAndDirectory resolves the with-houdini argument, which is either a
// full version number or an install directory, into an Install. The error
// describes what is missing or malformed; callers choose whether to escalate
// or degrade.
func (t *Tool) VersionAndDirectory() (Install, error) {
	spec, ok := t.Args.Get("with-houdini")
	if !ok || spec == "" {
		return Install{}, fmt.Errorf("please set Houdini version or directory using with-houdini=")
	}

	var ver, hfs string
	if !isDir(spec) {
		ver = spec
		if !matchesFull(versionPattern, ver) {
			return Install{}, fmt.Errorf("invalid Houdini version format: %q", ver)
		}
		switch t.Plat.OS {
		case "windows":
			if t.Plat.X64 {
				hfs = "C:/Program Files/Side Effects Software/Houdini " + ver
			} else {
				hfs = "C:/Program Files (x86)/Side Effects Software/Houdini " + ver
			}
		case "darwin":
			hfs = "/Library/Frameworks/Houdini.framework/Versions/" + ver + "/Resources"
		default:
			hfs = "/opt/hfs" + ver
		}
	} else {
		hfs = spec
		m := versionPattern.FindString(hfs)
		if m == "" {
			return Install{}, fmt.Errorf("could not figure out houdini version from path %q, provide it using with-houdini=", hfs)
		}
		ver = m
		if t.Plat.Darwin() {
			// A directory argument points at the version folder; HFS wants
			// its Resources subdirectory.
			hfs = filepath.Join(hfs, "Resources")
		}
	}

	if !isDir(hfs) {
		return Install{}, fmt.Errorf("invalid Houdini directory: %s", hfs)
	}
	return Install{Version: ver, HFS: hfs}, nil
}

// Version returns the resolved version string, truncated to "major.minor"
// unless full is set. Unresolvable installs report as "".
func (t *Tool) Version(full bool) string {
	inst, err := t.VersionAndDirectory()
	if err != nil {
		return ""
	}
	if full {
		return inst.Version
	}
	parts := strings.SplitN(inst.Version, ".", 3)
	if len(parts) < 2 {
		return inst.Version
	}
	return parts[0] + "." + parts[1]
}

// SetupCompiler pins the host compiler version matching the Houdini release,
// unless the user already chose one explicitly. Must run before the build
// environment is constructed.
func (t *Tool) SetupCompiler() {
	switch {
	case t.Plat.Windows():
		if t.Args.Explicit("mscver") {
			return
		}
		if mscver, ok := MscVer[t.Version(false)]; ok {
			t.Diag.PrintOnce("houdini", "Using msvc %s", mscver)
			t.Args.Set("mscver", mscver)
		}
	case t.Plat.Linux():
		if t.Args.Explicit("devtoolset") {
			return
		}
		if gccver, ok := GccVer[t.Version(false)]; ok {
			t.Diag.PrintOnce("houdini", "Using gcc %s", devtoolset.GCCFullVer(gccver, t.Run))
			t.Args.Set("devtoolset", gccver)
		}
	}
}

var linkPrefix = regexp.MustCompile(`-link\s+`)

// Require asks hcustom for compile and link flags and appends the repaired
// result to env. Resolution failures warn once and leave env untouched;
// hcustom failures are not inspected and simply yield no flags (the build
// then fails later at compile time with the compiler's own error).
func (t *Tool) Require(env *buildenv.Environment) {
	inst, err := t.VersionAndDirectory()
	if err != nil {
		t.Diag.WarnOnce("houdini", "%v", err)
		return
	}

	childEnv := []string{"HFS=" + inst.HFS}
	if t.Plat.Windows() {
		// Older hcustom releases on windows need MSVCDir, derived from the
		// VS<ver>COMNTOOLS variable the VS installer sets.
		mscver := t.Args.GetDefault("mscver", "")
		cmntools := t.Getenv("VS" + strings.ReplaceAll(mscver, ".", "") + "COMNTOOLS")
		if cmntools != "" {
			cmntools = strings.TrimRight(cmntools, "/\\")
			msvcDir := filepath.Join(filepath.Dir(filepath.Dir(cmntools)), "VC")
			childEnv = append(childEnv, "MSVCDir="+msvcDir)
		}
	}

	hcustom := filepath.Join(inst.HFS, "bin", "hcustom")

	ccOut, _ := t.Run(hcustom, []string{"-c"}, childEnv)
	ccflags := strings.TrimSpace(ccOut)
	if !strings.Contains(ccflags, "DLLEXPORT") {
		if t.Plat.Windows() {
			ccflags += ` /DDLLEXPORT="__declspec(dllexport)"`
		} else {
			ccflags += " -DDLLEXPORT="
		}
	}
	if !t.Plat.Windows() && vers.Compare(inst.Version, "14.0.0") >= 0 {
		if !strings.Contains(ccflags, "-std=c++11") {
			ccflags += " -DBOOST_NO_DEFAULTED_FUNCTIONS -DBOOST_NO_DELETED_FUNCTIONS"
		}
	}

	linkOut, _ := t.Run(hcustom, []string{"-m"}, childEnv)
	linkflags := strings.TrimSpace(linkOut)
	switch t.Plat.OS {
	case "windows":
		linkflags = linkPrefix.ReplaceAllString(linkflags, "")
	case "darwin":
		// hcustom -m omits the frameworks and libraries entirely on osx.
		libs := []string{
			"HoudiniUI", "HoudiniOPZ", "HoudiniOP3", "HoudiniOP2", "HoudiniOP1",
			"HoudiniSIM", "HoudiniGEO", "HoudiniPRM", "HoudiniUT",
		}
		libdir := filepath.Join(filepath.Dir(inst.HFS), "Libraries")
		linkflags += " -flat_namespace -L " + libdir + " -l" + strings.Join(libs, " -l")
	default:
		// $HFS/dsolib is missing from the linux link flags.
		linkflags += " -L " + filepath.Join(inst.HFS, "dsolib")
	}

	hostrun.ParseFlags(ccflags).ApplyCompile(env)
	hostrun.ParseFlags(linkflags).ApplyLink(env)
}

func matchesFull(re *regexp.Regexp, s string) bool {
	m := re.FindString(s)
	return m == s
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
