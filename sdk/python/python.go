// Package python configures build environments against a Python runtime, for
// building extension modules or embedding an interpreter. A runtime is chosen
// by the with-python argument, which may be a dotted version, an installation
// path, or absent (meaning: whatever the host python is).
package python

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/vfxbuild/sdkconf/buildenv"
	"github.com/vfxbuild/sdkconf/internal/diag"
	"github.com/vfxbuild/sdkconf/internal/hostrun"
	"github.com/vfxbuild/sdkconf/internal/vers"
)

// Spec is a resolved Python runtime descriptor. On darwin a runtime may be a
// framework: LibDir is then the framework search directory and Lib the
// framework name, or, when a pinned non-current version must be linked
// directly, LibDir is empty and Lib is the full path to the framework binary.
type Spec struct {
	Version    string
	IncludeDir string
	LibDir     string
	Lib        string
	Framework  bool
}

// Resolver turns with-python specifications into runtime descriptors. Results
// (including definitive failures) are memoized per specification string for
// the resolver's lifetime, so repeated Require calls do not re-probe the
// filesystem or spawn subprocesses.
type Resolver struct {
	Args *buildenv.Args
	Diag *diag.Printer
	Plat buildenv.Platform

	// Getenv is the process environment lookup, overridable in tests.
	Getenv func(string) string
	// Run executes host commands (ldd, python3-config).
	Run hostrun.Runner

	// FrameworkDirs are the darwin framework install locations scanned for
	// versioned runtimes.
	FrameworkDirs []string
	// ExecPrefix and BasePrefix stand in for the windows interpreter's
	// sys.exec_prefix / sys.base_prefix.
	ExecPrefix string
	BasePrefix string

	// HostConfig returns the host runtime's own build configuration, used
	// when no usable specification was given. Defaults to querying
	// python3-config.
	HostConfig func() (Spec, bool)

	cache map[string]entry
}

type entry struct {
	spec *Spec
	err  error
}

// NewResolver returns a resolver probing the real host system.
func NewResolver(args *buildenv.Args, d *diag.Printer, plat buildenv.Platform) *Resolver {
	r := &Resolver{
		Args:          args,
		Diag:          d,
		Plat:          plat,
		Getenv:        os.Getenv,
		Run:           hostrun.Run,
		FrameworkDirs: []string{"/System/Library/Frameworks", "/Library/Frameworks"},
	}
	r.HostConfig = func() (Spec, bool) { return hostConfig(r.Run) }
	return r
}

// OptionsString documents the build arguments the resolver reads.
func OptionsString() string {
	return `PYTHON OPTIONS
  with-python=<str> : Python version or prefix [current interpreter]`
}

// ModulePrefix returns the install subdirectory python extension modules are
// placed under.
func ModulePrefix() string {
	return "lib/python/"
}

// ModuleExt returns the extension-module file suffix of the host runtime.
func (r *Resolver) ModuleExt() string {
	out, err := r.Run("python3-config", []string{"--extension-suffix"}, nil)
	if err == nil {
		if s := strings.TrimSpace(out); s != "" {
			return s
		}
	}
	if r.Plat.Windows() {
		return ".pyd"
	}
	return ".so"
}

var versionOnly = regexp.MustCompile(`^\d+\.\d+$`)

// Resolve memoizes and returns the descriptor for a specification string. A
// nil descriptor with a nil error never happens: failures carry the reason,
// and the caller decides whether to warn and continue or abort the build.
func (r *Resolver) Resolve(spec string) (*Spec, error) {
	if e, ok := r.cache[spec]; ok {
		return e.spec, e.err
	}
	if r.cache == nil {
		r.cache = make(map[string]entry)
	}

	resolved, err := r.resolve(spec)
	if err == nil {
		if err = r.check(resolved); err != nil {
			resolved = nil
		}
	}
	if err != nil {
		r.Diag.PrintOnce("python", "invalid python specification %q: %v", spec, err)
	} else {
		r.Diag.PrintOnce("python", "resolved python for %q: %s %s", spec, resolved.Version, resolved.IncludeDir)
	}

	r.cache[spec] = entry{spec: resolved, err: err}
	return resolved, err
}

func (r *Resolver) resolve(spec string) (*Spec, error) {
	if versionOnly.MatchString(spec) {
		return r.resolveVersion(spec)
	}
	return r.resolvePath(spec)
}

// resolveVersion finds an installed runtime matching a bare "X.Y" version.
func (r *Resolver) resolveVersion(ver string) (*Spec, error) {
	switch r.Plat.OS {
	case "darwin":
		var probeErr []string
		for _, searchDir := range r.FrameworkDirs {
			fwRoot := filepath.Join(searchDir, "Python.framework")
			verDir := filepath.Join(fwRoot, "Versions", ver)
			if !isDir(verDir) {
				probeErr = append(probeErr, fmt.Sprintf("cannot find python %s in %s", ver, searchDir))
				continue
			}
			incdir := firstDir(
				filepath.Join(verDir, "include", "python"+ver),
				filepath.Join(verDir, "Headers"),
			)
			if incdir == "" {
				probeErr = append(probeErr, fmt.Sprintf("cannot find python %s include directory in %s", ver, verDir))
				continue
			}
			if ver == r.frameworkVersion(fwRoot) {
				return &Spec{Version: ver, IncludeDir: incdir, LibDir: searchDir, Lib: "Python", Framework: true}, nil
			}
			// Not the Current version: link the versioned framework binary
			// directly.
			return &Spec{Version: ver, IncludeDir: incdir, Lib: filepath.Join(verDir, "Python"), Framework: true}, nil
		}
		return nil, fmt.Errorf("%s", strings.Join(probeErr, "; "))

	case "windows":
		prefix := r.ExecPrefix
		// Virtualenvs on windows lack headers and import libraries; build
		// against the base installation instead.
		if r.Getenv("VIRTUAL_ENV") != "" && r.BasePrefix != "" {
			prefix = r.BasePrefix
		}
		if !isDir(prefix) {
			return nil, fmt.Errorf("cannot find python %s install prefix %q", ver, prefix)
		}
		return &Spec{
			Version:    ver,
			IncludeDir: filepath.Join(prefix, "include"),
			LibDir:     filepath.Join(prefix, "libs"),
			Lib:        "python" + strings.ReplaceAll(ver, ".", ""),
		}, nil

	default:
		// Stock pythons are found through the host runtime's own build
		// configuration; there is no registry of side-by-side installs to
		// scan the way darwin frameworks allow.
		hc, ok := r.HostConfig()
		if !ok {
			return nil, fmt.Errorf("cannot query host python configuration for %s", ver)
		}
		if hc.Version != ver {
			return nil, fmt.Errorf("cannot find stock python %s: host version is %s", ver, hc.Version)
		}
		return &hc, nil
	}
}

var frameworkPathPattern = regexp.MustCompile(`/([^/]+)\.framework/Versions/([^/]+)/?$`)

// resolvePath derives a descriptor from an explicit installation path: on
// darwin a framework (or framework version) directory, on windows the
// python.exe path, elsewhere the interpreter executable path.
func (r *Resolver) resolvePath(path string) (*Spec, error) {
	switch r.Plat.OS {
	case "darwin":
		path = strings.TrimSuffix(path, "/")
		if m := frameworkPathPattern.FindStringSubmatch(path); m != nil {
			fwName, ver := m[1], m[2]
			fwBin := filepath.Join(path, fwName)
			incdir := firstDir(
				filepath.Join(path, "Headers"),
				filepath.Join(path, "include", "python"+ver),
			)
			if incdir == "" || !isFile(fwBin) {
				return nil, fmt.Errorf("cannot find python %s headers or framework binary in %s", ver, path)
			}
			fwRoot := frameworkRootPattern.ReplaceAllString(path, "")
			if ver == r.frameworkVersion(fwRoot) {
				return &Spec{Version: ver, IncludeDir: incdir, LibDir: filepath.Dir(fwRoot), Lib: fwName, Framework: true}, nil
			}
			return &Spec{Version: ver, IncludeDir: incdir, Lib: fwBin, Framework: true}, nil
		}

		// Path to the framework directory itself.
		ver := r.frameworkVersion(path)
		if ver == "" {
			return nil, fmt.Errorf("cannot determine python version from framework %s", path)
		}
		verDir := filepath.Join(path, "Versions", ver)
		incdir := firstDir(
			filepath.Join(verDir, "include", "python"+ver),
			filepath.Join(verDir, "Headers"),
		)
		if incdir == "" {
			return nil, fmt.Errorf("cannot find python %s include directory in %s", ver, path)
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return &Spec{Version: ver, IncludeDir: incdir, LibDir: filepath.Dir(path), Lib: name, Framework: true}, nil

	case "windows":
		ver := r.versionFromDLL(path)
		if ver == "" {
			return nil, fmt.Errorf("cannot determine python version from %s", path)
		}
		dir := filepath.Dir(path)
		return &Spec{
			Version:    ver,
			IncludeDir: filepath.Join(dir, "include"),
			LibDir:     filepath.Join(dir, "libs"),
			Lib:        "python" + strings.ReplaceAll(ver, ".", ""),
		}, nil

	default:
		ver := r.versionFromInterpreter(path)
		if ver == "" {
			return nil, fmt.Errorf("cannot determine python version from %s", path)
		}
		dir := filepath.Dir(path)
		if filepath.Base(dir) != "bin" {
			return nil, fmt.Errorf("%s is not under a <prefix>/bin directory", path)
		}
		prefix := filepath.Dir(dir)
		libdir := filepath.Join(prefix, "lib")
		if r.Plat.X64 && isDir(filepath.Join(prefix, "lib64")) {
			libdir = filepath.Join(prefix, "lib64")
		}
		return &Spec{
			Version:    ver,
			IncludeDir: filepath.Join(prefix, "include", "python"+ver),
			LibDir:     libdir,
			Lib:        "python" + ver,
		}, nil
	}
}

var frameworkRootPattern = regexp.MustCompile(`/Versions/.*$`)

// check validates a descriptor against the filesystem: headers and libraries
// must actually be present, and on ELF platforms the runtime must have been
// built with a shared library.
func (r *Resolver) check(s *Spec) error {
	if s.Framework {
		if s.LibDir == "" {
			if !isDir(s.IncludeDir) || !isFile(s.Lib) {
				return fmt.Errorf("cannot find incdir %q or framework binary %q", s.IncludeDir, s.Lib)
			}
			return nil
		}
		if !isDir(s.IncludeDir) || !isDir(s.LibDir) {
			return fmt.Errorf("cannot find incdir %q or framework dir %q", s.IncludeDir, s.LibDir)
		}
		return nil
	}

	if !isDir(s.IncludeDir) || !isDir(s.LibDir) {
		return fmt.Errorf("cannot find incdir %q or libdir %q", s.IncludeDir, s.LibDir)
	}
	if r.Plat.Windows() {
		implib := filepath.Join(s.LibDir, s.Lib+".lib")
		if !isFile(implib) {
			return fmt.Errorf("cannot find %q", implib)
		}
		return nil
	}
	// A runtime built without --enable-shared has no libpython to link.
	shared := filepath.Join(s.LibDir, "lib"+s.Lib+".so")
	if r.Plat.Darwin() {
		shared = filepath.Join(s.LibDir, "lib"+s.Lib+".dylib")
	}
	if !isFile(shared) {
		return fmt.Errorf("cannot find shared library %q", shared)
	}
	return nil
}

// frameworkVersion resolves the "Current" indirection of a darwin framework
// directory to a version number.
func (r *Resolver) frameworkVersion(fwRoot string) string {
	target, err := os.Readlink(filepath.Join(fwRoot, "Versions", "Current"))
	if err != nil {
		return ""
	}
	return filepath.Base(target)
}

var dllPattern = regexp.MustCompile(`(?i)^python(\d)(\d+)\.dll$`)

// versionFromDLL derives the runtime version from the pythonXY.dll next to a
// windows python executable.
func (r *Resolver) versionFromDLL(exePath string) string {
	matches, err := filepath.Glob(filepath.Join(filepath.Dir(exePath), "python*.dll"))
	if err != nil || len(matches) != 1 {
		return ""
	}
	m := dllPattern.FindStringSubmatch(filepath.Base(matches[0]))
	if m == nil {
		return ""
	}
	return m[1] + "." + m[2]
}

var libpythonPattern = regexp.MustCompile(`libpython([0-9.]+m?)\.so`)

// versionFromInterpreter derives the runtime version from the libpython the
// interpreter executable links against.
func (r *Resolver) versionFromInterpreter(exePath string) string {
	out, err := r.Run("ldd", []string{exePath}, nil)
	if err != nil {
		return ""
	}
	m := libpythonPattern.FindStringSubmatch(out)
	if m == nil {
		return ""
	}
	return strings.TrimSuffix(m[1], ".")
}

// Version returns the version of the runtime a Require call would configure.
func (r *Resolver) Version() string {
	if spec, ok := r.Args.Get("with-python"); ok && spec != "" {
		if s, err := r.Resolve(spec); err == nil && s != nil {
			return s.Version
		}
	}
	if hc, ok := r.HostConfig(); ok {
		return hc.Version
	}
	return ""
}

// Require appends the resolved runtime's include path, version define and
// link flags to env. When with-python was given but cannot be honored the
// error is returned; with no specification the host runtime's own
// configuration is used.
func (r *Resolver) Require(env *buildenv.Environment) error {
	return r.require(env, false)
}

// SoftRequire configures env for an extension that will be loaded into an
// already-running runtime: the library is not hard-linked and, on darwin,
// undefined symbols are resolved lazily at load time.
func (r *Resolver) SoftRequire(env *buildenv.Environment) error {
	if r.Plat.Darwin() {
		env.AppendLinkFlags("-undefined", "dynamic_lookup")
		return r.require(env, true)
	}
	return r.require(env, false)
}

func (r *Resolver) require(env *buildenv.Environment, ignoreLinkFlags bool) error {
	if spec, ok := r.Args.Get("with-python"); ok && spec != "" {
		s, err := r.Resolve(spec)
		if err != nil {
			return fmt.Errorf("with-python=%s: %w", spec, err)
		}
		r.apply(env, s, ignoreLinkFlags)
		return nil
	}

	hc, ok := r.HostConfig()
	if !ok {
		r.Diag.WarnOnce("python", "cannot determine host python configuration")
		return nil
	}
	r.apply(env, &hc, ignoreLinkFlags)
	return nil
}

func (r *Resolver) apply(env *buildenv.Environment, s *Spec, ignoreLinkFlags bool) {
	env.AppendDefines("PY_VER=" + s.Version)
	env.AppendCPPPath(s.IncludeDir)
	if ignoreLinkFlags {
		return
	}
	if s.Framework {
		if s.LibDir != "" {
			env.AppendLinkFlags("-F"+s.LibDir, "-framework", s.Lib)
		} else {
			env.AppendLinkFlags(s.Lib)
		}
		return
	}
	env.AppendLibPath(s.LibDir)
	env.AppendLibs(s.Lib)
}

// hostConfig queries python3-config for the host runtime's canonical include
// and library configuration.
func hostConfig(run hostrun.Runner) (Spec, bool) {
	incOut, err := run("python3-config", []string{"--includes"}, nil)
	if err != nil {
		return Spec{}, false
	}
	inc := hostrun.ParseFlags(strings.TrimSpace(incOut))
	if len(inc.IncludeDirs) == 0 {
		return Spec{}, false
	}

	ldOut, _ := run("python3-config", []string{"--ldflags", "--embed"}, nil)
	ld := hostrun.ParseFlags(strings.TrimSpace(ldOut))

	var s Spec
	s.IncludeDir = inc.IncludeDirs[0]
	if len(ld.LibDirs) > 0 {
		s.LibDir = ld.LibDirs[0]
	}
	for _, lib := range ld.Libs {
		if strings.HasPrefix(lib, "python") {
			s.Lib = lib
			s.Version = strings.TrimSuffix(strings.TrimPrefix(lib, "python"), "m")
			break
		}
	}
	if s.Version == "" {
		// Fall back to the include directory name ("python3.11").
		base := filepath.Base(s.IncludeDir)
		s.Version = strings.TrimPrefix(base, "python")
	}
	if vers.Major(s.Version) == 0 {
		return Spec{}, false
	}
	return s, true
}

func firstDir(candidates ...string) string {
	for _, c := range candidates {
		if isDir(c) {
			return c
		}
	}
	return ""
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}
