package python

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/vfxbuild/sdkconf/buildenv"
	"github.com/vfxbuild/sdkconf/internal/diag"
	"github.com/vfxbuild/sdkconf/internal/hostrun"
	"github.com/vfxbuild/sdkconf/internal/vers"
)

// Cython locates the cython translator and declares the source-generation
// steps that turn .pyx files into C or C++ sources. The discovered translator
// path is cached for the object's lifetime.
type Cython struct {
	Args *buildenv.Args
	Diag *diag.Printer
	Plat buildenv.Platform

	// Version returns the python version generated code targets; it selects
	// both the versioned translator name and the language level.
	Version func() string
	// Which locates executables on PATH, overridable in tests.
	Which func(name string) (string, error)

	path string
}

// NewCython returns a translator bound to the python runtime res resolves.
func NewCython(args *buildenv.Args, d *diag.Printer, plat buildenv.Platform, res *Resolver) *Cython {
	return &Cython{
		Args:    args,
		Diag:    d,
		Plat:    plat,
		Version: res.Version,
		Which:   hostrun.Which,
	}
}

// Find locates the cython executable: the with-cython argument if valid, the
// previously discovered path, a version-suffixed "cython<X.Y>" on PATH, and
// finally a bare "cython".
func (c *Cython) Find() (string, bool) {
	if explicit := c.Args.GetDefault("with-cython", ""); explicit != "" {
		if isFile(explicit) {
			c.path = explicit
			return explicit, true
		}
		c.Diag.PrintOnce("python", "invalid 'cython' specification %q", explicit)
	}
	if c.path != "" {
		return c.path, true
	}

	name := "cython" + c.Version()
	path, err := c.Which(name)
	if err != nil {
		c.Diag.PrintOnce("python", "no %q found in PATH, trying \"cython\" instead", name)
		name = "cython"
		path, err = c.Which(name)
		if err != nil {
			c.Diag.PrintOnce("python", "cannot find a valid cython in your PATH, use the with-cython= flag to provide one")
			return "", false
		}
	}
	c.Diag.PrintOnce("python", "using %q found at %s", name, path)
	c.path = name
	return name, true
}

var cythonInclude = regexp.MustCompile(`(?m)^include\s+["']([^"']+)["']`)

// ScanIncludes returns the files referenced by `include "..."` statements in
// cython source contents. Registered as a dependency scanner so the build
// graph knows about transitively included .pxi files.
func ScanIncludes(contents string) []string {
	ms := cythonInclude.FindAllStringSubmatch(contents, -1)
	deps := make([]string, 0, len(ms))
	for _, m := range ms {
		deps = append(deps, m[1])
	}
	return deps
}

// Require makes env ready for cython generation: the translator must be
// locatable and a .pyx dependency scanner is registered. Reports whether
// cython is usable.
func (c *Cython) Require(env *buildenv.Environment) bool {
	if _, ok := c.Find(); !ok {
		return false
	}
	env.AddScanner(buildenv.Scanner{Suffix: ".pyx", Scan: ScanIncludes})
	return true
}

// GenerateOptions tunes a single cython translation step.
type GenerateOptions struct {
	// Header and Out override the default <pyx>.h / <pyx>.c (or .cpp) output
	// names.
	Header string
	Out    string

	IncludeDirs []string
	CPlusPlus   bool

	// CompileTimeEnv entries become -E name=value flags.
	CompileTimeEnv map[string]string
	// Directives become --directive name=value flags. language_level is not
	// a caller choice; it is pinned to the target python's major version.
	Directives map[string]string
}

// Generate declares the build step translating pyx into C/C++ source and
// header, and returns the declared command. The language level always follows
// the target python's major version.
func (c *Cython) Generate(env *buildenv.Environment, pyx string, opts GenerateOptions) (*buildenv.Command, error) {
	cython, ok := c.Find()
	if !ok {
		return nil, fmt.Errorf("no cython available to generate %s", pyx)
	}

	directives := make(map[string]string, len(opts.Directives)+1)
	for k, v := range opts.Directives {
		directives[k] = v
	}
	if vers.Major(c.Version()) < 3 {
		directives["language_level"] = "2"
	} else {
		directives["language_level"] = "3"
	}

	header := opts.Header
	if header == "" {
		header = strings.TrimSuffix(pyx, filepath.Ext(pyx)) + ".h"
	}
	out := opts.Out
	if out == "" {
		ext := ".c"
		if opts.CPlusPlus {
			ext = ".cpp"
		}
		out = strings.TrimSuffix(pyx, filepath.Ext(pyx)) + ext
	}

	var b strings.Builder
	b.WriteString(cython)
	for _, dir := range opts.IncludeDirs {
		b.WriteString(" -I ")
		b.WriteString(dir)
	}
	if opts.CPlusPlus {
		b.WriteString(" --cplus")
	}
	for _, k := range sortedKeys(opts.CompileTimeEnv) {
		fmt.Fprintf(&b, " -E %s=%s", k, opts.CompileTimeEnv[k])
	}
	for _, k := range sortedKeys(directives) {
		fmt.Fprintf(&b, " --directive %s=%s", k, directives[k])
	}
	fmt.Fprintf(&b, " --embed-positions -o %s %s", out, pyx)

	cmd := buildenv.Command{
		Outputs: []string{out, header},
		Inputs:  []string{pyx},
		Line:    b.String(),
		// cython fails without PATH and PYTHONPATH in its environment.
		Env: map[string]string{
			"PATH":       os.Getenv("PATH"),
			"PYTHONPATH": os.Getenv("PYTHONPATH"),
		},
	}
	env.AddCommand(cmd)
	return &env.Commands[len(env.Commands)-1], nil
}

// SilentWarnings suppresses the compiler warnings cython-generated code
// trips on each platform.
func (c *Cython) SilentWarnings(env *buildenv.Environment) {
	switch c.Plat.OS {
	case "darwin":
		env.AppendCCFlags("-Wno-unused-function", "-Wno-unneeded-internal-declaration")
	case "windows":
		env.AppendCCFlags("/wd4310", "/wd4706")
	default:
		env.AppendCCFlags("-Wno-strict-aliasing")
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
