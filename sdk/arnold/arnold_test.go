package arnold

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/vfxbuild/sdkconf/buildenv"
	"github.com/vfxbuild/sdkconf/internal/diag"
)

func newTestTool(t *testing.T, plat buildenv.Platform, argv ...string) *Tool {
	t.Helper()
	args := buildenv.NewArgs()
	if err := args.Parse(argv); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return New(args, diag.Discard(), plat)
}

// writeSDK fabricates an Arnold install with the given ai_version.h contents
// and returns its root.
func writeSDK(t *testing.T, header string) string {
	t.Helper()
	root := t.TempDir()
	incdir := filepath.Join(root, "include")
	if err := os.MkdirAll(incdir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "bin"), 0o755); err != nil {
		t.Fatal(err)
	}
	if header != "" {
		if err := os.WriteFile(filepath.Join(incdir, "ai_version.h"), []byte(header), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

const versionHeader = `#pragma once
#define AI_VERSION_ARCH_NUM    7
#define AI_VERSION_MAJOR_NUM   1
#define AI_VERSION_MINOR_NUM   2
#define AI_VERSION_FIX         3abc
`

func TestVersionFromHeader(t *testing.T) {
	root := writeSDK(t, versionHeader)
	tool := newTestTool(t, buildenv.Platform{OS: "linux", X64: true}, "with-arnold="+root)

	v := tool.Version()
	if want := (Version{Arch: 7, Major: 1, Minor: 2, Fix: 3}); v != want {
		t.Errorf("Version() = %+v, want %+v", v, want)
	}
	if got := v.String(); got != "7.1.2.3" {
		t.Errorf("String() = %q, want 7.1.2.3", got)
	}
	if got := v.Compat(); got != "7.1" {
		t.Errorf("Compat() = %q, want 7.1", got)
	}
}

func TestVersionMissingMacrosDefaultToZero(t *testing.T) {
	root := writeSDK(t, "#define AI_VERSION_MAJOR_NUM 4\n")
	tool := newTestTool(t, buildenv.Platform{OS: "linux", X64: true}, "with-arnold="+root)

	v := tool.Version()
	if want := (Version{Major: 4}); v != want {
		t.Errorf("Version() = %+v, want %+v", v, want)
	}
	if got := v.String(); got != "0.4.0.0" {
		t.Errorf("String() = %q", got)
	}
}

func TestVersionNoRoot(t *testing.T) {
	tool := newTestTool(t, buildenv.Platform{OS: "linux", X64: true})

	v := tool.Version()
	if !v.IsZero() {
		t.Errorf("Version() = %+v, want zero", v)
	}
	if got := v.String(); got != "0.0.0.0" {
		t.Errorf("String() = %q, want 0.0.0.0", got)
	}
	if got := v.Compat(); got != "0.0" {
		t.Errorf("Compat() = %q, want 0.0", got)
	}
}

func TestVersionNoHeader(t *testing.T) {
	root := writeSDK(t, "")
	tool := newTestTool(t, buildenv.Platform{OS: "linux", X64: true}, "with-arnold="+root)

	if v := tool.Version(); !v.IsZero() {
		t.Errorf("Version() = %+v, want zero", v)
	}
}

func TestRequire(t *testing.T) {
	root := writeSDK(t, versionHeader)
	tool := newTestTool(t, buildenv.Platform{OS: "linux", X64: true}, "with-arnold="+root)

	env := buildenv.New()
	tool.Require(env)

	if want := []string{filepath.Join(root, "include")}; !reflect.DeepEqual(env.CPPPath, want) {
		t.Errorf("CPPPath = %v, want %v", env.CPPPath, want)
	}
	if want := []string{filepath.Join(root, "bin")}; !reflect.DeepEqual(env.LibPath, want) {
		t.Errorf("LibPath = %v, want %v", env.LibPath, want)
	}
	if !reflect.DeepEqual(env.Libs, []string{"ai"}) {
		t.Errorf("Libs = %v, want [ai]", env.Libs)
	}
	// Arnold 6 and above builds as C++11 off windows.
	if !env.HasCXXFlag("-std=c++11") {
		t.Error("missing -std=c++11 for arch >= 6")
	}
	if got := tool.Args.GetInt("use-c++11", 0); got != 1 {
		t.Errorf("use-c++11 = %d, want 1", got)
	}
}

func TestRequireDoesNotDuplicateStdFlag(t *testing.T) {
	root := writeSDK(t, versionHeader)
	tool := newTestTool(t, buildenv.Platform{OS: "darwin", X64: true}, "with-arnold="+root)

	env := buildenv.New()
	env.AppendCXXFlags("-std=c++11")
	tool.Require(env)

	count := 0
	for _, f := range env.CXXFlags {
		if f == "-std=c++11" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("-std=c++11 appended %d times, want 1", count)
	}
}

func TestRequireNoRoot(t *testing.T) {
	tool := newTestTool(t, buildenv.Platform{OS: "linux", X64: true})

	env := buildenv.New()
	tool.Require(env)

	if env.CPPPath != nil || env.LibPath != nil {
		t.Errorf("unresolved SDK must not add paths: %v %v", env.CPPPath, env.LibPath)
	}
	// The fixed link dependency is appended regardless.
	if !reflect.DeepEqual(env.Libs, []string{"ai"}) {
		t.Errorf("Libs = %v, want [ai]", env.Libs)
	}
}

func TestDirsWindowsLibSubdir(t *testing.T) {
	root := t.TempDir()
	for _, sub := range []string{"include", "lib"} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	tool := newTestTool(t, buildenv.Platform{OS: "windows", X64: true}, "with-arnold="+root)

	_, libdir := tool.Dirs()
	if want := filepath.Join(root, "lib"); libdir != want {
		t.Errorf("libdir = %q, want %q", libdir, want)
	}
}

func TestDirsExplicitOverrides(t *testing.T) {
	root := writeSDK(t, versionHeader)
	alt := t.TempDir()
	tool := newTestTool(t, buildenv.Platform{OS: "linux", X64: true},
		"with-arnold="+root, "with-arnold-inc="+alt)

	incdir, _ := tool.Dirs()
	if incdir != alt {
		t.Errorf("incdir = %q, want explicit %q", incdir, alt)
	}
}

func TestPluginExt(t *testing.T) {
	tests := []struct {
		os   string
		want string
	}{
		{"darwin", ".dylib"},
		{"windows", ".dll"},
		{"linux", ".so"},
	}
	for _, tt := range tests {
		tool := newTestTool(t, buildenv.Platform{OS: tt.os, X64: true})
		if got := tool.PluginExt(); got != tt.want {
			t.Errorf("PluginExt() on %s = %q, want %q", tt.os, got, tt.want)
		}
	}
}
