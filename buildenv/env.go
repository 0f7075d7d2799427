// Package buildenv holds the mutable build environment that SDK configurators
// append include paths, library paths and compiler/link flags onto, together
// with the named build arguments they read their configuration from.
package buildenv

import "strings"

// Scanner finds implicit dependencies inside a source file so the build
// orchestrator can track inputs it would not otherwise see.
type Scanner struct {
	// Suffix selects which source files the scanner applies to (".pyx").
	Suffix string
	// Scan returns the referenced files found in the source contents.
	Scan func(contents string) []string
}

// Command is a generated-source build step with declared inputs and outputs.
type Command struct {
	Outputs []string
	Inputs  []string
	Line    string
	// Env has extra environment variables the command must run with.
	Env map[string]string
}

// Environment collects everything a native plugin build needs to compile and
// link against the SDKs configured into it. Configurators only ever append;
// nothing is removed once added.
type Environment struct {
	CPPPath   []string // header search paths
	LibPath   []string // library search paths
	Libs      []string // libraries to link, without prefix/suffix decoration
	Defines   []string // preprocessor defines, "NAME" or "NAME=VALUE"
	CCFlags   []string // flags passed to both C and C++ compilations
	CXXFlags  []string // C++ only flags
	LinkFlags []string

	Scanners []Scanner
	Commands []Command
}

// New returns an empty environment.
func New() *Environment {
	return &Environment{}
}

func (e *Environment) AppendCPPPath(dirs ...string)   { e.CPPPath = append(e.CPPPath, dirs...) }
func (e *Environment) AppendLibPath(dirs ...string)   { e.LibPath = append(e.LibPath, dirs...) }
func (e *Environment) AppendLibs(libs ...string)      { e.Libs = append(e.Libs, libs...) }
func (e *Environment) AppendDefines(defs ...string)   { e.Defines = append(e.Defines, defs...) }
func (e *Environment) AppendCCFlags(flags ...string)  { e.CCFlags = append(e.CCFlags, flags...) }
func (e *Environment) AppendCXXFlags(flags ...string) { e.CXXFlags = append(e.CXXFlags, flags...) }
func (e *Environment) AppendLinkFlags(flags ...string) {
	e.LinkFlags = append(e.LinkFlags, flags...)
}

// HasCXXFlag reports whether flag was already appended, either as a C++ only
// flag or as a shared compiler flag.
func (e *Environment) HasCXXFlag(flag string) bool {
	return contains(e.CXXFlags, flag) || contains(e.CCFlags, flag)
}

// HasDefine reports whether the define name (ignoring any =VALUE part) was
// already appended.
func (e *Environment) HasDefine(name string) bool {
	for _, d := range e.Defines {
		if d == name || strings.HasPrefix(d, name+"=") {
			return true
		}
	}
	return false
}

// AddScanner registers a dependency scanner.
func (e *Environment) AddScanner(s Scanner) {
	e.Scanners = append(e.Scanners, s)
}

// AddCommand registers a generated-source build step.
func (e *Environment) AddCommand(c Command) {
	e.Commands = append(e.Commands, c)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
