package hostrun

import (
	"strings"

	"github.com/vfxbuild/sdkconf/buildenv"
)

// FlagSet is the typed form of a vendor tool's flag output. Keeping the
// string surgery here means the configurators only ever deal in paths,
// defines and library names.
type FlagSet struct {
	IncludeDirs []string
	LibDirs     []string
	Libs        []string
	Defines     []string
	Other       []string // flags that are none of the above, kept verbatim
}

// ParseFlags splits a compiler/linker flag line into a FlagSet. Both "-Idir"
// and "-I dir" spellings are understood, as are MSVC-style "/D" defines.
// Double quotes group tokens and are stripped.
func ParseFlags(line string) FlagSet {
	var fs FlagSet
	tokens := splitQuoted(line)
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case strings.HasPrefix(tok, "-I"):
			if dir, ok := flagArg(tok, "-I", tokens, &i); ok {
				fs.IncludeDirs = append(fs.IncludeDirs, dir)
			}
		case strings.HasPrefix(tok, "-L"):
			if dir, ok := flagArg(tok, "-L", tokens, &i); ok {
				fs.LibDirs = append(fs.LibDirs, dir)
			}
		case strings.HasPrefix(tok, "-l"):
			if lib, ok := flagArg(tok, "-l", tokens, &i); ok {
				fs.Libs = append(fs.Libs, lib)
			}
		case strings.HasPrefix(tok, "-D"):
			if def, ok := flagArg(tok, "-D", tokens, &i); ok {
				fs.Defines = append(fs.Defines, def)
			}
		case strings.HasPrefix(tok, "/D") && len(tok) > 2:
			fs.Defines = append(fs.Defines, tok[2:])
		default:
			fs.Other = append(fs.Other, tok)
		}
	}
	return fs
}

// ApplyCompile appends the compile-time portion of the flag set to env.
func (fs FlagSet) ApplyCompile(env *buildenv.Environment) {
	env.AppendCPPPath(fs.IncludeDirs...)
	env.AppendDefines(fs.Defines...)
	env.AppendCXXFlags(fs.Other...)
}

// ApplyLink appends the link-time portion of the flag set to env.
func (fs FlagSet) ApplyLink(env *buildenv.Environment) {
	env.AppendLibPath(fs.LibDirs...)
	env.AppendLibs(fs.Libs...)
	env.AppendLinkFlags(fs.Other...)
}

// flagArg extracts the argument of a flag spelled either "-Xarg" or "-X arg".
func flagArg(tok, prefix string, tokens []string, i *int) (string, bool) {
	if len(tok) > len(prefix) {
		return tok[len(prefix):], true
	}
	if *i+1 < len(tokens) {
		*i++
		return tokens[*i], true
	}
	return "", false
}

// splitQuoted splits on whitespace while honoring double-quoted spans, which
// are kept as part of the surrounding token with the quotes removed.
func splitQuoted(line string) []string {
	var tokens []string
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			inQuote = !inQuote
		case (c == ' ' || c == '\t' || c == '\n' || c == '\r') && !inQuote:
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return tokens
}
