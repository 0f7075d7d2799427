package internal

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vfxbuild/sdkconf/buildenv"
	"github.com/vfxbuild/sdkconf/internal/diag"
)

var (
	flagsSoft   bool
	flagsPlugin bool
)

var flagsCmd = &cobra.Command{
	Use:   "flags <sdk> [name=value...]",
	Short: "Print the compile and link flags a plugin build against an SDK needs",
	Long: `Flags runs the full two-phase configuration for one SDK (compiler
selection, then environment mutation) and prints the resulting flags in
pkg-config style: a Cflags line and a Libs line.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFlags,
}

func init() {
	flagsCmd.Flags().BoolVar(&flagsSoft, "soft", false, "Do not hard-link the runtime library (python only)")
	flagsCmd.Flags().BoolVar(&flagsPlugin, "plugin", false, "Add the SDK's loadable-plugin flags")
	rootCmd.AddCommand(flagsCmd)
}

func runFlags(cmd *cobra.Command, argv []string) error {
	sdk, tokens, err := splitSDKArgs(argv)
	if err != nil {
		return err
	}
	if sdk == "" {
		return fmt.Errorf("flags needs an SDK name (one of %s)", strings.Join(sdkNames, ", "))
	}
	args, err := setupArgs(tokens)
	if err != nil {
		return err
	}
	t := newTools(args, diag.New(os.Stderr))

	env := buildenv.New()
	switch sdk {
	case "arnold":
		t.arnold.Require(env)
	case "maya":
		// Compiler selection must happen before the environment is built.
		t.maya.SetupCompiler()
		t.maya.Require(env)
		if flagsPlugin {
			t.maya.Plugin(env)
		}
	case "houdini":
		t.houdini.SetupCompiler()
		t.houdini.Require(env)
		if flagsPlugin {
			t.houdini.Plugin(env)
		}
	case "python":
		if flagsSoft {
			err = t.python.SoftRequire(env)
		} else {
			err = t.python.Require(env)
		}
		if err != nil {
			return err
		}
	}

	fmt.Printf("Cflags: %s\n", compileFlags(env))
	fmt.Printf("Libs: %s\n", linkFlags(env))
	return nil
}

func compileFlags(env *buildenv.Environment) string {
	var parts []string
	for _, dir := range env.CPPPath {
		parts = append(parts, "-I"+dir)
	}
	for _, def := range env.Defines {
		parts = append(parts, "-D"+def)
	}
	parts = append(parts, env.CCFlags...)
	parts = append(parts, env.CXXFlags...)
	return strings.Join(parts, " ")
}

func linkFlags(env *buildenv.Environment) string {
	var parts []string
	for _, dir := range env.LibPath {
		parts = append(parts, "-L"+dir)
	}
	for _, lib := range env.Libs {
		parts = append(parts, "-l"+lib)
	}
	parts = append(parts, env.LinkFlags...)
	return strings.Join(parts, " ")
}
