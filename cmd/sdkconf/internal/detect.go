package internal

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vfxbuild/sdkconf/internal/diag"
)

var detectCmd = &cobra.Command{
	Use:   "detect [sdk] [name=value...]",
	Short: "Detect installed SDK versions",
	Long: `Detect resolves each SDK (or the one given) from build arguments,
environment variables and well-known install locations, and prints the
version found. An empty version means the SDK could not be resolved.`,
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, argv []string) error {
	sdk, tokens, err := splitSDKArgs(argv)
	if err != nil {
		return err
	}
	args, err := setupArgs(tokens)
	if err != nil {
		return err
	}
	t := newTools(args, diag.New(os.Stderr))

	show := func(name string) bool { return sdk == "" || sdk == name }

	if show("arnold") {
		fmt.Printf("arnold\t%s\n", t.arnold.Version())
	}
	if show("maya") {
		ver := ""
		if v, ok := t.maya.Version(); ok {
			ver = v.Nice()
		}
		fmt.Printf("maya\t%s\n", ver)
	}
	if show("houdini") {
		fmt.Printf("houdini\t%s\n", t.houdini.Version(true))
	}
	if show("python") {
		fmt.Printf("python\t%s\n", t.python.Version())
	}
	return nil
}
