package internal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vfxbuild/sdkconf/sdk/arnold"
	"github.com/vfxbuild/sdkconf/sdk/houdini"
	"github.com/vfxbuild/sdkconf/sdk/maya"
	"github.com/vfxbuild/sdkconf/sdk/python"
)

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "Show the build arguments each SDK configurator understands",
	RunE:  runOptions,
}

func init() {
	rootCmd.AddCommand(optionsCmd)
}

func runOptions(cmd *cobra.Command, args []string) error {
	blocks := []string{
		arnold.OptionsString(),
		maya.OptionsString(),
		houdini.OptionsString(),
		python.OptionsString(),
	}
	for i, b := range blocks {
		if i > 0 {
			fmt.Println()
		}
		fmt.Println(b)
	}
	return nil
}
