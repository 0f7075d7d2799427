package internal

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vfxbuild/sdkconf/buildenv"
	"github.com/vfxbuild/sdkconf/internal/diag"
	"github.com/vfxbuild/sdkconf/sdk/arnold"
	"github.com/vfxbuild/sdkconf/sdk/houdini"
	"github.com/vfxbuild/sdkconf/sdk/maya"
	"github.com/vfxbuild/sdkconf/sdk/python"
)

var rootCmd = &cobra.Command{
	Use:   "sdkconf",
	Short: "sdkconf configures native plugin builds against creative-software SDKs",
	Long: `sdkconf detects the installation location, version and compiler/link flags
of third-party creative software SDKs (Arnold, Maya, Houdini, Python) and
reports the build environment changes native plugin modules need to compile
and link against them.`,
}

var (
	cacheFile string
	noCache   bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cacheFile, "cache", "", "Arguments cache file (default: user cache directory)")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "Do not load or save the arguments cache")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatal(err)
	}
}

// setupArgs parses trailing name=value tokens and merges the arguments cache,
// then writes the merged set back so later invocations remember the choices.
func setupArgs(tokens []string) (*buildenv.Args, error) {
	args := buildenv.NewArgs()
	if err := args.Parse(tokens); err != nil {
		return nil, err
	}
	if noCache {
		return args, nil
	}
	path := cacheFile
	if path == "" {
		p, err := buildenv.DefaultCachePath()
		if err != nil {
			return nil, fmt.Errorf("failed to locate args cache: %w", err)
		}
		path = p
	}
	if err := args.Load(path); err != nil {
		return nil, err
	}
	if err := args.Save(path); err != nil {
		return nil, err
	}
	return args, nil
}

// sdkNames are the configurators the CLI knows, in display order.
var sdkNames = []string{"arnold", "maya", "houdini", "python"}

func isSDKName(s string) bool {
	for _, n := range sdkNames {
		if s == n {
			return true
		}
	}
	return false
}

// splitSDKArgs separates an optional leading SDK name from name=value tokens.
func splitSDKArgs(argv []string) (sdk string, tokens []string, err error) {
	for i, a := range argv {
		if i == 0 && !strings.Contains(a, "=") {
			if !isSDKName(a) {
				return "", nil, fmt.Errorf("unknown SDK %q (want one of %s)", a, strings.Join(sdkNames, ", "))
			}
			sdk = a
			continue
		}
		tokens = append(tokens, a)
	}
	return sdk, tokens, nil
}

// tools bundles one configurator of each kind over a shared argument set.
type tools struct {
	arnold  *arnold.Tool
	maya    *maya.Tool
	houdini *houdini.Tool
	python  *python.Resolver
}

func newTools(args *buildenv.Args, d *diag.Printer) tools {
	plat := buildenv.Host()
	return tools{
		arnold:  arnold.New(args, d, plat),
		maya:    maya.New(args, d, plat),
		houdini: houdini.New(args, d, plat),
		python:  python.NewResolver(args, d, plat),
	}
}
