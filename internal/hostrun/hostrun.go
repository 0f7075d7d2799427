// Package hostrun isolates everything the configurators do with the host
// system outside the filesystem: spawning vendor configuration utilities,
// locating executables on PATH, and turning the raw flag text those tools
// print into typed flag sets.
package hostrun

import (
	"os"
	"os/exec"

	"github.com/cli/safeexec"
)

// Runner executes a command with extra environment entries ("KEY=VALUE") and
// returns its standard output. Standard error and the exit status are
// deliberately not surfaced: vendor tools are trusted to print usable flags
// or nothing, and a failing tool simply yields empty output.
type Runner func(name string, args []string, env []string) (string, error)

// Run is the default Runner, backed by os/exec. The child inherits the parent
// environment extended by env.
func Run(name string, args []string, env []string) (string, error) {
	cmd := exec.Command(name, args...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	out, err := cmd.Output()
	return string(out), err
}

// Which locates an executable on PATH, refusing the implicit current
// directory lookup Windows would otherwise perform.
func Which(name string) (string, error) {
	return safeexec.LookPath(name)
}
