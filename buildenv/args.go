package buildenv

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// Args holds the named build arguments ("with-maya=2020", "mscver=14.1", ...)
// a configurator reads its configuration from. Arguments given on the command
// line for the current run are tracked separately from values carried over
// from the cache file, because some precedence rules only apply to the former.
type Args struct {
	values   map[string]string
	explicit map[string]bool
}

// NewArgs returns an empty argument set.
func NewArgs() *Args {
	return &Args{
		values:   make(map[string]string),
		explicit: make(map[string]bool),
	}
}

// Parse reads "name=value" tokens given on the command line. Values starting
// with "~" are expanded to the user's home directory. Parsed arguments are
// marked explicit.
func (a *Args) Parse(tokens []string) error {
	for _, tok := range tokens {
		name, value, ok := strings.Cut(tok, "=")
		if !ok || name == "" {
			return fmt.Errorf("invalid argument %q: want name=value", tok)
		}
		if strings.HasPrefix(value, "~") {
			expanded, err := homedir.Expand(value)
			if err != nil {
				return fmt.Errorf("argument %s: %w", name, err)
			}
			value = expanded
		}
		a.values[name] = value
		a.explicit[name] = true
	}
	return nil
}

// Get returns the value of name and whether it is set at all.
func (a *Args) Get(name string) (string, bool) {
	v, ok := a.values[name]
	return v, ok
}

// GetDefault returns the value of name, or def when unset.
func (a *Args) GetDefault(name, def string) string {
	if v, ok := a.values[name]; ok {
		return v
	}
	return def
}

// GetInt returns the value of name parsed as an integer, or def when unset
// or unparsable.
func (a *Args) GetInt(name string, def int) int {
	v, ok := a.values[name]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// GetFloat returns the value of name parsed as a float, or def when unset
// or unparsable.
func (a *Args) GetFloat(name string, def float64) float64 {
	v, ok := a.values[name]
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// Set stores a computed value. It does not mark the argument explicit, so a
// later precedence check still sees it as tool-chosen rather than user-chosen.
func (a *Args) Set(name, value string) {
	a.values[name] = value
}

// Explicit reports whether name was given on the command line this run, as
// opposed to being absent or carried over from the cache file.
func (a *Args) Explicit(name string) bool {
	return a.explicit[name]
}

// Load merges arguments from a YAML cache file written by Save. Cached values
// never override explicit ones and are not marked explicit themselves. A
// missing file is not an error.
func (a *Args) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	cached := make(map[string]string)
	if err := yaml.Unmarshal(data, &cached); err != nil {
		return fmt.Errorf("parse args cache %s: %w", path, err)
	}
	for name, value := range cached {
		if !a.explicit[name] {
			a.values[name] = value
		}
	}
	return nil
}

// Save writes all current arguments to a YAML cache file, creating parent
// directories as needed.
func (a *Args) Save(path string) error {
	data, err := yaml.Marshal(a.values)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Names returns all argument names in sorted order.
func (a *Args) Names() []string {
	names := make([]string, 0, len(a.values))
	for name := range a.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultCachePath returns the default location of the args cache file,
// under the user cache directory.
func DefaultCachePath() (string, error) {
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userCacheDir, "sdkconf", "args.yaml"), nil
}
