package buildenv

import (
	"path/filepath"
	"testing"
)

func TestArgsParse(t *testing.T) {
	args := NewArgs()
	err := args.Parse([]string{"with-maya=2020", "mscver=14.1"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if v, ok := args.Get("with-maya"); !ok || v != "2020" {
		t.Errorf("with-maya = %q, %v", v, ok)
	}
	if !args.Explicit("with-maya") {
		t.Error("with-maya should be explicit")
	}
	if args.Explicit("with-houdini") {
		t.Error("with-houdini should not be explicit")
	}
}

func TestArgsParseInvalid(t *testing.T) {
	tests := []string{"with-maya", "=value", "bare"}
	for _, tok := range tests {
		args := NewArgs()
		if err := args.Parse([]string{tok}); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", tok)
		}
	}
}

func TestArgsGetTyped(t *testing.T) {
	args := NewArgs()
	args.Set("use-c++11", "1")
	args.Set("mscver", "14.1")
	args.Set("junk", "abc")

	if got := args.GetInt("use-c++11", 0); got != 1 {
		t.Errorf("GetInt(use-c++11) = %d", got)
	}
	if got := args.GetInt("missing", 7); got != 7 {
		t.Errorf("GetInt(missing) = %d, want default 7", got)
	}
	if got := args.GetInt("junk", 7); got != 7 {
		t.Errorf("GetInt(junk) = %d, want default 7", got)
	}
	if got := args.GetFloat("mscver", 0); got != 14.1 {
		t.Errorf("GetFloat(mscver) = %v", got)
	}
}

func TestArgsSetNotExplicit(t *testing.T) {
	args := NewArgs()
	args.Set("mscver", "14.0")
	if args.Explicit("mscver") {
		t.Error("Set must not mark the argument explicit")
	}
}

func TestArgsCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "args.yaml")

	args := NewArgs()
	if err := args.Parse([]string{"with-houdini=18.5.499", "devtoolset=6"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if err := args.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := NewArgs()
	if err := loaded.Parse([]string{"devtoolset=9"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if v := loaded.GetDefault("with-houdini", ""); v != "18.5.499" {
		t.Errorf("cached with-houdini = %q", v)
	}
	// Explicit arguments win over cached ones.
	if v := loaded.GetDefault("devtoolset", ""); v != "9" {
		t.Errorf("devtoolset = %q, want explicit 9", v)
	}
	if loaded.Explicit("with-houdini") {
		t.Error("cached argument must not be explicit")
	}
}

func TestArgsLoadMissingFile(t *testing.T) {
	args := NewArgs()
	if err := args.Load(filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Errorf("Load of missing file should be a no-op, got %v", err)
	}
}
