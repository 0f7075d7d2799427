package diag

import (
	"bytes"
	"strings"
	"testing"
)

func TestWarnOnceDedup(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	p.WarnOnce("maya", "Cannot find maya headers (missing with-mayadevkit= ?).")
	p.WarnOnce("maya", "Cannot find maya headers (missing with-mayadevkit= ?).")
	p.WarnOnce("maya", "Cannot find maya headers (missing with-mayadevkit= ?).")

	if n := strings.Count(buf.String(), "Cannot find maya headers"); n != 1 {
		t.Errorf("message emitted %d times, want 1", n)
	}
}

func TestOncePerToolAndMessage(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	p.WarnOnce("maya", "missing root")
	p.WarnOnce("houdini", "missing root")
	p.WarnOnce("maya", "missing devkit")

	if n := strings.Count(buf.String(), "missing"); n != 3 {
		t.Errorf("got %d messages, want 3 (distinct tool/message pairs)", n)
	}
}

func TestPrintOnceFormatting(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	p.PrintOnce("arnold", "Using msvc %s", "14.1")
	p.PrintOnce("arnold", "Using msvc %s", "14.1")
	p.PrintOnce("arnold", "Using msvc %s", "14.2")

	out := buf.String()
	if n := strings.Count(out, "Using msvc 14.1"); n != 1 {
		t.Errorf("formatted message emitted %d times, want 1", n)
	}
	if !strings.Contains(out, "Using msvc 14.2") {
		t.Error("distinct formatted message was suppressed")
	}
}

func TestInfoAndWarnAreDistinct(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	p.PrintOnce("python", "same text")
	p.WarnOnce("python", "same text")

	if n := strings.Count(buf.String(), "same text"); n != 2 {
		t.Errorf("got %d messages, want 2 (levels dedup independently)", n)
	}
}
