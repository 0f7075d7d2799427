// Package diag provides the deduplicated diagnostics printer shared by the
// SDK configurators. Resolution runs over the same SDK several times per
// build, so informational and warning messages are emitted at most once.
package diag

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Printer emits per-tool messages, suppressing repeats of the same message.
type Printer struct {
	log  *logrus.Logger
	seen map[string]struct{}
}

// New returns a printer writing to out. A nil out means os.Stderr.
func New(out io.Writer) *Printer {
	if out == nil {
		out = os.Stderr
	}
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	return &Printer{
		log:  log,
		seen: make(map[string]struct{}),
	}
}

// Discard returns a printer that swallows everything. Useful in tests and in
// probe-only code paths that must stay quiet.
func Discard() *Printer {
	return New(io.Discard)
}

// PrintOnce emits an informational message for tool, once per unique message.
func (p *Printer) PrintOnce(tool, format string, args ...any) {
	if p.once(tool, "info", format, args...) {
		p.log.WithField("tool", tool).Infof(format, args...)
	}
}

// WarnOnce emits a warning for tool, once per unique message.
func (p *Printer) WarnOnce(tool, format string, args ...any) {
	if p.once(tool, "warn", format, args...) {
		p.log.WithField("tool", tool).Warnf(format, args...)
	}
}

func (p *Printer) once(tool, level, format string, args ...any) bool {
	key := tool + "\x00" + level + "\x00" + sprintf(format, args...)
	if _, ok := p.seen[key]; ok {
		return false
	}
	p.seen[key] = struct{}{}
	return true
}

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
