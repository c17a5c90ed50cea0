// Package terminal renders regression progress and the final report.
package terminal

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/ochairo/aclmake/internal/domain/services"
)

// clearToEOL erases what is left of a previous, longer line
const clearToEOL = "\x1b[K"

// ProgressWriter draws "[completed / total] pct% (failed N)". On a terminal
// it redraws a single line in place; otherwise it prints one line per change.
type ProgressWriter struct {
	mu   sync.Mutex
	w    io.Writer
	tty  bool
	last string
}

// NewProgressWriter detects whether f is a terminal
func NewProgressWriter(f *os.File) *ProgressWriter {
	fd := f.Fd()
	return NewProgressWriterFor(f, isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
}

// NewProgressWriterFor uses the given redraw mode
func NewProgressWriterFor(w io.Writer, tty bool) *ProgressWriter {
	return &ProgressWriter{w: w, tty: tty}
}

// Render draws the current progress
func (p *ProgressWriter) Render(progress services.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draw(FormatProgress(progress), false)
}

// Finish draws the final state and ends the line
func (p *ProgressWriter) Finish(progress services.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draw(FormatProgress(progress), true)
	p.last = ""
}

func (p *ProgressWriter) draw(line string, final bool) {
	if p.tty {
		_, _ = fmt.Fprint(p.w, "\r"+line+clearToEOL)
		if final {
			_, _ = fmt.Fprintln(p.w)
		}
		p.last = line
		return
	}

	if line != p.last {
		_, _ = fmt.Fprintln(p.w, line)
		p.last = line
	}
}

// FormatProgress renders one progress line
func FormatProgress(p services.Progress) string {
	line := fmt.Sprintf("[%d / %d] %.1f%% (failed %d)", p.Completed, p.Total, p.Percent(), p.Failed)
	if p.Label != "" {
		line = p.Label + " " + line
	}
	return line
}
