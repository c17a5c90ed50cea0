package terminal

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/ochairo/aclmake/internal/domain/entities"
)

var (
	colorSuccess = lipgloss.Color("#2CD7C7")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
	colorMuted   = lipgloss.Color("#6C7A89")
)

type reportStyles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	muted   lipgloss.Style
	output  lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
}

// Reporter prints the failure report and the final verdict. Colors are
// dropped automatically when w is not a color terminal.
type Reporter struct {
	w      io.Writer
	styles reportStyles
}

// NewReporter creates a reporter writing to w
func NewReporter(w io.Writer) *Reporter {
	r := lipgloss.NewRenderer(w)
	return &Reporter{
		w: w,
		styles: reportStyles{
			title:   r.NewStyle().Bold(true).Foreground(colorError),
			label:   r.NewStyle().Bold(true),
			muted:   r.NewStyle().Foreground(colorMuted),
			output:  r.NewStyle().PaddingLeft(4),
			success: r.NewStyle().Bold(true).Foreground(colorSuccess),
			warning: r.NewStyle().Bold(true).Foreground(colorWarning),
			failure: r.NewStyle().Bold(true).Foreground(colorError),
		},
	}
}

// PrintFailures lists every failed item with the information needed to
// reproduce it by hand
func (r *Reporter) PrintFailures(summary entities.RunSummary) {
	failures := summary.Failures()
	if len(failures) == 0 {
		return
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(r.styles.title.Render(fmt.Sprintf("%d regression failure(s)", len(failures))))
	b.WriteString("\n")

	for i, f := range failures {
		b.WriteString("\n")
		b.WriteString(r.styles.label.Render(fmt.Sprintf("[%d] %s", i+1, f.Item.Input.Path)))
		b.WriteString("\n")
		if name := f.Item.ConfigName(); name != "" {
			fmt.Fprintf(&b, "    config:  %s\n", name)
		}
		fmt.Fprintf(&b, "    command: %s\n", f.Item.Command)
		fmt.Fprintf(&b, "    exit:    %d\n", f.ExitCode)
		if f.Err != nil && f.ExitCode < 0 {
			fmt.Fprintf(&b, "    error:   %v\n", f.Err)
		}
		if out := strings.TrimSpace(f.Output); out != "" {
			b.WriteString(r.styles.output.Render(out))
			b.WriteString("\n")
		} else {
			b.WriteString(r.styles.muted.Render("    (no output)"))
			b.WriteString("\n")
		}
	}

	_, _ = io.WriteString(r.w, b.String())
}

// PrintVerdict prints the one-line outcome of a regression run
func (r *Reporter) PrintVerdict(summary entities.RunSummary, runErr error, elapsed time.Duration) {
	total := summary.Dispatched()
	failed := len(summary.Failures())
	took := elapsed.Round(time.Millisecond)

	var line string
	switch {
	case errors.Is(runErr, entities.ErrInterrupted):
		line = r.styles.warning.Render("INTERRUPTED") +
			fmt.Sprintf(" after %s; %d failure(s) observed", took, failed)
	case runErr != nil && !errors.Is(runErr, entities.ErrTestsFailed):
		line = r.styles.failure.Render("ERROR") + fmt.Sprintf(" %v", runErr)
	case failed > 0:
		line = r.styles.failure.Render("FAILED") +
			fmt.Sprintf(" %s of %s regression tests in %s", humanize.Comma(int64(failed)), humanize.Comma(int64(total)), took)
	default:
		line = r.styles.success.Render("PASSED") +
			fmt.Sprintf(" %s regression tests in %s", humanize.Comma(int64(total)), took)
	}

	_, _ = fmt.Fprintln(r.w, line)
}
