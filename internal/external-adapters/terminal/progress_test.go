package terminal

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ochairo/aclmake/internal/domain/services"
)

func TestFormatProgress(t *testing.T) {
	tests := []struct {
		name string
		p    services.Progress
		want string
	}{
		{
			name: "no config",
			p:    services.Progress{Completed: 1, Total: 4, Failed: 0},
			want: "[1 / 4] 25.0% (failed 0)",
		},
		{
			name: "labelled round",
			p:    services.Progress{Label: "high_quality", Completed: 3, Total: 3, Failed: 1},
			want: "high_quality [3 / 3] 100.0% (failed 1)",
		},
		{
			name: "empty round",
			p:    services.Progress{},
			want: "[0 / 0] 100.0% (failed 0)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatProgress(tt.p))
		})
	}
}

func TestProgressWriter_Terminal(t *testing.T) {
	var buf bytes.Buffer
	w := NewProgressWriterFor(&buf, true)

	w.Render(services.Progress{Completed: 0, Total: 2})
	w.Render(services.Progress{Completed: 1, Total: 2})
	w.Finish(services.Progress{Completed: 2, Total: 2})

	want := "\r[0 / 2] 0.0% (failed 0)" + clearToEOL +
		"\r[1 / 2] 50.0% (failed 0)" + clearToEOL +
		"\r[2 / 2] 100.0% (failed 0)" + clearToEOL + "\n"
	assert.Equal(t, want, buf.String())
}

func TestProgressWriter_Lines(t *testing.T) {
	var buf bytes.Buffer
	w := NewProgressWriterFor(&buf, false)

	w.Render(services.Progress{Completed: 0, Total: 2})
	w.Render(services.Progress{Completed: 0, Total: 2})
	w.Render(services.Progress{Completed: 1, Total: 2, Failed: 1})
	w.Finish(services.Progress{Completed: 2, Total: 2, Failed: 1})

	want := "[0 / 2] 0.0% (failed 0)\n" +
		"[1 / 2] 50.0% (failed 1)\n" +
		"[2 / 2] 100.0% (failed 1)\n"
	assert.Equal(t, want, buf.String())
}

func TestProgressWriter_FinishRepeatsUnchangedLine(t *testing.T) {
	var buf bytes.Buffer
	w := NewProgressWriterFor(&buf, false)

	w.Render(services.Progress{Completed: 1, Total: 1})
	w.Finish(services.Progress{Completed: 1, Total: 1})
	// Next round starts from a clean slate
	w.Render(services.Progress{Completed: 1, Total: 1})

	assert.Equal(t, "[1 / 1] 100.0% (failed 0)\n[1 / 1] 100.0% (failed 0)\n", buf.String())
}
