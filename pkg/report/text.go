package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	nameStyle = lipgloss.NewStyle().Bold(true)
	highStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF5F5F"))
	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

type textReporter struct {
	w    io.Writer
	opts Options
}

func newTextReporter(w io.Writer, opts Options) *textReporter {
	return &textReporter{w: w, opts: opts}
}

// Report writes "<name>: Cyclomatic Complexity = <n>", followed by the
// breakdown when explaining.
func (r *textReporter) Report(e Entry) error {
	name := e.Function
	if r.opts.ShowSource && e.Source != "" {
		name = e.Source + ":" + name
	}
	value := fmt.Sprintf("%d", e.Complexity)

	if r.opts.Color {
		name = nameStyle.Render(name)
		if r.opts.Threshold > 0 && e.Complexity > r.opts.Threshold {
			value = highStyle.Render(value)
		}
	}

	line := fmt.Sprintf("%s: Cyclomatic Complexity = %s", name, value)
	if r.opts.Threshold > 0 && e.Complexity > r.opts.Threshold && !r.opts.Color {
		line += " (above threshold)"
	}
	if _, err := fmt.Fprintln(r.w, line); err != nil {
		return err
	}

	if !r.opts.Explain {
		return nil
	}
	return r.explain(e)
}

func (r *textReporter) explain(e Entry) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "  terminals:     %d\n", e.Terminals)
	fmt.Fprintf(&sb, "  closing edges: %d\n", e.ClosingEdges)
	fmt.Fprintf(&sb, "  blocks:        %d (%d reachable)\n", e.Blocks, e.Reachable)
	if e.Classical != nil {
		fmt.Fprintf(&sb, "  E - N + 2P:    %d\n", *e.Classical)
	}
	for _, ev := range e.Trace {
		if ev.To < 0 {
			fmt.Fprintf(&sb, "    %-8s %d\n", ev.Kind, ev.From)
		} else {
			fmt.Fprintf(&sb, "    %-8s %d -> %d\n", ev.Kind, ev.From, ev.To)
		}
	}

	text := sb.String()
	if r.opts.Color {
		text = detailStyle.Render(strings.TrimSuffix(text, "\n")) + "\n"
	}
	_, err := io.WriteString(r.w, text)
	return err
}

func (r *textReporter) Flush() error { return nil }
