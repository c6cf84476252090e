// Package report writes analysis results for people and machines.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/l3aro/go-cfg-complexity/pkg/complexity"
)

// Format names an output format.
type Format string

const (
	FormatText       Format = "text"
	FormatJSON       Format = "json"
	FormatPrometheus Format = "prometheus"
)

// ParseFormat converts a config or flag value into a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatPrometheus:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q (must be 'text', 'json' or 'prometheus')", s)
	}
}

// Entry is one analysed function together with the input it came from.
type Entry struct {
	Source string `json:"source" msgpack:"source"`
	complexity.Result
}

// Reporter receives results in module order. Flush is called once after
// the last Report.
type Reporter interface {
	Report(e Entry) error
	Flush() error
}

// Options configures a Reporter.
type Options struct {
	// Explain adds the terminal and closing-edge breakdown to text output.
	Explain bool
	// Threshold highlights functions whose complexity is above it. Zero
	// disables highlighting.
	Threshold int
	// Color enables styled text output.
	Color bool
	// ShowSource prefixes text lines with the input path, for runs over
	// several files.
	ShowSource bool
}

// New returns the Reporter for format writing to w.
func New(format Format, w io.Writer, opts Options) (Reporter, error) {
	switch format {
	case FormatText, "":
		return newTextReporter(w, opts), nil
	case FormatJSON:
		return &jsonReporter{w: w, entries: make([]Entry, 0)}, nil
	case FormatPrometheus:
		return newPrometheusReporter(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// IsTerminal reports whether w is a terminal, for deciding on Options.Color.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// All reports every entry and flushes.
func All(r Reporter, entries []Entry) error {
	for _, e := range entries {
		if err := r.Report(e); err != nil {
			return err
		}
	}
	return r.Flush()
}
