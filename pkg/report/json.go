package report

import (
	"io"

	"github.com/goccy/go-json"
)

// jsonReporter buffers entries and writes them as one indented array on
// Flush, so an empty run still produces valid JSON.
type jsonReporter struct {
	w       io.Writer
	entries []Entry
}

func (r *jsonReporter) Report(e Entry) error {
	r.entries = append(r.entries, e)
	return nil
}

func (r *jsonReporter) Flush() error {
	data, err := json.MarshalIndent(r.entries, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = r.w.Write(data)
	return err
}
