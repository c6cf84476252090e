package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// Functions are told apart by their position within the source, since a
// source may define two functions with the same name.
var seriesLabels = []string{"source", "function", "index"}

// prometheusReporter exposes results in the Prometheus text format, one
// gauge per function, for pushing to a gateway or scraping from a file.
type prometheusReporter struct {
	w        io.Writer
	registry *prometheus.Registry
	index    map[string]int

	complexity   *prometheus.GaugeVec
	terminals    *prometheus.GaugeVec
	closingEdges *prometheus.GaugeVec
	blocks       *prometheus.GaugeVec
	classical    *prometheus.GaugeVec
}

func newPrometheusReporter(w io.Writer) *prometheusReporter {
	reg := prometheus.NewRegistry()
	gauge := func(name, help string) *prometheus.GaugeVec {
		return promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{Name: name, Help: help},
			seriesLabels,
		)
	}

	return &prometheusReporter{
		w:            w,
		registry:     reg,
		index:        make(map[string]int),
		complexity:   gauge("ccm_function_complexity", "Terminal blocks plus closing edges of a function"),
		terminals:    gauge("ccm_function_terminals", "Reachable blocks without successors"),
		closingEdges: gauge("ccm_function_closing_edges", "Edges to a block the walk had already entered"),
		blocks:       gauge("ccm_function_blocks", "Blocks in the function"),
		classical:    gauge("ccm_function_classical_complexity", "E - N + 2P over the whole function"),
	}
}

func (r *prometheusReporter) Report(e Entry) error {
	i := r.index[e.Source]
	r.index[e.Source] = i + 1
	labels := []string{e.Source, e.Function, strconv.Itoa(i)}

	values := map[*prometheus.GaugeVec]int{
		r.complexity:   e.Complexity,
		r.terminals:    e.Terminals,
		r.closingEdges: e.ClosingEdges,
		r.blocks:       e.Blocks,
	}
	if e.Classical != nil {
		values[r.classical] = *e.Classical
	}

	for vec, v := range values {
		g, err := vec.GetMetricWithLabelValues(labels...)
		if err != nil {
			return fmt.Errorf("labelling %s: %w", e.Function, err)
		}
		g.Set(float64(v))
	}
	return nil
}

func (r *prometheusReporter) Flush() error {
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(r.w, mf); err != nil {
			return err
		}
	}
	return nil
}
