// Package metrics defines the Prometheus collectors the engine updates
// while indexing and linting.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "semantic"

// Outcome labels for FilesTotal.
const (
	OutcomeIndexed = "indexed"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Metrics holds the engine collectors. A nil *Metrics records nothing.
type Metrics struct {
	// FilesTotal counts files by outcome (indexed, skipped, failed).
	FilesTotal *prometheus.CounterVec

	// AnalyzeSeconds measures parse plus analysis time per file.
	AnalyzeSeconds prometheus.Histogram

	// RowsTotal counts committed rows by table.
	RowsTotal *prometheus.CounterVec

	// FindingsTotal counts lint findings by rule.
	FindingsTotal *prometheus.CounterVec
}

// New creates the collectors and registers them with reg when reg is
// non-nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FilesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_total",
				Help:      "Files seen by the indexer, by outcome",
			},
			[]string{"outcome"},
		),
		AnalyzeSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analyze_duration_seconds",
				Help:      "Time to parse and analyze one file",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),
		RowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_total",
				Help:      "Rows committed to the store, by table",
			},
			[]string{"table"},
		),
		FindingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "findings_total",
				Help:      "Lint findings reported, by rule",
			},
			[]string{"rule"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.FilesTotal, m.AnalyzeSeconds, m.RowsTotal, m.FindingsTotal)
	}
	return m
}

// File records one file outcome.
func (m *Metrics) File(outcome string) {
	if m == nil {
		return
	}
	m.FilesTotal.WithLabelValues(outcome).Inc()
}

// Analyzed records the analysis time of one file.
func (m *Metrics) Analyzed(d time.Duration) {
	if m == nil {
		return
	}
	m.AnalyzeSeconds.Observe(d.Seconds())
}

// Rows records committed rows for table.
func (m *Metrics) Rows(table string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.RowsTotal.WithLabelValues(table).Add(float64(n))
}

// Findings records n findings for rule.
func (m *Metrics) Findings(rule string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.FindingsTotal.WithLabelValues(rule).Add(float64(n))
}

// Totals sums the counter family name from g by the value of label. It
// returns an empty map when the family has not been collected yet.
func Totals(g prometheus.Gatherer, name, label string) (map[string]float64, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			key := ""
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label {
					key = lp.GetValue()
				}
			}
			out[key] += m.GetCounter().GetValue()
		}
	}
	return out, nil
}
