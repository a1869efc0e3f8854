// Package metrics counts patch outcomes of a reconciliation run and exports
// them in the Prometheus text format.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vk/buildshim/internal/walker"
)

// Subproject results.
const (
	ResultPatched   = "patched"
	ResultUnchanged = "unchanged"
	ResultSkipped   = "skipped"
	ResultFailed    = "failed"
)

// Metrics holds the counters of one run. It implements walker.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	patchesTotal     *prometheus.CounterVec
	subprojectsTotal *prometheus.CounterVec
}

// New creates counters registered on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		patchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "buildshim_patches_total",
				Help: "Number of capability outcomes by capability and outcome.",
			},
			[]string{"capability", "outcome"},
		),
		subprojectsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "buildshim_subprojects_total",
				Help: "Number of visited subprojects by result.",
			},
			[]string{"result"},
		),
	}
	m.registry.MustRegister(m.patchesTotal, m.subprojectsTotal)
	return m
}

// Record counts one finished subproject.
func (m *Metrics) Record(res walker.Result) {
	for _, o := range res.Outcomes {
		m.patchesTotal.WithLabelValues(string(o.Capability), o.Status.String()).Inc()
	}
	m.subprojectsTotal.WithLabelValues(classify(res)).Inc()
}

func classify(res walker.Result) string {
	switch {
	case !res.Platform:
		return ResultSkipped
	case res.Err != nil:
		return ResultFailed
	case res.Changed():
		return ResultPatched
	}
	return ResultUnchanged
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Patches returns the counter for one capability and outcome.
func (m *Metrics) Patches(capability, outcome string) prometheus.Counter {
	return m.patchesTotal.WithLabelValues(capability, outcome)
}

// Subprojects returns the counter for one subproject result.
func (m *Metrics) Subprojects(result string) prometheus.Counter {
	return m.subprojectsTotal.WithLabelValues(result)
}

// WriteTextfile writes every metric to path atomically, in the format read by
// the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
