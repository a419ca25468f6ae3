package reporting

import (
	"fmt"

	"github.com/benchgate/benchgate/internal/models"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "benchgate"

// NewVerdictRegistry returns a registry holding gauges that describe v. The
// gauges are labelled by suite and mode so textfiles from several jobs can be
// scraped side by side.
func NewVerdictRegistry(v *models.Verdict) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"suite": v.Suite, "mode": string(v.Mode)}

	coverage := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   metricsNamespace,
		Name:        "coverage_ratio",
		Help:        "Passing rows divided by non-skipped rows.",
		ConstLabels: labels,
	})
	regressions := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   metricsNamespace,
		Name:        "regressions",
		Help:        "Baseline-passing models that no longer pass.",
		ConstLabels: labels,
	})
	passed := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   metricsNamespace,
		Name:        "verdict_passed",
		Help:        "1 if the verdict passed, 0 otherwise.",
		ConstLabels: labels,
	})
	rows := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   metricsNamespace,
		Name:        "rows",
		Help:        "Rows per effective status.",
		ConstLabels: labels,
	}, []string{"status"})

	for _, c := range []prometheus.Collector{coverage, regressions, passed, rows} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering verdict metric: %w", err)
		}
	}

	coverage.Set(v.Coverage.Ratio)
	regressions.Set(float64(len(v.Regressions)))
	if v.Passed() {
		passed.Set(1)
	}
	counts := v.EffectiveCounts()
	for _, s := range models.Statuses {
		rows.WithLabelValues(string(s)).Set(float64(counts[s]))
	}
	return reg, nil
}

// WriteMetricsTextfile writes the verdict gauges in the node-exporter textfile
// format.
func WriteMetricsTextfile(v *models.Verdict, path string) error {
	reg, err := NewVerdictRegistry(v)
	if err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
