package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nao1215/embedleak/internal/model"
)

// Namespace prefixes every embedleak metric.
const Namespace = "embedleak"

// Metrics holds the collectors for scan runs.
type Metrics struct {
	registry *prometheus.Registry

	PagesScanned  prometheus.Counter
	PagesAffected prometheus.Counter
	PagesSkipped  prometheus.Counter
	Matches       *prometheus.CounterVec
	AffectedPages *prometheus.GaugeVec
	RunDuration   prometheus.Gauge
	LastRun       prometheus.Gauge
	RunsTotal     *prometheus.CounterVec
}

// New creates metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		PagesScanned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "pages_scanned_total",
			Help:      "Pages scanned for leaked embed markup.",
		}),
		PagesAffected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "pages_affected_total",
			Help:      "Pages with at least one pattern match.",
		}),
		PagesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "pages_skipped_total",
			Help:      "Pages that could not be fetched or scanned.",
		}),
		Matches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "pattern_matches_total",
			Help:      "Pattern matches by pattern name.",
		}, []string{"pattern"}),
		AffectedPages: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "affected_pages",
			Help:      "Affected pages in the last run by priority.",
		}, []string{"priority"}),
		RunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of the last run.",
		}),
		LastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run started.",
		}),
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "runs_total",
			Help:      "Runs by outcome.",
		}, []string{"status"}),
	}
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(run *model.Run) {
	m.PagesScanned.Add(float64(len(run.Pages)))
	m.PagesAffected.Add(float64(len(run.Results)))
	m.PagesSkipped.Add(float64(len(run.Skipped)))
	for _, r := range run.Results {
		for name, n := range r.PatternCounts {
			m.Matches.WithLabelValues(name).Add(float64(n))
		}
	}
	if run.Triage != nil {
		for _, s := range run.Triage.Summary {
			m.AffectedPages.WithLabelValues(s.Priority.String()).Set(float64(s.Pages))
		}
	}
	m.RunDuration.Set(run.Duration.Seconds())
	m.LastRun.Set(float64(run.StartedAt.Unix()))

	status := "success"
	if run.ErrorMessage != "" {
		status = "error"
	}
	m.RunsTotal.WithLabelValues(status).Inc()
}

// Gatherer exposes the private registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteToTextfile writes every metric to path in the text exposition format,
// creating the parent directory when needed.
func (m *Metrics) WriteToTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
