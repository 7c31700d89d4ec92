package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the process-wide metrics container for the four pipeline
// phases (road graph, assignment, planning, optimisation).
type Metrics struct {
	// Per-phase timing, shared across all four layers.
	PhaseDuration *prometheus.HistogramVec

	// Optimiser quality, sampled once per run.
	TourLengthKM     *prometheus.HistogramVec
	CrossingsAfter   *prometheus.HistogramVec
	OptimalityGapPct *prometheus.HistogramVec

	// Assignment quality.
	VehiclesUsed    *prometheus.HistogramVec
	LoadStdevPct    *prometheus.HistogramVec
	UnassignedZones *prometheus.CounterVec

	// Systemic.
	MemoryUsage *prometheus.GaugeVec
	Goroutines  prometheus.Gauge

	ServiceInfo *prometheus.GaugeVec
}

var defaultMetrics *Metrics

// InitMetrics initialises the metrics container under the given namespace.
func InitMetrics(namespace, subsystem string) *Metrics {
	m := &Metrics{
		PhaseDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "pipeline_phase_duration_seconds",
				Help:      "Duration of each pipeline phase",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"phase"},
		),

		TourLengthKM: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "optimizer_tour_length_km",
				Help:      "Total length of optimised tours",
				Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
			},
			[]string{"vehicle"},
		),

		CrossingsAfter: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "optimizer_crossings_after",
				Help:      "Number of geometric crossings remaining after optimisation",
				Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
			},
			[]string{"vehicle"},
		),

		OptimalityGapPct: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "optimizer_gap_pct",
				Help:      "Gap between the produced tour length and the MST lower bound",
				Buckets:   []float64{0, 5, 10, 20, 35, 50, 75, 100},
			},
			[]string{"vehicle"},
		),

		VehiclesUsed: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "assignment_vehicles_used",
				Help:      "Number of vehicles receiving at least one zone",
				Buckets:   []float64{1, 2, 5, 10, 20, 50},
			},
			[]string{"run"},
		),

		LoadStdevPct: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "assignment_load_stdev_pct",
				Help:      "Standard deviation of vehicle load as a fraction of mean load",
				Buckets:   []float64{0, .05, .1, .15, .2, .3, .5},
			},
			[]string{"run"},
		),

		UnassignedZones: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "assignment_unassigned_zones_total",
				Help:      "Total number of zones that could not be assigned to any vehicle",
			},
			[]string{"run"},
		),

		MemoryUsage: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "memory_usage_bytes",
				Help:      "Current memory usage",
			},
			[]string{"type"},
		),

		Goroutines: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "goroutines",
				Help:      "Current number of goroutines",
			},
		),

		ServiceInfo: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Service information",
			},
			[]string{"version", "environment"},
		),
	}

	prometheus.MustRegister(NewRuntimeCollector(namespace, subsystem))

	defaultMetrics = m
	return m
}

// Get returns the global metrics container, initialising it on first use.
func Get() *Metrics {
	if defaultMetrics == nil {
		return InitMetrics("wasteroute", "")
	}
	return defaultMetrics
}

// RecordPhase records the wall-clock duration of one pipeline phase.
func (m *Metrics) RecordPhase(phase string, duration time.Duration) {
	m.PhaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// RecordTourQuality records the length, remaining crossings and optimality
// gap of one vehicle's optimised tour.
func (m *Metrics) RecordTourQuality(vehicle string, lengthKM float64, crossings int, gapPct float64) {
	m.TourLengthKM.WithLabelValues(vehicle).Observe(lengthKM)
	m.CrossingsAfter.WithLabelValues(vehicle).Observe(float64(crossings))
	m.OptimalityGapPct.WithLabelValues(vehicle).Observe(gapPct)
}

// RecordAssignment records one L2 run's summary statistics.
func (m *Metrics) RecordAssignment(run string, vehiclesUsed int, loadStdevFraction float64, unassigned int) {
	m.VehiclesUsed.WithLabelValues(run).Observe(float64(vehiclesUsed))
	m.LoadStdevPct.WithLabelValues(run).Observe(loadStdevFraction)
	if unassigned > 0 {
		m.UnassignedZones.WithLabelValues(run).Add(float64(unassigned))
	}
}

// SetServiceInfo sets the service version/environment info gauge.
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler returns the HTTP handler serving /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartMetricsServer starts the metrics HTTP server on the given port.
func StartMetricsServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK")) //nolint:errcheck // health endpoint, write failure is not actionable
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
