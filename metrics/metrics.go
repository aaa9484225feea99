package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "keyscope"

	ProbeOK              = "ok"
	ProbeUnexpectedReply = "unexpected_reply"
	ProbeError           = "error"
)

// Metrics implements model.Recorder using Prometheus.
type Metrics struct {
	probes       *prometheus.CounterVec
	batches      *prometheus.CounterVec
	keys         *prometheus.CounterVec
	batchLatency *prometheus.HistogramVec
}

func registerCollector(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return nil
		}
		return fmt.Errorf("register collector: %w", err)
	}
	return nil
}

// New creates a Metrics instance and registers all metrics with reg.
//
// Metrics registered:
//   - keyscope_probes_total{result} - liveness probes by result
//   - keyscope_scan_batches_total{mode} - key batches fetched, by paged/unpaged mode
//   - keyscope_scan_keys_total{mode} - keys returned
//   - keyscope_scan_batch_duration_seconds{mode} - batch round trip
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, errors.New("prometheus registerer is nil")
	}

	m := &Metrics{
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_total", Help: "Liveness probes by result",
		}, []string{"result"}),

		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_batches_total", Help: "Key batches fetched by mode",
		}, []string{"mode"}),

		keys: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_keys_total", Help: "Keys returned by mode",
		}, []string{"mode"}),

		batchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_batch_duration_seconds",
			Help:      "Duration of one key batch round trip",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"mode"}),
	}

	for _, c := range []prometheus.Collector{m.probes, m.batches, m.keys, m.batchLatency} {
		if err := registerCollector(reg, c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) ObserveProbe(result string) {
	m.probes.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveBatch(mode string, keys int, elapsed time.Duration) {
	m.batches.WithLabelValues(mode).Inc()
	m.keys.WithLabelValues(mode).Add(float64(keys))
	m.batchLatency.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// Handler serves reg on /metrics together with the process and runtime collectors.
func Handler(reg *prometheus.Registry) http.Handler {
	_ = registerCollector(reg, prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	_ = registerCollector(reg, prometheus.NewGoCollector())

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return mux
}
