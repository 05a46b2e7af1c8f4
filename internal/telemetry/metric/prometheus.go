package metric

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yndnr/nskv/pkg/nskv"
)

const namespace = "nskv"

// Registry holds all nskv metrics. It implements nskv.Observer.
type Registry struct {
	registry *prometheus.Registry

	// client side
	ClientCommands        *prometheus.CounterVec
	ClientCommandDuration *prometheus.HistogramVec
	ClientBatches         *prometheus.CounterVec
	ClientBatchSize       *prometheus.HistogramVec
	ClientScanRounds      prometheus.Counter
	ClientScanItems       prometheus.Counter
	ClientScanAnomalies   prometheus.Counter
	ClientFallbacks       *prometheus.CounterVec

	// devserver side
	ServerCommands    *prometheus.CounterVec
	ServerConnections prometheus.Gauge
	ServerRejected    *prometheus.CounterVec
}

var _ nskv.Observer = (*Registry)(nil)

// NewRegistry creates a registry with Go runtime and process collectors
// already registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		ClientCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "commands_total",
			Help:      "Commands sent directly to the store by method and outcome.",
		}, []string{"method", "outcome"}),
		ClientCommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "command_duration_seconds",
			Help:      "Round-trip latency of direct commands.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"method"}),
		ClientBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "batches_total",
			Help:      "Executed batches by mode and outcome.",
		}, []string{"mode", "outcome"}),
		ClientBatchSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "batch_size",
			Help:      "Number of commands per executed batch.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 7),
		}, []string{"mode"}),
		ClientScanRounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "scan_rounds_total",
			Help:      "SCAN and HSCAN round trips.",
		}),
		ClientScanItems: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "scan_items_total",
			Help:      "Items returned by scan rounds.",
		}),
		ClientScanAnomalies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "scan_anomalies_total",
			Help:      "Scans stopped by a malformed reply.",
		}),
		ClientFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "document_fallbacks_total",
			Help:      "Document reads that invoked their fallback.",
		}, []string{"rerun"}),

		ServerCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "commands_total",
			Help:      "Commands processed by the development server.",
		}, []string{"command", "outcome"}),
		ServerConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "connections",
			Help:      "Open client connections.",
		}),
		ServerRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "rejected_total",
			Help:      "Commands rejected before execution by reason.",
		}, []string{"reason"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.ClientCommands,
		r.ClientCommandDuration,
		r.ClientBatches,
		r.ClientBatchSize,
		r.ClientScanRounds,
		r.ClientScanItems,
		r.ClientScanAnomalies,
		r.ClientFallbacks,
		r.ServerCommands,
		r.ServerConnections,
		r.ServerRejected,
	)
	return r
}

// Register adds an extra collector. Registering the same collector twice is
// not an error.
func (r *Registry) Register(c prometheus.Collector) error {
	err := r.registry.Register(c)
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		return nil
	}
	return err
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveCommand implements nskv.Observer.
func (r *Registry) ObserveCommand(method string, d time.Duration, err error) {
	r.ClientCommands.WithLabelValues(method, outcome(err)).Inc()
	r.ClientCommandDuration.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveBatch implements nskv.Observer.
func (r *Registry) ObserveBatch(mode nskv.BatchMode, size int, _ time.Duration, err error) {
	r.ClientBatches.WithLabelValues(mode.String(), outcome(err)).Inc()
	r.ClientBatchSize.WithLabelValues(mode.String()).Observe(float64(size))
}

// ObserveScanRound implements nskv.Observer.
func (r *Registry) ObserveScanRound(items int, anomaly bool) {
	if anomaly {
		r.ClientScanAnomalies.Inc()
		return
	}
	r.ClientScanRounds.Inc()
	r.ClientScanItems.Add(float64(items))
}

// ObserveFallback implements nskv.Observer.
func (r *Registry) ObserveFallback(rerun bool) {
	label := "false"
	if rerun {
		label = "true"
	}
	r.ClientFallbacks.WithLabelValues(label).Inc()
}

// ServerCommand records one command handled by the development server.
func (r *Registry) ServerCommand(name string, err error) {
	r.ServerCommands.WithLabelValues(name, outcome(err)).Inc()
}

// ServerConnOpened increments the open connection gauge.
func (r *Registry) ServerConnOpened() { r.ServerConnections.Inc() }

// ServerConnClosed decrements the open connection gauge.
func (r *Registry) ServerConnClosed() { r.ServerConnections.Dec() }

// ServerReject records a command refused before execution, for example by
// the rate limiter or for missing authentication.
func (r *Registry) ServerReject(reason string) {
	r.ServerRejected.WithLabelValues(reason).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Registerer exposes the underlying registry for components that register
// their own collectors.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}
