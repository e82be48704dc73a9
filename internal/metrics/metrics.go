// Package metrics exposes Prometheus metrics for the stores, the REST
// client and the health monitor.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/septivank/trackmyfish-client/internal/health"
	"github.com/septivank/trackmyfish-client/internal/store"
)

const namespace = "trackmyfish"

// Metrics contains the client's Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	storeItems        *prometheus.GaugeVec
	storeError        *prometheus.GaugeVec

	apiRequestsTotal   *prometheus.CounterVec
	apiRequestDuration *prometheus.HistogramVec

	fishbaseDegraded   prometheus.Gauge
	heartbeatRefresh   prometheus.Counter
	tankAnomaliesTotal *prometheus.CounterVec
}

// New creates the metrics and registers them with registry. A nil registry
// gets a fresh one.
func New(registry *prometheus.Registry) (*Metrics, error) {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{registry: registry}
	m.initMetrics()

	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Total number of collection store operations",
		},
		[]string{"resource", "op", "status"}, // status: success, error
	)

	m.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Time taken by collection store operations, request included",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"resource", "op"},
	)

	m.storeItems = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_items",
			Help:      "Number of items currently held by a collection store",
		},
		[]string{"resource"},
	)

	m.storeError = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_error_retained",
			Help:      "1 when a collection store holds an error message",
		},
		[]string{"resource"},
	)

	m.apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total number of requests sent to the REST service",
		},
		[]string{"method", "route", "status_code"},
	)

	m.apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Time taken by requests to the REST service",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"method", "route"},
	)

	m.fishbaseDegraded = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "fishbase_degraded",
		Help:      "1 when the last heartbeat reported Fishbase as not operational",
	})

	m.heartbeatRefresh = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "heartbeat_refreshes_total",
		Help:      "Total number of applied heartbeat refreshes",
	})

	m.tankAnomaliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tank_anomalies_total",
			Help:      "Total number of anomalous water-quality readings",
		},
		[]string{"reading"},
	)

	// unknown until the first refresh
	m.fishbaseDegraded.Set(1)
}

// Describe implements the Collector interface
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.operationsTotal.Describe(ch)
	m.operationDuration.Describe(ch)
	m.storeItems.Describe(ch)
	m.storeError.Describe(ch)
	m.apiRequestsTotal.Describe(ch)
	m.apiRequestDuration.Describe(ch)
	m.fishbaseDegraded.Describe(ch)
	m.heartbeatRefresh.Describe(ch)
	m.tankAnomaliesTotal.Describe(ch)
}

// Collect implements the Collector interface
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.operationsTotal.Collect(ch)
	m.operationDuration.Collect(ch)
	m.storeItems.Collect(ch)
	m.storeError.Collect(ch)
	m.apiRequestsTotal.Collect(ch)
	m.apiRequestDuration.Collect(ch)
	m.fishbaseDegraded.Collect(ch)
	m.heartbeatRefresh.Collect(ch)
	m.tankAnomaliesTotal.Collect(ch)
}

// Registry returns the registry the metrics are registered with
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

// RecordOperation implements store.Recorder
func (m *Metrics) RecordOperation(_ context.Context, op store.Operation) {
	status := "success"
	if !op.Succeeded {
		status = "error"
	}
	m.operationsTotal.WithLabelValues(op.Resource, string(op.Kind), status).Inc()
	m.operationDuration.WithLabelValues(op.Resource, string(op.Kind)).Observe(op.Duration.Seconds())
	m.storeItems.WithLabelValues(op.Resource).Set(float64(op.Items))

	switch {
	case op.Succeeded:
		m.storeError.WithLabelValues(op.Resource).Set(0)
	case op.Kind != store.OpList:
		// failed lists are never retained
		m.storeError.WithLabelValues(op.Resource).Set(1)
	}
}

// ObserveResponse matches api.ResponseHook
func (m *Metrics) ObserveResponse(method, path string, status int, elapsed time.Duration, _ error) {
	route := Route(path)
	code := "none"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.apiRequestsTotal.WithLabelValues(method, route, code).Inc()
	m.apiRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveHeartbeat matches health.Listener
func (m *Metrics) ObserveHeartbeat(snap health.Snapshot) {
	m.heartbeatRefresh.Inc()
	if snap.Degraded {
		m.fishbaseDegraded.Set(1)
	} else {
		m.fishbaseDegraded.Set(0)
	}
}

// RecordAnomaly counts one anomalous reading
func (m *Metrics) RecordAnomaly(reading string) {
	m.tankAnomaliesTotal.WithLabelValues(reading).Inc()
}

// Route replaces a trailing numeric id with a placeholder to keep label
// cardinality bounded: /fish/12 becomes /fish/{id}.
func Route(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 || i == len(path)-1 {
		return path
	}
	if _, err := strconv.ParseInt(path[i+1:], 10, 64); err != nil {
		return path
	}
	return path[:i] + "/{id}"
}
