// Package metrics собирает prometheus-метрики сервиса
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор метрик сервиса. Все методы безопасны для nil-получателя,
// поэтому при выключенных метриках компоненты получают nil.
type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	dbQueriesTotal   *prometheus.CounterVec
	dbQueryDuration  *prometheus.HistogramVec
	dbConnections    *prometheus.GaugeVec
	dbTxRetriesTotal prometheus.Counter

	bookingTransitions *prometheus.CounterVec
	sweepRunsTotal     *prometheus.CounterVec
	sweepBookings      *prometheus.CounterVec
	sweepDuration      prometheus.Histogram
}

// New создаёт метрики и регистрирует их в prometheus.DefaultRegisterer
func New(serviceName string) *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer, serviceName)
}

// NewWithRegistry создаёт метрики в указанном реестре (для тестов)
func NewWithRegistry(reg prometheus.Registerer, serviceName string) *Metrics {
	labels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total HTTP requests",
			ConstLabels: labels,
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "path"}),
		dbQueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "db_queries_total",
			Help:        "Total database queries",
			ConstLabels: labels,
		}, []string{"operation", "status"}),
		dbQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query latency",
			ConstLabels: labels,
			Buckets:     []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"operation"}),
		dbConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_connections",
			Help:        "Database connection pool state",
			ConstLabels: labels,
		}, []string{"state"}),
		dbTxRetriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "db_tx_retries_total",
			Help:        "Transactions retried after serialization failure or deadlock",
			ConstLabels: labels,
		}),
		bookingTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_transitions_total",
			Help:        "Booking status transitions",
			ConstLabels: labels,
		}, []string{"from", "to"}),
		sweepRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "autocomplete_sweeps_total",
			Help:        "Auto-completion sweeps",
			ConstLabels: labels,
		}, []string{"result"}),
		sweepBookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "autocomplete_bookings_total",
			Help:        "Bookings examined by auto-completion sweeps",
			ConstLabels: labels,
		}, []string{"outcome"}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "autocomplete_sweep_duration_seconds",
			Help:        "Auto-completion sweep duration",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
	}

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.dbQueriesTotal,
		m.dbQueryDuration,
		m.dbConnections,
		m.dbTxRetriesTotal,
		m.bookingTransitions,
		m.sweepRunsTotal,
		m.sweepBookings,
		m.sweepDuration,
	)

	return m
}

// ObserveHTTPRequest учитывает обработанный HTTP запрос
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveDBQuery учитывает выполненный запрос к БД
func (m *Metrics) ObserveDBQuery(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.dbQueriesTotal.WithLabelValues(operation, status).Inc()
	m.dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetDBConnections обновляет состояние пула соединений
func (m *Metrics) SetDBConnections(open, inUse, idle int) {
	if m == nil {
		return
	}
	m.dbConnections.WithLabelValues("open").Set(float64(open))
	m.dbConnections.WithLabelValues("in_use").Set(float64(inUse))
	m.dbConnections.WithLabelValues("idle").Set(float64(idle))
}

// IncTxRetry учитывает повтор транзакции
func (m *Metrics) IncTxRetry() {
	if m == nil {
		return
	}
	m.dbTxRetriesTotal.Inc()
}

// ObserveBookingTransition учитывает переход статуса бронирования
func (m *Metrics) ObserveBookingTransition(from, to string) {
	if m == nil {
		return
	}
	m.bookingTransitions.WithLabelValues(from, to).Inc()
}

// ObserveSweep учитывает прогон планировщика автозавершения
func (m *Metrics) ObserveSweep(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.sweepRunsTotal.WithLabelValues(result).Inc()
	m.sweepDuration.Observe(duration.Seconds())
}

// AddSweepBookings учитывает бронирования, обработанные прогоном, по исходу
func (m *Metrics) AddSweepBookings(outcome string, count int) {
	if m == nil || count == 0 {
		return
	}
	m.sweepBookings.WithLabelValues(outcome).Add(float64(count))
}
