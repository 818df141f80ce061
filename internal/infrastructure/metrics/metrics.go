package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/masspay/internal/domain"
	"github.com/iho/masspay/internal/usecase"
)

// Metrics holds all Prometheus metrics and implements usecase.Recorder.
type Metrics struct {
	// Item metrics
	ItemsRouted     *prometheus.CounterVec
	ItemDuration    *prometheus.HistogramVec
	ItemsSweptTotal prometheus.Counter

	// Run metrics
	BatchesFinished *prometheus.CounterVec
	GroupsFinished  *prometheus.CounterVec
	RunsFailed      *prometheus.CounterVec

	// Dispatch metrics
	TasksQueued   *prometheus.CounterVec
	TasksRejected *prometheus.CounterVec
	QueueDepth    prometheus.Gauge

	// Gateway metrics
	GatewayCalls    *prometheus.CounterVec
	GatewayDuration *prometheus.HistogramVec
	BreakerOpen     *prometheus.GaugeVec

	// Outbox metrics
	EventsPublished *prometheus.CounterVec
}

var _ usecase.Recorder = (*Metrics)(nil)

// New creates all metrics and registers them with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ItemsRouted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "masspay_items_routed_total",
				Help: "Total mass payment items routed, by route and result",
			},
			[]string{"route", "result"},
		),
		ItemDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "masspay_item_duration_seconds",
				Help:    "Duration of a single item routing",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		ItemsSweptTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "masspay_items_swept_total",
			Help: "Total items failed by the stuck item sweep",
		}),

		BatchesFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "masspay_batches_finished_total",
				Help: "Total mass payments reaching a terminal status",
			},
			[]string{"status"},
		),
		GroupsFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "masspay_groups_finished_total",
				Help: "Total recipient groups reaching a terminal status",
			},
			[]string{"status"},
		),
		RunsFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "masspay_runs_failed_total",
				Help: "Total processing runs that ended in an error",
			},
			[]string{"kind"},
		),

		TasksQueued: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "masspay_dispatch_queued_total",
				Help: "Total runs accepted by the dispatch queue",
			},
			[]string{"kind"},
		),
		TasksRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "masspay_dispatch_rejected_total",
				Help: "Total runs rejected because the dispatch queue was full",
			},
			[]string{"kind"},
		),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "masspay_dispatch_queue_depth",
			Help: "Runs waiting in the dispatch queue",
		}),

		GatewayCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "masspay_gateway_calls_total",
				Help: "Total external transfer calls, by bank code and result",
			},
			[]string{"bank_code", "result"},
		),
		GatewayDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "masspay_gateway_call_duration_seconds",
				Help:    "Duration of external transfer calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"bank_code"},
		),
		BreakerOpen: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "masspay_gateway_breaker_open",
				Help: "1 while the gateway circuit breaker of a bank is not closed",
			},
			[]string{"bank_code"},
		),

		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "masspay_events_published_total",
				Help: "Total outbox events published",
			},
			[]string{"event_type"},
		),
	}
}

func (m *Metrics) ItemRouted(route usecase.RouteKind, success bool, duration time.Duration) {
	result := "failure"
	if success {
		result = "success"
	}
	m.ItemsRouted.WithLabelValues(string(route), result).Inc()
	m.ItemDuration.WithLabelValues(string(route)).Observe(duration.Seconds())
}

func (m *Metrics) BatchFinished(status domain.BatchStatus) {
	m.BatchesFinished.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) GroupFinished(status domain.BatchStatus) {
	m.GroupsFinished.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) RunFailed(kind string) {
	m.RunsFailed.WithLabelValues(kind).Inc()
}

func (m *Metrics) ItemsSwept(count int) {
	m.ItemsSweptTotal.Add(float64(count))
}

func (m *Metrics) TaskQueued(kind string, depth int) {
	m.TasksQueued.WithLabelValues(kind).Inc()
	m.QueueDepth.Set(float64(depth))
}

func (m *Metrics) TaskRejected(kind string) {
	m.TasksRejected.WithLabelValues(kind).Inc()
}

// GatewayCall records the outcome of one external transfer call.
func (m *Metrics) GatewayCall(bankCode, result string, duration time.Duration) {
	m.GatewayCalls.WithLabelValues(bankCode, result).Inc()
	m.GatewayDuration.WithLabelValues(bankCode).Observe(duration.Seconds())
}

// SetBreakerOpen records whether a bank's breaker lets calls through.
func (m *Metrics) SetBreakerOpen(bankCode string, open bool) {
	value := 0.0
	if open {
		value = 1
	}
	m.BreakerOpen.WithLabelValues(bankCode).Set(value)
}

// EventPublished counts a published outbox event.
func (m *Metrics) EventPublished(eventType string) {
	m.EventsPublished.WithLabelValues(eventType).Inc()
}
