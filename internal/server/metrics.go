package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "word_impostor"

// Metrics 服务端指标，使用独立的 registry，便于测试时多次创建
type Metrics struct {
	registry *prometheus.Registry

	OnlinePlayers    prometheus.Gauge
	ActiveRooms      prometheus.Gauge
	RoundsStarted    prometheus.Counter
	RoundsConcluded  *prometheus.CounterVec
	MessagesReceived *prometheus.CounterVec
	MessageLatency   prometheus.Histogram
	RejectedConns    *prometheus.CounterVec
}

// NewMetrics 创建并注册指标
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		OnlinePlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "online_players",
			Help:      "Number of connected websocket clients",
		}),
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "active_rooms",
			Help:      "Number of open rooms",
		}),
		RoundsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rounds_started_total",
			Help:      "Total number of rounds started",
		}),
		RoundsConcluded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rounds_concluded_total",
			Help:      "Total number of rounds concluded, by outcome",
		}, []string{"outcome"}),
		MessagesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "messages_received_total",
			Help:      "Total number of client messages received, by type",
		}, []string{"type"}),
		MessageLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "message_latency_seconds",
			Help:      "Message processing latency",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		RejectedConns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rejected_connections_total",
			Help:      "Websocket upgrades refused, by reason",
		}, []string{"reason"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.OnlinePlayers,
		m.ActiveRooms,
		m.RoundsStarted,
		m.RoundsConcluded,
		m.MessagesReceived,
		m.MessageLatency,
		m.RejectedConns,
	)
	return m
}

// Handler /metrics 接口
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveMessage 记录一条消息的处理
func (m *Metrics) ObserveMessage(msgType string, d time.Duration) {
	m.MessagesReceived.WithLabelValues(msgType).Inc()
	m.MessageLatency.Observe(d.Seconds())
}

// Reject 记录一次被拒绝的连接
func (m *Metrics) Reject(reason string) {
	m.RejectedConns.WithLabelValues(reason).Inc()
}

// --- types.RoundObserver ---

func (m *Metrics) RoomOpened()   { m.ActiveRooms.Inc() }
func (m *Metrics) RoomClosed()   { m.ActiveRooms.Dec() }
func (m *Metrics) RoundStarted() { m.RoundsStarted.Inc() }

func (m *Metrics) RoundConcluded(disconnected bool) {
	outcome := "completed"
	if disconnected {
		outcome = "impostor_left"
	}
	m.RoundsConcluded.WithLabelValues(outcome).Inc()
}
