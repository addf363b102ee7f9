package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CoordinatorMetrics tracks the cloud session of the coordinator. A nil
// *CoordinatorMetrics is valid and records nothing.
type CoordinatorMetrics struct {
	connected       prometheus.Gauge
	online          prometheus.Gauge
	retryCount      prometheus.Gauge
	appliances      prometheus.Gauge
	session         prometheus.Gauge
	reconnects      prometheus.Counter
	readyEvents     prometheus.Counter
	updates         prometheus.Counter
	requestFailures *prometheus.CounterVec
}

func NewCoordinatorMetrics() *CoordinatorMetrics {
	return &CoordinatorMetrics{
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "smarthq_cloud_connected",
			Help: "1 if the cloud websocket is connected",
		}),
		online: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "smarthq_cloud_online",
			Help: "1 if appliance entities are reported available",
		}),
		retryCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "smarthq_cloud_retry_count",
			Help: "Consecutive failed reconnect attempts",
		}),
		appliances: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "smarthq_appliances",
			Help: "Appliances with a materialized api",
		}),
		session: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "smarthq_cloud_session",
			Help: "Current client session id",
		}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smarthq_cloud_reconnects_total",
			Help: "Reconnect attempts",
		}),
		readyEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smarthq_ready_events_total",
			Help: "All appliances ready broadcasts",
		}),
		updates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smarthq_updates_total",
			Help: "Appliance updates received from the cloud",
		}),
		requestFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smarthq_request_failures_total",
			Help: "Failed cloud requests by kind",
		}, []string{"request"}),
	}
}

// Register adds every collector to registry.
func (m *CoordinatorMetrics) Register(registry prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *CoordinatorMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.connected, m.online, m.retryCount, m.appliances, m.session,
		m.reconnects, m.readyEvents, m.updates, m.requestFailures,
	}
}

func (m *CoordinatorMetrics) SetConnectivity(connected, online bool, retryCount int) {
	if m == nil {
		return
	}
	m.connected.Set(boolValue(connected))
	m.online.Set(boolValue(online))
	m.retryCount.Set(float64(retryCount))
}

func (m *CoordinatorMetrics) SetSession(session uint64) {
	if m == nil {
		return
	}
	m.session.Set(float64(session))
}

func (m *CoordinatorMetrics) SetAppliances(count int) {
	if m == nil {
		return
	}
	m.appliances.Set(float64(count))
}

func (m *CoordinatorMetrics) Reconnect() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

func (m *CoordinatorMetrics) Ready() {
	if m == nil {
		return
	}
	m.readyEvents.Inc()
}

func (m *CoordinatorMetrics) Update() {
	if m == nil {
		return
	}
	m.updates.Inc()
}

func (m *CoordinatorMetrics) RequestFailed(request string) {
	if m == nil {
		return
	}
	m.requestFailures.WithLabelValues(request).Inc()
}

func boolValue(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
