package jetstream

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metricsSet JetStream 客户端指标。
// registerer 为 nil 时整个集合为 nil，所有方法都是空操作。
type metricsSet struct {
	publishes   *prometheus.CounterVec
	acks        *prometheus.CounterVec
	pulls       prometheus.Counter
	apiRequests *prometheus.CounterVec
}

func newMetricsSet(reg prometheus.Registerer) *metricsSet {
	if reg == nil {
		return nil
	}

	m := &metricsSet{
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jetkit_jetstream_publishes_total",
			Help: "Total number of JetStream publishes by result",
		}, []string{"result"}),
		acks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jetkit_jetstream_acks_total",
			Help: "Total number of message acknowledgements by type",
		}, []string{"type"}),
		pulls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jetkit_jetstream_pull_requests_total",
			Help: "Total number of pull batch requests",
		}),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jetkit_jetstream_api_requests_total",
			Help: "Total number of JetStream API requests by outcome",
		}, []string{"outcome"}),
	}

	reg.MustRegister(m.publishes, m.acks, m.pulls, m.apiRequests)
	return m
}

func (m *metricsSet) incPublish(result string) {
	if m == nil {
		return
	}
	m.publishes.WithLabelValues(result).Inc()
}

func (m *metricsSet) incAck(kind string) {
	if m == nil {
		return
	}
	m.acks.WithLabelValues(kind).Inc()
}

func (m *metricsSet) incPull() {
	if m == nil {
		return
	}
	m.pulls.Inc()
}

func (m *metricsSet) incAPI(outcome string) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(outcome).Inc()
}
