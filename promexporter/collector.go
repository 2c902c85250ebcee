// Package promexporter exposes cocodb session statistics to Prometheus.
package promexporter

import (
	"github.com/pior/cocodb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

// StatsSource is what the collector reads on every scrape. *cocodb.Session
// implements it.
type StatsSource interface {
	Stats() cocodb.SessionStats
	State() cocodb.State
	CircuitBreakerState() gobreaker.State
}

var sessionStates = []cocodb.State{
	cocodb.StateDisconnected,
	cocodb.StateConnecting,
	cocodb.StateOpen,
	cocodb.StateHibernating,
	cocodb.StateClosing,
}

type counterDesc struct {
	desc  *prometheus.Desc
	value func(cocodb.SessionStats) uint64
}

// SessionCollector is a prometheus.Collector over one session.
type SessionCollector struct {
	source StatsSource

	counters     []counterDesc
	pending      *prometheus.Desc
	buffered     *prometheus.Desc
	state        *prometheus.Desc
	circuitState *prometheus.Desc
}

// NewSessionCollector returns a collector reporting source under the
// cocodb_session namespace. constLabels are attached to every metric.
func NewSessionCollector(source StatsSource, constLabels prometheus.Labels) *SessionCollector {
	counter := func(name, help string, value func(cocodb.SessionStats) uint64) counterDesc {
		return counterDesc{
			desc:  prometheus.NewDesc(prometheus.BuildFQName("cocodb", "session", name), help, nil, constLabels),
			value: value,
		}
	}
	gauge := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName("cocodb", "session", name), help, labels, constLabels)
	}

	return &SessionCollector{
		source: source,
		counters: []counterDesc{
			counter("sends_total", "Messages handed to the socket",
				func(s cocodb.SessionStats) uint64 { return s.Sends }),
			counter("responses_total", "Replies matched to a pending call",
				func(s cocodb.SessionStats) uint64 { return s.Responses }),
			counter("failed_calls_total", "Calls completed with an error",
				func(s cocodb.SessionStats) uint64 { return s.FailedCalls }),
			counter("protocol_anomalies_total", "Server messages that matched no call",
				func(s cocodb.SessionStats) uint64 { return s.Anomalies }),
			counter("connect_attempts_total", "Sockets dialed",
				func(s cocodb.SessionStats) uint64 { return s.ConnectAttempts }),
			counter("disconnects_total", "Unexpected socket losses",
				func(s cocodb.SessionStats) uint64 { return s.Disconnects }),
			counter("hibernations_total", "Idle socket teardowns",
				func(s cocodb.SessionStats) uint64 { return s.Hibernations }),
			counter("wakes_total", "Reconnects triggered by a call while hibernating",
				func(s cocodb.SessionStats) uint64 { return s.Wakes }),
			counter("buffer_rejects_total", "Calls refused because the outbound buffer was full",
				func(s cocodb.SessionStats) uint64 { return s.BufferRejects }),
		},
		pending:      gauge("pending_calls", "Calls awaiting a reply"),
		buffered:     gauge("buffered_calls", "Calls waiting for the socket"),
		state:        gauge("state", "1 for the current lifecycle state", "state"),
		circuitState: gauge("circuit_breaker_state", "Circuit breaker state (0=closed, 1=half-open, 2=open)"),
	}
}

func (c *SessionCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, counter := range c.counters {
		ch <- counter.desc
	}
	ch <- c.pending
	ch <- c.buffered
	ch <- c.state
	ch <- c.circuitState
}

func (c *SessionCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.source.Stats()
	for _, counter := range c.counters {
		ch <- prometheus.MustNewConstMetric(counter.desc, prometheus.CounterValue, float64(counter.value(stats)))
	}
	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(stats.Pending))
	ch <- prometheus.MustNewConstMetric(c.buffered, prometheus.GaugeValue, float64(stats.Buffered))

	current := c.source.State()
	for _, st := range sessionStates {
		value := 0.0
		if st == current {
			value = 1
		}
		ch <- prometheus.MustNewConstMetric(c.state, prometheus.GaugeValue, value, st.String())
	}

	ch <- prometheus.MustNewConstMetric(c.circuitState, prometheus.GaugeValue, circuitStateValue(c.source.CircuitBreakerState()))
}

func circuitStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
