package cocodb

import (
	"sync/atomic"
)

// SessionStats contains statistics about a session.
// All fields are safe for concurrent access.
//
// For Prometheus integration see package promexporter, which exposes:
//   - Counters: Sends, Responses, FailedCalls, Anomalies, ConnectAttempts,
//     Disconnects, Hibernations, Wakes, BufferRejects
//   - Gauges: Pending, Buffered
type SessionStats struct {
	Sends           uint64 // Messages handed to the socket
	Responses       uint64 // Replies matched to a pending call
	FailedCalls     uint64 // Calls completed with an error
	Anomalies       uint64 // Replies with a missing or unknown id
	ConnectAttempts uint64 // Sockets dialed
	Disconnects     uint64 // Unexpected socket losses
	Hibernations    uint64 // Idle teardowns
	Wakes           uint64 // Reconnects triggered by a call while hibernating
	BufferRejects   uint64 // Calls refused because the buffer was full

	Pending  int32 // Calls awaiting a reply
	Buffered int32 // Calls waiting for the socket
}

// sessionStatsCollector provides internal methods for updating session stats.
// Not exported - the session loop updates its own stats.
type sessionStatsCollector struct {
	stats SessionStats
}

func newSessionStatsCollector() *sessionStatsCollector {
	return &sessionStatsCollector{}
}

func (c *sessionStatsCollector) recordSend() {
	atomic.AddUint64(&c.stats.Sends, 1)
}

func (c *sessionStatsCollector) recordResponse() {
	atomic.AddUint64(&c.stats.Responses, 1)
}

func (c *sessionStatsCollector) recordFailures(n int) {
	if n > 0 {
		atomic.AddUint64(&c.stats.FailedCalls, uint64(n))
	}
}

func (c *sessionStatsCollector) recordAnomaly() {
	atomic.AddUint64(&c.stats.Anomalies, 1)
}

func (c *sessionStatsCollector) recordConnectAttempt() {
	atomic.AddUint64(&c.stats.ConnectAttempts, 1)
}

func (c *sessionStatsCollector) recordDisconnect() {
	atomic.AddUint64(&c.stats.Disconnects, 1)
}

func (c *sessionStatsCollector) recordHibernation() {
	atomic.AddUint64(&c.stats.Hibernations, 1)
}

func (c *sessionStatsCollector) recordWake() {
	atomic.AddUint64(&c.stats.Wakes, 1)
}

func (c *sessionStatsCollector) recordBufferReject() {
	atomic.AddUint64(&c.stats.BufferRejects, 1)
}

func (c *sessionStatsCollector) setGauges(pending, buffered int) {
	atomic.StoreInt32(&c.stats.Pending, int32(pending))
	atomic.StoreInt32(&c.stats.Buffered, int32(buffered))
}

func (c *sessionStatsCollector) snapshot() SessionStats {
	return SessionStats{
		Sends:           atomic.LoadUint64(&c.stats.Sends),
		Responses:       atomic.LoadUint64(&c.stats.Responses),
		FailedCalls:     atomic.LoadUint64(&c.stats.FailedCalls),
		Anomalies:       atomic.LoadUint64(&c.stats.Anomalies),
		ConnectAttempts: atomic.LoadUint64(&c.stats.ConnectAttempts),
		Disconnects:     atomic.LoadUint64(&c.stats.Disconnects),
		Hibernations:    atomic.LoadUint64(&c.stats.Hibernations),
		Wakes:           atomic.LoadUint64(&c.stats.Wakes),
		BufferRejects:   atomic.LoadUint64(&c.stats.BufferRejects),
		Pending:         atomic.LoadInt32(&c.stats.Pending),
		Buffered:        atomic.LoadInt32(&c.stats.Buffered),
	}
}
