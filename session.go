package cocodb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pior/cocodb/internal/logging"
	"github.com/pior/cocodb/socket"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// State is the lifecycle phase of a session.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
	StateHibernating
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateHibernating:
		return "hibernating"
	case StateClosing:
		return "closing"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// activeSession enforces one live session per process.
var activeSession atomic.Bool

var closedChan = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

type socketEvent struct {
	gen uint64
	socket.Event
}

// Session keeps one logical connection to a cocodb service alive, multiplexes
// calls over it, reconnects with backoff after losses and releases the socket
// while idle.
//
// All connection state is owned by a single goroutine; the exported methods
// talk to it over channels and are safe for concurrent use.
type Session struct {
	endpoint          string
	header            http.Header
	dial              socket.DialFunc
	clock             clock
	log               zerolog.Logger
	onAnomaly         func(error)
	hibernateInterval time.Duration
	breaker           *gobreaker.TwoStepCircuitBreaker[struct{}]

	events      chan socketEvent
	calls       chan *Call
	inspect     chan chan []PendingCall
	closeSignal chan struct{}
	closeOnce   sync.Once
	done        chan struct{}
	ready       chan struct{}
	readyErr    error

	state atomic.Int32
	stats *sessionStatsCollector

	// Owned by the loop goroutine.
	sock        socket.Socket
	gen         uint64
	registry    *registry
	outbox      *outbox
	backoff     *backoff
	buffering   bool
	wakePending bool
	userClosed  bool
	everOpened  bool
	activity    int
	breakerDone func(success bool)
	backoffC    <-chan time.Time
	stopBackoff func() bool
	tickC       <-chan time.Time
	stopTick    func()
	finished    bool
}

// NewSession validates cfg, registers the process-wide session and starts
// connecting in the background. Use WaitReady to wait for the first open.
func NewSession(cfg Config) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	target, err := cfg.socketURL()
	if err != nil {
		return nil, err
	}
	if !activeSession.CompareAndSwap(false, true) {
		return nil, ErrSessionActive
	}

	s := &Session{
		endpoint:          target,
		header:            cfg.header(),
		dial:              cfg.Dial,
		clock:             cfg.clock,
		onAnomaly:         cfg.OnProtocolAnomaly,
		hibernateInterval: cfg.HibernateInterval,
		events:            make(chan socketEvent, 64),
		calls:             make(chan *Call),
		inspect:           make(chan chan []PendingCall),
		closeSignal:       make(chan struct{}),
		done:              make(chan struct{}),
		ready:             make(chan struct{}),
		stats:             newSessionStatsCollector(),
		registry:          newRegistry(),
		outbox:            newOutbox(cfg.MaxBuffered),
		backoff:           newBackoff(cfg.Backoff),
	}
	if s.dial == nil {
		s.dial = socket.DialWebSocket
	}
	if s.clock == nil {
		s.clock = realClock{}
	}
	if s.hibernateInterval == 0 {
		s.hibernateInterval = DefaultHibernateInterval
	}
	if cfg.Logger != nil {
		s.log = cfg.Logger.With().Str("endpoint", target).Logger()
	} else {
		s.log = logging.Default().With().Str("endpoint", target).Logger()
	}
	if cfg.NewCircuitBreaker != nil {
		s.breaker = cfg.NewCircuitBreaker(target)
	}
	s.setState(StateConnecting)

	go s.run()
	return s, nil
}

// Connect creates a session and waits until it is usable. When waiting
// fails the session is shut down again.
func Connect(ctx context.Context, cfg Config) (*Session, error) {
	s, err := NewSession(cfg)
	if err != nil {
		return nil, err
	}
	if err := s.WaitReady(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// WaitReady blocks until the first connection is open. It fails with
// ErrClosedBeforeOpen when the session is shut down before that happens, and
// with ErrSessionClosed once a session that did open has been closed.
func (s *Session) WaitReady(ctx context.Context) error {
	if s == nil {
		return ErrNotInitialized
	}
	select {
	case <-s.ready:
		if s.readyErr != nil {
			return s.readyErr
		}
		select {
		case <-s.done:
			return ErrSessionClosed
		default:
			return nil
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown starts a graceful close and returns a channel that is closed once
// the socket is gone and every pending call has been failed. Every call
// returns the same channel.
func (s *Session) Shutdown() <-chan struct{} {
	if s == nil {
		return closedChan
	}
	s.closeOnce.Do(func() {
		close(s.closeSignal)
	})
	return s.done
}

// Close shuts the session down and waits for teardown. It never fails.
func (s *Session) Close() error {
	<-s.Shutdown()
	return nil
}

// Go issues req and returns its call without waiting for the reply.
func (s *Session) Go(req Request) *Call {
	if s == nil {
		return failedCall(req.Fn, ErrNotInitialized)
	}
	args, err := encodeArgs(req)
	if err != nil {
		return failedCall(req.Fn, err)
	}

	c := newCall(req.Fn, args)
	select {
	case s.calls <- c:
	case <-s.done:
		c.finish(nil, ErrNotInitialized)
	}
	return c
}

// Send issues req and waits for the server's response payload.
func (s *Session) Send(ctx context.Context, req Request) (json.RawMessage, error) {
	return s.Go(req).Wait(ctx)
}

// Pending lists the calls awaiting a reply, oldest first.
func (s *Session) Pending(ctx context.Context) ([]PendingCall, error) {
	if s == nil {
		return nil, ErrNotInitialized
	}
	reply := make(chan []PendingCall, 1)
	select {
	case s.inspect <- reply:
	case <-s.done:
		return nil, ErrNotInitialized
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case pending := <-reply:
		return pending, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	if s == nil {
		return StateDisconnected
	}
	return State(s.state.Load())
}

// Stats returns a snapshot of session statistics.
func (s *Session) Stats() SessionStats {
	if s == nil {
		return SessionStats{}
	}
	return s.stats.snapshot()
}

// CircuitBreakerState reports the connect breaker state, closed when none is configured.
func (s *Session) CircuitBreakerState() gobreaker.State {
	if s == nil || s.breaker == nil {
		return gobreaker.StateClosed
	}
	return s.breaker.State()
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}

func (s *Session) run() {
	closeSignal := s.closeSignal

	s.connect()
	for !s.finished {
		select {
		case ev := <-s.events:
			s.handleSocketEvent(ev)
		case c := <-s.calls:
			s.handleCall(c)
		case reply := <-s.inspect:
			reply <- s.registry.snapshot()
		case <-closeSignal:
			closeSignal = nil
			s.handleClose()
		case <-s.backoffC:
			s.backoffC, s.stopBackoff = nil, nil
			s.connect()
		case <-s.tickC:
			s.checkIdle()
		}
		s.stats.setGauges(s.registry.len(), s.outbox.len())
	}
}

// post forwards a socket event to the loop; events racing teardown are dropped.
func (s *Session) post(gen uint64, ev socket.Event) {
	select {
	case s.events <- socketEvent{gen: gen, Event: ev}:
	case <-s.done:
	}
}

func (s *Session) connect() {
	s.setState(StateConnecting)

	if s.breaker != nil {
		done, err := s.breaker.Allow()
		if err != nil {
			s.log.Warn().Err(err).Msg("connect attempt rejected by circuit breaker")
			s.scheduleReconnect()
			return
		}
		s.breakerDone = done
	}

	s.gen++
	gen := s.gen
	s.stats.recordConnectAttempt()
	s.log.Debug().Uint64("attempt", gen).Msg("connecting")
	s.sock = s.dial(s.endpoint, s.header, func(ev socket.Event) {
		s.post(gen, ev)
	})
}

func (s *Session) scheduleReconnect() {
	s.setState(StateConnecting)
	delay := s.backoff.next()
	s.log.Debug().Dur("delay", delay).Msg("reconnect scheduled")
	s.backoffC, s.stopBackoff = s.clock.After(delay)
}

func (s *Session) settleBreaker(success bool) {
	if s.breakerDone != nil {
		s.breakerDone(success)
		s.breakerDone = nil
	}
}

func (s *Session) handleSocketEvent(ev socketEvent) {
	if ev.gen != s.gen || s.sock == nil {
		s.log.Debug().Stringer("event", ev.Kind).Uint64("attempt", ev.gen).Msg("dropping event from a released socket")
		return
	}
	switch ev.Kind {
	case socket.EventOpened:
		s.handleOpened()
	case socket.EventMessage:
		s.handleMessage(ev.Data)
	case socket.EventClosed:
		s.handleClosed(ev.Err)
	}
}

func (s *Session) handleOpened() {
	// A terminate is already in flight.
	if s.userClosed || s.State() != StateConnecting {
		return
	}

	s.settleBreaker(true)
	s.backoff.reset()
	s.activity++
	s.setState(StateOpen)

	if !s.everOpened {
		s.everOpened = true
		if s.hibernateInterval > 0 {
			s.tickC, s.stopTick = s.clock.Ticker(s.hibernateInterval)
		}
		close(s.ready)
		s.log.Info().Msg("connected")
	} else {
		s.log.Info().Msg("reconnected")
	}

	if s.buffering {
		s.buffering = false
		calls := s.outbox.drain()
		if len(calls) > 0 {
			s.log.Debug().Int("calls", len(calls)).Msg("draining outbound buffer")
		}
		for _, c := range calls {
			s.transmit(c)
		}
	}
}

func (s *Session) handleMessage(data []byte) {
	s.activity++

	id, response, err := decodeReply(data)
	if err == nil && !s.registry.complete(id, response) {
		err = fmt.Errorf("%w: %q", ErrUnknownCallID, id)
	}
	if err != nil {
		s.anomaly(err)
		return
	}
	s.stats.recordResponse()
}

func (s *Session) handleClosed(cause error) {
	s.sock = nil
	s.settleBreaker(false)

	switch {
	case s.userClosed:
		s.finish()

	case s.State() == StateHibernating:
		s.log.Debug().Msg("hibernation teardown complete")
		if s.wakePending {
			s.wakePending = false
			s.connect()
		}

	default:
		wasOpen := s.State() == StateOpen
		reason := ErrConnectionClosed
		if cause != nil {
			reason = fmt.Errorf("%w: %v", ErrConnectionClosed, cause)
		}
		failed := s.registry.failAll(reason)
		s.stats.recordFailures(failed)
		if wasOpen {
			s.stats.recordDisconnect()
			s.log.Warn().Err(cause).Int("failed_calls", failed).Msg("connection lost")
		} else {
			s.log.Warn().Err(cause).Msg("connect attempt failed")
		}
		s.scheduleReconnect()
	}
}

func (s *Session) handleCall(c *Call) {
	switch {
	case s.userClosed:
		s.fail(c, ErrSessionClosed)

	case s.State() == StateOpen:
		s.transmit(c)

	case s.buffering:
		if err := s.outbox.admit(c); err != nil {
			s.stats.recordBufferReject()
			s.fail(c, err)
			return
		}
		if s.State() == StateHibernating {
			s.wake()
		}

	default:
		s.fail(c, ErrNotReady)
	}
}

// transmit puts c on the wire. The session must be open.
func (s *Session) transmit(c *Call) {
	id := s.registry.assign(c, s.clock.Now())
	data, err := encodeEnvelope(c.Fn, id, c.args)
	if err == nil {
		err = s.sock.Send(data)
	}
	if err != nil {
		s.registry.remove(id)
		s.fail(c, fmt.Errorf("cocodb: send %s: %w", c.Fn, err))
		return
	}
	s.activity++
	s.stats.recordSend()
}

func (s *Session) fail(c *Call, err error) {
	if c.finish(nil, err) {
		s.stats.recordFailures(1)
	}
}

// checkIdle runs on every hibernation tick.
func (s *Session) checkIdle() {
	if s.State() != StateOpen {
		return
	}
	if s.activity > 0 {
		s.activity = 0
		return
	}
	if s.registry.len() > 0 {
		return
	}

	s.setState(StateHibernating)
	s.buffering = true
	s.stats.recordHibernation()
	s.log.Info().Msg("idle, hibernating")
	s.sock.Terminate()
}

func (s *Session) wake() {
	if s.wakePending {
		return
	}
	s.stats.recordWake()
	s.log.Info().Msg("waking from hibernation")
	if s.sock != nil {
		// The idle socket is still tearing down; reconnect on its close.
		s.wakePending = true
		return
	}
	s.connect()
}

func (s *Session) handleClose() {
	s.userClosed = true
	s.setState(StateClosing)
	s.log.Info().Msg("closing session")

	if !s.everOpened {
		s.readyErr = ErrClosedBeforeOpen
		close(s.ready)
	}
	if s.stopBackoff != nil {
		s.stopBackoff()
		s.backoffC, s.stopBackoff = nil, nil
	}
	s.stats.recordFailures(s.outbox.failAll(ErrSessionClosed))
	s.buffering = false
	s.wakePending = false

	if s.sock != nil {
		s.sock.Terminate()
		return
	}
	s.finish()
}

// finish releases everything once no socket is left.
func (s *Session) finish() {
	s.stats.recordFailures(s.registry.failAll(ErrSessionClosed))
	s.stats.recordFailures(s.outbox.failAll(ErrSessionClosed))
	if s.stopTick != nil {
		s.stopTick()
		s.tickC, s.stopTick = nil, nil
	}
	s.backoff.reset()
	s.registry.reset()
	s.activity = 0
	s.finished = true
	s.setState(StateDisconnected)
	s.stats.setGauges(0, 0)
	s.log.Info().Msg("session closed")

	activeSession.Store(false)
	close(s.done)
}

func (s *Session) anomaly(err error) {
	s.stats.recordAnomaly()
	s.log.Warn().Err(err).Msg("protocol anomaly")
	if s.onAnomaly != nil {
		s.onAnomaly(err)
	}
}
