package cocodb

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pior/cocodb/internal/testutils"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testTimeout = 2 * time.Second

type fakeTimer struct {
	delay   time.Duration
	c       chan time.Time
	stopped atomic.Bool
}

func (ft *fakeTimer) fire() {
	ft.c <- time.Time{}
}

// fakeClock hands timers and the idle ticker to the test instead of the runtime.
type fakeClock struct {
	timers chan *fakeTimer

	mu            sync.Mutex
	interval      time.Duration
	tickC         chan time.Time
	tickerStopped bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{timers: make(chan *fakeTimer, 64)}
}

func (c *fakeClock) Now() time.Time {
	return time.Unix(1700000000, 0)
}

func (c *fakeClock) After(d time.Duration) (<-chan time.Time, func() bool) {
	ft := &fakeTimer{delay: d, c: make(chan time.Time, 1)}
	c.timers <- ft
	return ft.c, func() bool { return !ft.stopped.Swap(true) }
}

func (c *fakeClock) Ticker(d time.Duration) (<-chan time.Time, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interval = d
	c.tickC = make(chan time.Time)
	return c.tickC, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.tickerStopped = true
	}
}

func (c *fakeClock) ticker() (chan time.Time, time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickC, c.interval, c.tickerStopped
}

// nextTimer waits for the session to schedule a reconnect.
func (c *fakeClock) nextTimer(t *testing.T) *fakeTimer {
	t.Helper()
	select {
	case ft := <-c.timers:
		return ft
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for a reconnect timer")
		return nil
	}
}

func (c *fakeClock) requireNoTimer(t *testing.T) {
	t.Helper()
	select {
	case ft := <-c.timers:
		t.Fatalf("unexpected timer scheduled for %s", ft.delay)
	default:
	}
}

// tick delivers one idle check; it returns once the session received it.
func (c *fakeClock) tick(t *testing.T) {
	t.Helper()
	var tickC chan time.Time
	require.Eventually(t, func() bool {
		tickC, _, _ = c.ticker()
		return tickC != nil
	}, testTimeout, time.Millisecond, "idle ticker never started")

	select {
	case tickC <- time.Time{}:
	case <-time.After(testTimeout):
		t.Fatal("session did not take the tick")
	}
}

func testConfig(t *testing.T, dialer *testutils.DialerMock, clk *fakeClock) Config {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return Config{
		Endpoint:   "ws://db.example:8080",
		Credential: "c2VjcmV0",
		Dial:       dialer.Dial,
		Logger:     &logger,
		clock:      clk,
	}
}

// newTestSession starts a session on a mock dialer and closes it at cleanup.
func newTestSession(t *testing.T, configure ...func(*Config)) (*Session, *testutils.DialerMock, *fakeClock) {
	t.Helper()
	dialer := testutils.NewDialerMock()
	clk := newFakeClock()
	cfg := testConfig(t, dialer, clk)
	for _, fn := range configure {
		fn(&cfg)
	}

	s, err := NewSession(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		select {
		case <-s.Shutdown():
		case <-time.After(testTimeout):
			t.Error("session did not shut down")
		}
	})
	return s, dialer, clk
}

// newManualCloseSession is newTestSession with sockets that stay terminating
// until the test finishes their closure.
func newManualCloseSession(t *testing.T) (*Session, *testutils.DialerMock, *fakeClock) {
	t.Helper()
	dialer := testutils.NewManualCloseDialerMock()
	clk := newFakeClock()

	s, err := NewSession(testConfig(t, dialer, clk))
	require.NoError(t, err)
	t.Cleanup(func() {
		done := s.Shutdown()
		dialer.ReleaseAll()
		select {
		case <-done:
		case <-time.After(testTimeout):
			t.Error("session did not shut down")
		}
	})
	return s, dialer, clk
}

// openSession starts a session and opens its first socket.
func openSession(t *testing.T, configure ...func(*Config)) (*Session, *testutils.SocketMock, *testutils.DialerMock, *fakeClock) {
	t.Helper()
	s, dialer, clk := newTestSession(t, configure...)
	sock := dialer.Next(t)
	sock.Open()
	require.NoError(t, s.WaitReady(testContext(t)))
	return s, sock, dialer, clk
}

// hibernate drives an open, idle session into hibernation.
func hibernate(t *testing.T, s *Session, sock *testutils.SocketMock, clk *fakeClock) {
	t.Helper()
	clk.tick(t)
	clk.tick(t)
	requireState(t, s, StateHibernating)
	requireTerminated(t, sock)
}

func requireTerminated(t *testing.T, sock *testutils.SocketMock) {
	t.Helper()
	require.Eventually(t, sock.Terminated, testTimeout, time.Millisecond, "socket was not terminated")
}

func requireState(t *testing.T, s *Session, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return s.State() == want }, testTimeout, time.Millisecond,
		"state is %s, want %s", s.State(), want)
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	t.Cleanup(cancel)
	return ctx
}

func reply(id string, response string) string {
	return fmt.Sprintf(`{"id":%q,"response":%s}`, id, response)
}
