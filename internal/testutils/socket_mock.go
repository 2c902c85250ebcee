package testutils

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/pior/cocodb/socket"
)

const waitTimeout = 2 * time.Second

// SocketMock is a scripted socket.Socket. Tests drive its lifecycle with
// Open, Deliver and Drop, and inspect what the session wrote with Sent.
type SocketMock struct {
	Endpoint string
	Header   http.Header

	emit        func(socket.Event)
	manualClose bool

	mu         sync.Mutex
	sent       [][]byte
	sendErr    error
	terminated bool
	closed     bool
}

// Open reports the socket as usable.
func (m *SocketMock) Open() {
	m.emit(socket.Event{Kind: socket.EventOpened})
}

// Deliver pushes one inbound message.
func (m *SocketMock) Deliver(data string) {
	m.emit(socket.Event{Kind: socket.EventMessage, Data: []byte(data)})
}

// Drop closes the socket as if the network failed with err.
func (m *SocketMock) Drop(err error) {
	m.closeWith(err)
}

// FinishClose emits the closure of a terminated socket. Only needed when
// the dialer was created with manual close.
func (m *SocketMock) FinishClose() {
	m.closeWith(nil)
}

func (m *SocketMock) closeWith(err error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.emit(socket.Event{Kind: socket.EventClosed, Err: err})
}

// FailSends makes every later Send return err.
func (m *SocketMock) FailSends(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}

func (m *SocketMock) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.terminated {
		return socket.ErrClosed
	}
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, append([]byte(nil), data...))
	return nil
}

func (m *SocketMock) Terminate() {
	m.mu.Lock()
	if m.terminated {
		m.mu.Unlock()
		return
	}
	m.terminated = true
	m.mu.Unlock()

	if !m.manualClose {
		go m.closeWith(nil)
	}
}

// Terminated reports whether the session asked the socket to go away.
func (m *SocketMock) Terminated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.terminated
}

// Sent returns a copy of every message written so far.
func (m *SocketMock) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	for i, b := range m.sent {
		out[i] = string(b)
	}
	return out
}

// WaitSent waits until at least n messages were written and returns them.
func (m *SocketMock) WaitSent(t testing.TB, n int) []string {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for {
		sent := m.Sent()
		if len(sent) >= n {
			return sent
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected %d sent messages, got %d", n, len(sent))
		}
		time.Sleep(time.Millisecond)
	}
}

// DialerMock hands out SocketMocks in dial order.
type DialerMock struct {
	manualClose bool

	mu      sync.Mutex
	sockets []*SocketMock
	dialed  chan *SocketMock
}

// NewDialerMock returns a dialer whose sockets emit their closure on their
// own once terminated.
func NewDialerMock() *DialerMock {
	return &DialerMock{dialed: make(chan *SocketMock, 64)}
}

// NewManualCloseDialerMock returns a dialer whose terminated sockets only
// close when the test calls FinishClose.
func NewManualCloseDialerMock() *DialerMock {
	d := NewDialerMock()
	d.manualClose = true
	return d
}

// Dial implements socket.DialFunc.
func (d *DialerMock) Dial(endpoint string, header http.Header, emit func(socket.Event)) socket.Socket {
	m := &SocketMock{
		Endpoint:    endpoint,
		Header:      header.Clone(),
		emit:        emit,
		manualClose: d.manualClose,
	}
	d.mu.Lock()
	d.sockets = append(d.sockets, m)
	d.mu.Unlock()
	d.dialed <- m
	return m
}

// Next waits for the next dial.
func (d *DialerMock) Next(t testing.TB) *SocketMock {
	t.Helper()
	select {
	case m := <-d.dialed:
		return m
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for a dial")
		return nil
	}
}

// Dialed delivers sockets as they are dialed. It shares its queue with Next.
func (d *DialerMock) Dialed() <-chan *SocketMock {
	return d.dialed
}

// ReleaseAll emits the closure of every socket dialed so far.
func (d *DialerMock) ReleaseAll() {
	d.mu.Lock()
	sockets := append([]*SocketMock(nil), d.sockets...)
	d.mu.Unlock()
	for _, m := range sockets {
		m.FinishClose()
	}
}

// Count returns how many sockets were dialed.
func (d *DialerMock) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sockets)
}
