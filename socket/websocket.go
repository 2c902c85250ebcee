package socket

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
)

const (
	defaultDialTimeout  = 10 * time.Second
	defaultWriteTimeout = 15 * time.Second
	defaultSendQueue    = 256
	defaultReadLimit    = 16 << 20
)

// WebSocketOptions tunes DialWebSocket. Zero values select defaults.
type WebSocketOptions struct {
	DialTimeout  time.Duration
	WriteTimeout time.Duration
	SendQueue    int
	ReadLimit    int64
	HTTPClient   *http.Client
}

// DialWebSocket is the default DialFunc.
func DialWebSocket(endpoint string, header http.Header, emit func(Event)) Socket {
	return WebSocketDialer(WebSocketOptions{})(endpoint, header, emit)
}

// WebSocketDialer returns a DialFunc backed by github.com/coder/websocket.
func WebSocketDialer(opts WebSocketOptions) DialFunc {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	if opts.SendQueue <= 0 {
		opts.SendQueue = defaultSendQueue
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = defaultReadLimit
	}

	return func(endpoint string, header http.Header, emit func(Event)) Socket {
		ctx, cancel := context.WithCancel(context.Background())
		s := &wsSocket{
			opts:   opts,
			ctx:    ctx,
			cancel: cancel,
			send:   make(chan []byte, opts.SendQueue),
		}
		go s.run(endpoint, header.Clone(), emit)
		return s
	}
}

type wsSocket struct {
	opts       WebSocketOptions
	ctx        context.Context
	cancel     context.CancelFunc
	send       chan []byte
	terminated atomic.Bool
}

func (s *wsSocket) Send(data []byte) error {
	if s.ctx.Err() != nil {
		return ErrClosed
	}
	select {
	case s.send <- data:
		return nil
	default:
		return ErrQueueFull
	}
}

func (s *wsSocket) Terminate() {
	s.terminated.Store(true)
	s.cancel()
}

func (s *wsSocket) run(endpoint string, header http.Header, emit func(Event)) {
	var cause error
	defer func() {
		s.cancel()
		if s.terminated.Load() {
			cause = nil
		} else if cause == nil {
			cause = ErrClosed
		}
		emit(Event{Kind: EventClosed, Err: cause})
	}()

	dialCtx, dialCancel := context.WithTimeout(s.ctx, s.opts.DialTimeout)
	conn, _, err := websocket.Dial(dialCtx, endpoint, &websocket.DialOptions{
		HTTPClient:      s.opts.HTTPClient,
		HTTPHeader:      header,
		CompressionMode: websocket.CompressionDisabled,
	})
	dialCancel()
	if err != nil {
		cause = err
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(s.opts.ReadLimit)

	emit(Event{Kind: EventOpened})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.writePump(conn)
	}()
	defer wg.Wait()

	for {
		// Binary frames are forwarded as-is; the session decides what they mean.
		_, data, err := conn.Read(s.ctx)
		if err != nil {
			cause = err
			s.cancel()
			return
		}
		emit(Event{Kind: EventMessage, Data: data})
	}
}

func (s *wsSocket) writePump(conn *websocket.Conn) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case data := <-s.send:
			writeCtx, cancel := context.WithTimeout(s.ctx, s.opts.WriteTimeout)
			err := conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				// Unblocks the read loop, which reports the close.
				s.cancel()
				return
			}
		}
	}
}
