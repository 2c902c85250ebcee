package cocodb

import "fmt"

// DefaultMaxBuffered bounds the outbound buffer.
const DefaultMaxBuffered = 2000

// outbox holds calls issued while the socket is down, in admission order.
type outbox struct {
	capacity int
	calls    []*Call
}

func newOutbox(capacity int) *outbox {
	if capacity <= 0 {
		capacity = DefaultMaxBuffered
	}
	return &outbox{capacity: capacity}
}

// admit appends c, or fails with ErrBufferFull when at capacity.
func (o *outbox) admit(c *Call) error {
	if len(o.calls) >= o.capacity {
		return fmt.Errorf("%w: %d calls buffered", ErrBufferFull, len(o.calls))
	}
	o.calls = append(o.calls, c)
	return nil
}

// drain hands back every buffered call in FIFO order and empties the buffer.
func (o *outbox) drain() []*Call {
	calls := o.calls
	o.calls = nil
	return calls
}

func (o *outbox) failAll(err error) int {
	n := len(o.calls)
	for _, c := range o.drain() {
		c.finish(nil, err)
	}
	return n
}

func (o *outbox) len() int {
	return len(o.calls)
}
