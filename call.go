package cocodb

import (
	"context"
	"encoding/json"
	"time"
)

// Call is one outstanding remote invocation.
type Call struct {
	Fn Function

	args       json.RawMessage
	id         string
	enqueuedAt time.Time

	response json.RawMessage
	err      error
	ready    chan struct{}
}

func newCall(fn Function, args json.RawMessage) *Call {
	return &Call{
		Fn:    fn,
		args:  args,
		ready: make(chan struct{}),
	}
}

// failedCall returns a call that is already completed with err.
func failedCall(fn Function, err error) *Call {
	c := newCall(fn, nil)
	c.finish(nil, err)
	return c
}

// ID returns the correlation id assigned when the call reached the wire.
// It is empty until then and must only be read after Done is closed.
func (c *Call) ID() string {
	return c.id
}

// Done is closed once the call has a response or an error.
func (c *Call) Done() <-chan struct{} {
	return c.ready
}

// Wait blocks until the call completes or ctx is done. A canceled ctx only
// abandons the wait: the call stays pending until the server answers or the
// connection goes away.
func (c *Call) Wait(ctx context.Context) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	select {
	case <-c.ready:
		return c.response, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// finish completes the call; later completions are ignored.
func (c *Call) finish(response json.RawMessage, err error) bool {
	select {
	case <-c.ready:
		return false
	default:
	}
	c.response = response
	c.err = err
	close(c.ready)
	return true
}
