package cocodb

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"
)

// registry correlates in-flight calls with server replies. It is owned by
// the session loop and never shared.
type registry struct {
	counter uint64
	pending map[string]*Call
}

func newRegistry() *registry {
	return &registry{pending: make(map[string]*Call)}
}

// assign gives c the next id and records it as pending.
func (r *registry) assign(c *Call, now time.Time) string {
	r.counter++
	id := strconv.FormatUint(r.counter, 16)
	c.id = id
	c.enqueuedAt = now
	r.pending[id] = c
	return id
}

// remove drops id without completing it.
func (r *registry) remove(id string) {
	delete(r.pending, id)
}

// complete resolves the call waiting on id. It reports false when no such
// call is pending.
func (r *registry) complete(id string, response json.RawMessage) bool {
	c, ok := r.pending[id]
	if !ok {
		return false
	}
	delete(r.pending, id)
	c.finish(response, nil)
	return true
}

// failAll completes every pending call with err and empties the registry.
func (r *registry) failAll(err error) int {
	n := len(r.pending)
	for id, c := range r.pending {
		c.finish(nil, err)
		delete(r.pending, id)
	}
	return n
}

func (r *registry) len() int {
	return len(r.pending)
}

// reset restarts id generation. Only valid once nothing is pending.
func (r *registry) reset() {
	r.counter = 0
	clear(r.pending)
}

// PendingCall describes one call awaiting its reply.
type PendingCall struct {
	ID         string
	Fn         Function
	EnqueuedAt time.Time
}

func (r *registry) snapshot() []PendingCall {
	out := make([]PendingCall, 0, len(r.pending))
	for id, c := range r.pending {
		out = append(out, PendingCall{ID: id, Fn: c.Fn, EnqueuedAt: c.enqueuedAt})
	}
	// Ids are unpadded hex, so shorter means older.
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].ID) != len(out[j].ID) {
			return len(out[i].ID) < len(out[j].ID)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
