package cocodb

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAssignsHexIDs(t *testing.T) {
	r := newRegistry()
	now := time.Unix(100, 0)

	var ids []string
	for range 17 {
		ids = append(ids, r.assign(newCall(FnHello, nil), now))
	}

	assert.Equal(t, "1", ids[0])
	assert.Equal(t, "a", ids[9])
	assert.Equal(t, "f", ids[14])
	assert.Equal(t, "10", ids[15])
	assert.Equal(t, "11", ids[16])
	assert.Equal(t, 17, r.len())
}

func TestRegistryComplete(t *testing.T) {
	r := newRegistry()
	c := newCall(FnGet, nil)
	id := r.assign(c, time.Now())
	assert.Equal(t, id, c.ID())

	assert.True(t, r.complete(id, json.RawMessage(`"doc"`)))
	assert.False(t, r.complete(id, json.RawMessage(`"again"`)), "a reply only completes once")
	assert.False(t, r.complete("ff", nil))

	resp, err := c.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `"doc"`, string(resp))
	assert.Equal(t, 0, r.len())
}

func TestRegistryFailAll(t *testing.T) {
	r := newRegistry()
	a := newCall(FnGet, nil)
	b := newCall(FnPut, nil)
	r.assign(a, time.Now())
	r.assign(b, time.Now())

	boom := errors.New("boom")
	assert.Equal(t, 2, r.failAll(boom))
	assert.Equal(t, 0, r.len())

	for _, c := range []*Call{a, b} {
		_, err := c.Wait(context.Background())
		assert.ErrorIs(t, err, boom)
	}
}

func TestRegistryResetRestartsIDs(t *testing.T) {
	r := newRegistry()
	r.assign(newCall(FnHello, nil), time.Now())
	r.assign(newCall(FnHello, nil), time.Now())
	r.failAll(ErrSessionClosed)
	r.reset()

	assert.Equal(t, "1", r.assign(newCall(FnHello, nil), time.Now()))
}

func TestRegistryRemove(t *testing.T) {
	r := newRegistry()
	c := newCall(FnHello, nil)
	id := r.assign(c, time.Now())
	r.remove(id)

	assert.Equal(t, 0, r.len())
	assert.False(t, r.complete(id, nil))
	select {
	case <-c.Done():
		t.Fatal("remove must not complete the call")
	default:
	}
}

func TestRegistrySnapshotOrder(t *testing.T) {
	r := newRegistry()
	base := time.Unix(100, 0)
	for i := range 17 {
		r.assign(newCall(FnQuery, nil), base.Add(time.Duration(i)*time.Second))
	}
	r.remove("2")

	pending := r.snapshot()
	require.Len(t, pending, 16)
	assert.Equal(t, "1", pending[0].ID)
	assert.Equal(t, "3", pending[1].ID)
	assert.Equal(t, "f", pending[13].ID)
	assert.Equal(t, "10", pending[14].ID)
	assert.Equal(t, "11", pending[15].ID)
	assert.Equal(t, FnQuery, pending[15].Fn)
	assert.Equal(t, base.Add(16*time.Second), pending[15].EnqueuedAt)
}
