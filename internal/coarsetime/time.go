// Package coarsetime provides a cheap, slightly stale wall clock for
// timestamps that are only read by humans, like call enqueue times.
//
// The first call to Now starts a goroutine that refreshes the cached time
// every Resolution.
package coarsetime

import (
	"sync"
	"sync/atomic"
	"time"
)

// Resolution is how stale Now may be.
const Resolution = 50 * time.Millisecond

var (
	now   atomic.Int64
	start sync.Once
)

func refresh() {
	for t := range time.Tick(Resolution) {
		now.Store(t.UnixNano())
	}
}

// Now returns the cached time, at most Resolution behind time.Now.
func Now() time.Time {
	start.Do(func() {
		now.Store(time.Now().UnixNano())
		go refresh()
	})
	return time.Unix(0, now.Load())
}
