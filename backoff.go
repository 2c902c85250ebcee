package cocodb

import "time"

// DefaultBackoff is the wait before each reconnect attempt. The last entry
// repeats once the sequence is exhausted.
var DefaultBackoff = []time.Duration{
	1 * time.Millisecond,
	500 * time.Millisecond,
	1 * time.Second,
	3 * time.Second,
	5 * time.Second,
	10 * time.Second,
	20 * time.Second,
}

// backoff walks a fixed delay sequence. The zero cursor is the first delay.
type backoff struct {
	steps  []time.Duration
	cursor int
}

func newBackoff(steps []time.Duration) *backoff {
	if len(steps) == 0 {
		steps = DefaultBackoff
	}
	return &backoff{steps: append([]time.Duration(nil), steps...)}
}

// next returns the delay for the upcoming attempt and advances the cursor.
func (b *backoff) next() time.Duration {
	i := b.cursor
	if i >= len(b.steps) {
		i = len(b.steps) - 1
	} else {
		b.cursor++
	}
	return b.steps[i]
}

func (b *backoff) reset() {
	b.cursor = 0
}
