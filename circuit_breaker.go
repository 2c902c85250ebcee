package cocodb

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// NewCircuitBreakerConfig returns a function that creates a circuit breaker
// guarding connect attempts to an endpoint. This is a helper for common use
// cases: the breaker opens once at least 3 attempts were made and 60% of
// them failed to reach the open state.
func NewCircuitBreakerConfig(maxRequests uint32, interval, timeout time.Duration) func(string) *gobreaker.TwoStepCircuitBreaker[struct{}] {
	return func(endpoint string) *gobreaker.TwoStepCircuitBreaker[struct{}] {
		settings := gobreaker.Settings{
			Name:        endpoint,
			MaxRequests: maxRequests,
			Interval:    interval,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
		}
		return gobreaker.NewTwoStepCircuitBreaker[struct{}](settings)
	}
}
