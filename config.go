package cocodb

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pior/cocodb/internal/coarsetime"
	"github.com/pior/cocodb/socket"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// DefaultHibernateInterval is how often an open session checks for idleness.
const DefaultHibernateInterval = 8 * time.Second

// socketPath is where the cocodb service accepts WebSocket clients.
const socketPath = "/ws"

// Config holds configuration for a session.
type Config struct {
	// Endpoint is the service URL, ws:// or wss://.
	// When it has no path, the service's /ws route is used.
	// Required.
	Endpoint string

	// Credential is sent as "Authorization: Basic <Credential>".
	// Required.
	Credential string

	// MaxBuffered bounds the calls held while hibernating.
	// Zero means DefaultMaxBuffered.
	MaxBuffered int

	// HibernateInterval is the idle check period.
	// Zero means DefaultHibernateInterval, negative disables hibernation.
	HibernateInterval time.Duration

	// Backoff is the reconnect wait sequence; its last entry repeats.
	// If empty, DefaultBackoff is used.
	Backoff []time.Duration

	// Dial opens the underlying socket.
	// If nil, socket.DialWebSocket is used.
	Dial socket.DialFunc

	// NewCircuitBreaker creates a circuit breaker guarding connect attempts.
	// Called once when the session is created.
	// If nil, no circuit breaker is used.
	NewCircuitBreaker func(endpoint string) *gobreaker.TwoStepCircuitBreaker[struct{}]

	// Logger receives lifecycle and anomaly logs.
	// If nil, a stderr logger configured from COCODB_LOG_LEVEL is used.
	Logger *zerolog.Logger

	// OnProtocolAnomaly is called from the session loop for every server
	// message that cannot be matched to a call. It must not block.
	OnProtocolAnomaly func(err error)

	// for testing purposes only
	clock clock
}

// validate checks the fields that must be fixed before any connection attempt.
func (c Config) validate() error {
	endpoint := strings.TrimSpace(c.Endpoint)
	if endpoint == "" {
		return fmt.Errorf("%w: endpoint is empty", ErrInvalidEndpoint)
	}
	if !strings.HasPrefix(endpoint, "ws://") && !strings.HasPrefix(endpoint, "wss://") {
		return fmt.Errorf("%w: %q must start with ws:// or wss://", ErrInvalidEndpoint, c.Endpoint)
	}
	if strings.TrimSpace(c.Credential) == "" {
		return fmt.Errorf("%w: credential is empty", ErrInvalidCredential)
	}
	return nil
}

// socketURL resolves the URL actually dialed.
func (c Config) socketURL() (string, error) {
	u, err := url.Parse(strings.TrimSpace(c.Endpoint))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: %q has no host", ErrInvalidEndpoint, c.Endpoint)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = socketPath
	}
	return u.String(), nil
}

func (c Config) header() http.Header {
	h := make(http.Header)
	h.Set("Authorization", "Basic "+strings.TrimSpace(c.Credential))
	return h
}

// clock abstracts the timers the session loop waits on.
type clock interface {
	Now() time.Time
	After(d time.Duration) (<-chan time.Time, func() bool)
	Ticker(d time.Duration) (<-chan time.Time, func())
}

type realClock struct{}

// Now feeds diagnostic timestamps only, so coarse time is enough.
func (realClock) Now() time.Time {
	return coarsetime.Now()
}

func (realClock) After(d time.Duration) (<-chan time.Time, func() bool) {
	t := time.NewTimer(d)
	return t.C, t.Stop
}

func (realClock) Ticker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}
