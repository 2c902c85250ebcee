package cocodb

import "errors"

// Configuration errors, returned before any connection attempt.
var (
	ErrInvalidEndpoint   = errors.New("cocodb: invalid endpoint")
	ErrInvalidCredential = errors.New("cocodb: invalid credential")
	ErrSessionActive     = errors.New("cocodb: a session is already active")
	ErrInvalidFunction   = errors.New("cocodb: invalid function name")
	ErrInvalidArgument   = errors.New("cocodb: invalid argument")
)

// Call errors.
var (
	ErrNotInitialized   = errors.New("cocodb: session not initialized")
	ErrNotReady         = errors.New("cocodb: connection not ready, retry later")
	ErrConnectionClosed = errors.New("cocodb: connection closed")
	ErrBufferFull       = errors.New("cocodb: outbound buffer full")
	ErrSessionClosed    = errors.New("cocodb: session closed")
	ErrClosedBeforeOpen = errors.New("cocodb: session closed before a connection was established")
)

// Protocol anomalies. These are reported through Config.OnProtocolAnomaly and
// never returned to a caller.
var (
	ErrMalformedMessage = errors.New("cocodb: malformed server message")
	ErrMissingCallID    = errors.New("cocodb: server message has no id")
	ErrUnknownCallID    = errors.New("cocodb: server message for unknown id")
)
