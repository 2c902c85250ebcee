package cocodb

import (
	"encoding/json"
	"fmt"
)

// Request is one remote invocation. Args is encoded as the envelope's
// "request" field and may be nil.
type Request struct {
	Fn   Function
	Args any
}

// outbound is the wire envelope: {"fn":..., "id":..., "request":{...}}.
type outbound struct {
	Fn      Function        `json:"fn"`
	ID      string          `json:"id"`
	Request json.RawMessage `json:"request,omitempty"`
}

// inbound is the server reply: {"id":..., "response":...}.
type inbound struct {
	ID       json.RawMessage `json:"id"`
	Response json.RawMessage `json:"response"`
}

// encodeArgs validates req and renders its arguments once, off the session loop.
func encodeArgs(req Request) (json.RawMessage, error) {
	if !req.Fn.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFunction, req.Fn)
	}
	if req.Args == nil {
		return nil, nil
	}
	raw, err := json.Marshal(req.Args)
	if err != nil {
		return nil, fmt.Errorf("%w: encode %s request: %v", ErrInvalidArgument, req.Fn, err)
	}
	return raw, nil
}

func encodeEnvelope(fn Function, id string, args json.RawMessage) ([]byte, error) {
	return json.Marshal(outbound{Fn: fn, ID: id, Request: args})
}

// decodeReply extracts the correlation id and payload of a server message.
func decodeReply(data []byte) (string, json.RawMessage, error) {
	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if len(msg.ID) == 0 || string(msg.ID) == "null" {
		return "", nil, ErrMissingCallID
	}
	var id string
	if err := json.Unmarshal(msg.ID, &id); err != nil {
		return "", nil, fmt.Errorf("%w: id is %s", ErrMissingCallID, msg.ID)
	}
	return id, msg.Response, nil
}
