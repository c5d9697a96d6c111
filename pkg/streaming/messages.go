// pkg/streaming/messages.go

// Package streaming defines the JSON envelopes exchanged with the browser
// viewer over the WebSocket.
package streaming

import (
	"encoding/json"
)

// Message type constants matching the streaming protocol.
const (
	// client -> server
	TypeCommand = "command"

	// server -> client
	TypeIntents = "intents"
	TypeState   = "state"
	TypeWarning = "warning"
	TypeError   = "error"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// CommandPayload is a viewer command, e.g. {"command":":POINT:ADD:","args":["1","2","3"]}.
type CommandPayload struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// WarningPayload is a user-facing message for the requesting client only.
type WarningPayload struct {
	Message string `json:"message"`
	For     string `json:"for,omitempty"` // the command that caused it
}

// NewEnvelope marshals payload into an envelope of the given type.
func NewEnvelope(typ string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: typ, Payload: data}, nil
}

// Decode unmarshals the payload into v.
func (e Envelope) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}
