// Package feed streams session log entries over WebSocket.
package feed

import (
	"encoding/json"
	"fmt"

	"github.com/hervehildenbrand/saferoute/pkg/sessionlog"
)

// Message types
const (
	TypeAnalysis = "analysis"
	TypeHello    = "hello"
)

// Message is the envelope of every feed message.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Hello is sent once when a client connects.
type Hello struct {
	SessionID string `json:"session_id"`
}

// EncodeEntry wraps an entry in an analysis message.
func EncodeEntry(e sessionlog.Entry) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: TypeAnalysis, Data: data})
}

func encodeHello(sessionID string) ([]byte, error) {
	data, err := json.Marshal(Hello{SessionID: sessionID})
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: TypeHello, Data: data})
}

// ParseMessage parses a feed message into an Entry.
// Returns nil if the message is not an analysis (e.g., hello).
func ParseMessage(data []byte) (*sessionlog.Entry, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal message: %w", err)
	}

	if msg.Type != TypeAnalysis {
		return nil, nil
	}

	var e sessionlog.Entry
	if err := json.Unmarshal(msg.Data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal entry: %w", err)
	}
	return &e, nil
}
