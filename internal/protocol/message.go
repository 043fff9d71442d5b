// Package protocol defines the message envelope used for all inter-agent traffic.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Message kinds. Every envelope carries exactly one of these.
const (
	KindTask       = "task"
	KindResult     = "result"
	KindEvaluation = "evaluation"
	KindFeedback   = "feedback"
)

// Message is the single envelope shape for all inter-agent communication.
// The payload is an opaque serialized value; the protocol layer dispatches
// on Kind alone and never assumes payload shape.
type Message struct {
	Kind    string          `json:"kind"`
	From    string          `json:"from"`
	To      string          `json:"to"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Error is a protocol-level failure: an envelope that cannot be decoded
// or carries an unknown kind. Fatal to the run.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("protocol error: %s", e.Reason)
}

// KnownKind reports whether k is a recognized message kind.
func KnownKind(k string) bool {
	switch k {
	case KindTask, KindResult, KindEvaluation, KindFeedback:
		return true
	}
	return false
}

// Validate checks the envelope fields the protocol layer itself owns.
func (m *Message) Validate() error {
	if strings.TrimSpace(m.Kind) == "" {
		return &Error{Reason: "missing kind"}
	}
	if !KnownKind(m.Kind) {
		return &Error{Reason: fmt.Sprintf("unknown kind %q", m.Kind)}
	}
	if strings.TrimSpace(m.To) == "" {
		return &Error{Reason: "missing recipient"}
	}
	return nil
}

// NewMessage builds an envelope with an encoded payload.
func NewMessage(kind, from, to string, payload any) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, &Error{Reason: fmt.Sprintf("encode payload: %v", err)}
	}
	return Message{Kind: kind, From: from, To: to, Payload: raw}, nil
}

// TextMessage builds an envelope whose payload is a single text field.
// This is the common shape for task, result, and feedback traffic.
func TextMessage(kind, from, to, text string) Message {
	raw, _ := json.Marshal(map[string]string{"text": text})
	return Message{Kind: kind, From: from, To: to, Payload: raw}
}

// Text extracts the text field from a payload, tolerating both the
// {"text": ...} shape and a bare JSON string.
func (m *Message) Text() string {
	if len(m.Payload) == 0 {
		return ""
	}
	var obj struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(m.Payload, &obj); err == nil && obj.Text != "" {
		return obj.Text
	}
	var s string
	if err := json.Unmarshal(m.Payload, &s); err == nil {
		return s
	}
	return string(m.Payload)
}

// Decode unmarshals the payload into v. Failure is a protocol error,
// not a business error.
func (m *Message) Decode(v any) error {
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return &Error{Reason: fmt.Sprintf("decode %s payload: %v", m.Kind, err)}
	}
	return nil
}
