package protocol

import (
	"encoding/json"
	"fmt"
)

// Encode frames a payload into an envelope and serializes it.
func Encode(kind Kind, payload any) ([]byte, error) {
	if kind == "" {
		return nil, fmt.Errorf("protocol: encode with empty kind")
	}
	if payload == nil {
		return nil, fmt.Errorf("protocol: encode %s with nil payload", kind)
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("protocol: marshal %s payload: %w", kind, err)
	}
	return json.Marshal(Envelope{Kind: kind, Payload: pb})
}

// DecodeEnvelope parses the outer frame without touching the payload.
func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, fmt.Errorf("protocol: decode empty frame")
	}
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return Envelope{}, fmt.Errorf("protocol: decode envelope: %w", err)
	}
	if e.Kind == "" {
		return Envelope{}, fmt.Errorf("protocol: envelope without kind")
	}
	return e, nil
}

// DecodePayload parses an envelope's payload into a concrete message.
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.Payload) == 0 {
		return out, fmt.Errorf("protocol: empty payload for %s", env.Kind)
	}
	if err := json.Unmarshal(env.Payload, &out); err != nil {
		return out, fmt.Errorf("protocol: decode %s payload: %w", env.Kind, err)
	}
	return out, nil
}
