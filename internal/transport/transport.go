// Package transport connects the engine to its peers. The host owns
// the single authoritative engine and is the sole broadcaster; guests
// hold one outbound connection each and never mutate local state until
// the host's matching broadcast arrives.
package transport

import (
	"context"
)

// Conn is one peer connection. The websocket implementation lives in
// ws.go; tests substitute in-memory fakes.
type Conn interface {
	Send(ctx context.Context, data []byte) error
	Close(reason string) error
}
