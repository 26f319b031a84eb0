// Package room handles room codes and the rendezvous identity they
// map to. A code is short enough to read out loud; the rendezvous id
// is what the transport layer actually listens on, derived so that any
// peer holding the code computes the same identity.
package room

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// CodeLength is the number of characters in a room code.
const CodeLength = 6

// codeAlphabet omits 0/O/1/I to survive being read aloud or typed
// from a phone screen.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// rendezvousNamespace keeps derived identities disjoint from any other
// sha256 use of the same code.
const rendezvousNamespace = "quizparty/rendezvous/v1"

// ErrBadCode reports a string that cannot be a room code.
var ErrBadCode = errors.New("room: invalid room code")

// NewCode generates a random room code from the unambiguous alphabet.
func NewCode() (string, error) {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("room: generate code: %w", err)
	}
	var b strings.Builder
	for _, c := range buf {
		b.WriteByte(codeAlphabet[int(c)%len(codeAlphabet)])
	}
	return b.String(), nil
}

// NormalizeCode upper-cases and validates user input.
func NormalizeCode(in string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(in))
	if len(s) != CodeLength {
		return "", fmt.Errorf("%w: want %d characters, got %d", ErrBadCode, CodeLength, len(s))
	}
	for _, r := range s {
		if !strings.ContainsRune(codeAlphabet, r) {
			return "", fmt.Errorf("%w: character %q", ErrBadCode, r)
		}
	}
	return s, nil
}

// RendezvousID derives the deterministic identity a host listens on
// and guests dial for the given room code. The code must already be
// normalized.
func RendezvousID(code string) string {
	sum := sha256.Sum256([]byte(rendezvousNamespace + ":" + code))
	return hex.EncodeToString(sum[:16])
}
