// Package auth issues and verifies rejoin tokens: short signed claims
// binding a player identity to a room, so a guest that reconnects can
// prove it owns an existing player instead of joining as a new one.
package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrBadToken reports a token that failed verification or carries
// claims for a different room.
var ErrBadToken = errors.New("auth: invalid rejoin token")

// rejoinClaims binds a player to a room code.
type rejoinClaims struct {
	RoomCode string    `json:"roomCode"`
	PlayerID uuid.UUID `json:"playerId"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies rejoin tokens with a per-process HMAC key.
// Tokens do not survive a host restart, matching the rule that no live
// game state is persisted.
type Tokens struct {
	key      []byte
	lifetime time.Duration
}

// NewTokens generates a fresh signing key. lifetime bounds how long a
// disconnected guest can still rejoin.
func NewTokens(lifetime time.Duration) (*Tokens, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("auth: generate key: %w", err)
	}
	return &Tokens{key: key, lifetime: lifetime}, nil
}

// Issue signs a rejoin token for the player in the given room.
func (t *Tokens) Issue(roomCode string, playerID uuid.UUID) (string, error) {
	now := time.Now()
	claims := rejoinClaims{
		RoomCode: roomCode,
		PlayerID: playerID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.lifetime)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
}

// Verify checks the token and returns the player it belongs to. The
// room code must match the one the token was issued for.
func (t *Tokens) Verify(roomCode, tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &rejoinClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.key, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrBadToken, err)
	}
	claims, ok := token.Claims.(*rejoinClaims)
	if !ok || !token.Valid {
		return uuid.Nil, ErrBadToken
	}
	if claims.RoomCode != roomCode || claims.PlayerID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: claims do not match room", ErrBadToken)
	}
	return claims.PlayerID, nil
}
