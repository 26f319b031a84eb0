// Package protocol defines the wire messages exchanged between the
// host and its guests: a tagged-union envelope keyed by a string
// discriminator, with JSON payloads. The payload structs are wire
// mirrors of the engine's result types so the engine never needs
// serialization concerns of its own.
package protocol

import (
	"encoding/json"

	"github.com/oskarw/quizparty/internal/engine"
)

// Kind discriminates envelope payloads.
type Kind string

// Guest → host.
const (
	KindJoinRequest  Kind = "JOIN_REQUEST"
	KindSubmitAnswer Kind = "SUBMIT_ANSWER"
	KindNextQuestion Kind = "NEXT_QUESTION"
	KindStealTarget  Kind = "STEAL_TARGET"
	KindReportTarget Kind = "REPORT_TARGET"
	KindSwapTarget   Kind = "SWAP_TARGET"
	KindGambleChoice Kind = "GAMBLE_CHOICE"
	KindLeaveGame    Kind = "LEAVE_GAME"
)

// Host → guest.
const (
	KindJoinAccepted     Kind = "JOIN_ACCEPTED"
	KindJoinRejected     Kind = "JOIN_REJECTED"
	KindPlayerJoined     Kind = "PLAYER_JOINED"
	KindPlayerLeft       Kind = "PLAYER_LEFT"
	KindGameStarted      Kind = "GAME_STARTED"
	KindStateUpdate      Kind = "STATE_UPDATE"
	KindAnswerResult     Kind = "ANSWER_RESULT"
	KindMoveResult       Kind = "MOVE_RESULT"
	KindStealPrompt      Kind = "STEAL_PROMPT"
	KindReportPrompt     Kind = "REPORT_PROMPT"
	KindSwapPrompt       Kind = "SWAP_PROMPT"
	KindGamblePrompt     Kind = "GAMBLE_PROMPT"
	KindStealResult      Kind = "STEAL_RESULT"
	KindReportResult     Kind = "REPORT_RESULT"
	KindSwapResult       Kind = "SWAP_RESULT"
	KindGambleResult     Kind = "GAMBLE_RESULT"
	KindSharedTileEvent  Kind = "SHARED_TILE_EVENT"
	KindGameReset        Kind = "GAME_RESET"
	KindHostDisconnected Kind = "HOST_DISCONNECTED"
)

// Envelope is the outer frame of every message.
type Envelope struct {
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// TargetKind returns the guest→host resolution message kind for a
// targeted interaction.
func TargetKind(k engine.InteractionKind) (Kind, bool) {
	switch k {
	case engine.InteractionSteal:
		return KindStealTarget, true
	case engine.InteractionReport:
		return KindReportTarget, true
	case engine.InteractionSwap:
		return KindSwapTarget, true
	case engine.InteractionGamble:
		return KindGambleChoice, true
	}
	return "", false
}

// PromptKind returns the host broadcast kind announcing a pending
// interaction of the given kind.
func PromptKind(k engine.InteractionKind) (Kind, bool) {
	switch k {
	case engine.InteractionSteal:
		return KindStealPrompt, true
	case engine.InteractionReport:
		return KindReportPrompt, true
	case engine.InteractionSwap:
		return KindSwapPrompt, true
	case engine.InteractionGamble:
		return KindGamblePrompt, true
	}
	return "", false
}

// ResultKind returns the host broadcast kind carrying a resolved
// interaction of the given kind.
func ResultKind(k engine.InteractionKind) (Kind, bool) {
	switch k {
	case engine.InteractionSteal:
		return KindStealResult, true
	case engine.InteractionReport:
		return KindReportResult, true
	case engine.InteractionSwap:
		return KindSwapResult, true
	case engine.InteractionGamble:
		return KindGambleResult, true
	}
	return "", false
}

// InteractionFor maps a resolution or prompt message kind back to the
// engine interaction it concerns.
func InteractionFor(k Kind) (engine.InteractionKind, bool) {
	switch k {
	case KindStealTarget, KindStealPrompt, KindStealResult:
		return engine.InteractionSteal, true
	case KindReportTarget, KindReportPrompt, KindReportResult:
		return engine.InteractionReport, true
	case KindSwapTarget, KindSwapPrompt, KindSwapResult:
		return engine.InteractionSwap, true
	case KindGambleChoice, KindGamblePrompt, KindGambleResult:
		return engine.InteractionGamble, true
	}
	return 0, false
}
