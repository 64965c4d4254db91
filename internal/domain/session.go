package domain

import "context"

// SessionID identifies one conversation (the Telegram chat id)
type SessionID int64

// SessionState is the conversation state machine position
type SessionState string

const (
	StateIdle                 SessionState = "idle"
	StateResolving            SessionState = "resolving"
	StateAwaitingFormatChoice SessionState = "awaiting_format_choice"
)

// SessionStore holds at most one pending metadata record per session.
// Implementations must be safe for concurrent use across sessions.
type SessionStore interface {
	// Begin marks the session as resolving and drops any pending metadata
	Begin(sid SessionID)

	// Put stores approved metadata and moves the session to AwaitingFormatChoice
	Put(sid SessionID, meta VideoMetadata)

	// Take atomically removes and returns pending metadata
	Take(sid SessionID) (VideoMetadata, bool)

	// State returns the current state, StateIdle when absent
	State(sid SessionID) SessionState

	// Clear returns the session to Idle
	Clear(sid SessionID)
}

// ChoiceOption is one button offered to the user
type ChoiceOption struct {
	Label string
	Token string
}

// Choice tokens carried back by format-selection callbacks
const (
	ChoiceVideo  = "download_mp4"
	ChoiceAudio  = "download_mp3"
	ChoiceCancel = "cancel"
)

// Channel is the conversation transport consumed by the flow controller.
// It tracks "the most recent message in this session" on its own.
type Channel interface {
	SendText(ctx context.Context, sid SessionID, text string) error
	PresentChoice(ctx context.Context, sid SessionID, text string, options [][]ChoiceOption) error
	EditLastMessage(ctx context.Context, sid SessionID, text string) error
	SendMediaFile(ctx context.Context, sid SessionID, kind MediaKind, path, caption string) error
}
