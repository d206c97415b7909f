package app

import "cardczar/internal/domain"

// EventKind identifies emitted game events for Nakama dispatch.
type EventKind string

const (
	EventPlayerJoined       EventKind = "player_joined"
	EventPlayerLeft         EventKind = "player_left"
	EventPlayerDisconnected EventKind = "player_disconnected"
	EventPlayerReconnected  EventKind = "player_reconnected"
	EventPlayerSkipped      EventKind = "player_skipped"
	EventRoundStarted       EventKind = "round_started"
	EventHandDealt          EventKind = "hand_dealt"
	EventSubmissionReceived EventKind = "submission_received"
	EventJudgingStarted     EventKind = "judging_started"
	EventRoundWon           EventKind = "round_won"
	EventRoundAborted       EventKind = "round_aborted"
	EventJudgeReassigned    EventKind = "judge_reassigned"
	EventGameEnded          EventKind = "game_ended"
)

// Event is a game event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

// Card is a response card resolved to its text for client payloads.
type Card struct {
	ID   domain.CardID `json:"id"`
	Text string        `json:"text"`
}

// Prompt is a prompt card resolved for client payloads.
type Prompt struct {
	ID     domain.CardID `json:"id"`
	Text   string        `json:"text"`
	Blanks int           `json:"blanks"`
}

type PlayerJoinedPayload struct {
	UserID      string `json:"user_id"`
	Owner       bool   `json:"owner"`
	PlayerCount int    `json:"player_count"`
}

type PlayerLeftPayload struct {
	UserID     string `json:"user_id"`
	NewOwnerID string `json:"new_owner_id,omitempty"`
}

type PlayerConnectionPayload struct {
	UserID string `json:"user_id"`
}

type PlayerSkippedPayload struct {
	UserID string `json:"user_id"`
}

type RoundStartedPayload struct {
	Number  int    `json:"number"`
	JudgeID string `json:"judge_id"`
	Prompt  Prompt `json:"prompt"`
}

// HandDealtPayload is always targeted at its owner; hands are never broadcast.
type HandDealtPayload struct {
	UserID string `json:"user_id"`
	Hand   []Card `json:"hand"`
}

// SubmissionReceivedPayload announces progress without revealing cards.
type SubmissionReceivedPayload struct {
	UserID    string `json:"user_id"`
	Submitted int    `json:"submitted"`
	Required  int    `json:"required"`
}

// JudgingStartedPayload carries the shuffled reveals with no author identities.
type JudgingStartedPayload struct {
	Prompt  Prompt   `json:"prompt"`
	Reveals [][]Card `json:"reveals"`
}

type RoundWonPayload struct {
	WinnerID     string `json:"winner_id"`
	WinnerScore  int    `json:"winner_score"`
	WinningCards []Card `json:"winning_cards"`
}

type RoundAbortedPayload struct {
	Number int `json:"number"`
}

type JudgeReassignedPayload struct {
	NewJudgeID string `json:"new_judge_id"`
}

type GameEndedPayload struct {
	WinnerID string              `json:"winner_id,omitempty"`
	Reason   domain.FinishReason `json:"reason"`
	Scores   map[string]int      `json:"scores"`
}
