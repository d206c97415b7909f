package nakama

import (
	"cardczar/internal/app"
	"cardczar/internal/domain"
)

// MatchLabel is the JSON match label used for listing queries.
type MatchLabel struct {
	Open    int    `json:"open"`
	Game    string `json:"game"`
	Phase   string `json:"phase"`
	Players int    `json:"players"`
}

// StateSnapshot is the per-player view of a room sent on join and rejoin.
// Other players' hands are reduced to counts and submission authors are never
// included; only the caller's own hand is resolved to cards.
type StateSnapshot struct {
	RoomID   string              `json:"room_id"`
	State    domain.RoomState    `json:"state"`
	OwnerID  string              `json:"owner_id"`
	WinnerID string              `json:"winner_id,omitempty"`
	Reason   domain.FinishReason `json:"finish_reason,omitempty"`
	Players  []PlayerView        `json:"players"`
	Round    *RoundView          `json:"round,omitempty"`
	YourHand []app.Card          `json:"your_hand,omitempty"`
}

// PlayerView is the public slice of one player slot.
type PlayerView struct {
	UserID    string `json:"user_id"`
	Score     int    `json:"score"`
	Connected bool   `json:"connected"`
	HandCount int    `json:"hand_count"`
	Owner     bool   `json:"owner"`
}

// RoundView is the public slice of the current round.
type RoundView struct {
	Number         int          `json:"number"`
	Phase          domain.Phase `json:"phase"`
	JudgeID        string       `json:"judge_id"`
	Prompt         app.Prompt   `json:"prompt"`
	SubmittedCount int          `json:"submitted_count"`
	Reveals        [][]app.Card `json:"reveals,omitempty"`
	YouSubmitted   bool         `json:"you_submitted"`
	YouSkipped     bool         `json:"you_skipped"`
}

// snapshotForUser redacts a full snapshot down to what one player may see.
func snapshotForUser(snap domain.Snapshot, pool *domain.Pool, userID string) StateSnapshot {
	out := StateSnapshot{
		RoomID:   snap.RoomID,
		State:    snap.State,
		OwnerID:  snap.OwnerID,
		WinnerID: snap.WinnerID,
		Reason:   snap.FinishReason,
	}
	for _, p := range snap.Players {
		out.Players = append(out.Players, PlayerView{
			UserID:    p.PlayerID,
			Score:     p.Score,
			Connected: p.Connection == domain.Active,
			HandCount: len(p.Hand),
			Owner:     p.PlayerID == snap.OwnerID,
		})
		if p.PlayerID == userID {
			out.YourHand = resolveCards(pool, p.Hand)
		}
	}
	if snap.Round != nil && snap.State == domain.RoomInRound {
		out.Round = roundForUser(snap.Round, pool, userID)
	}
	return out
}

func roundForUser(round *domain.RoundSnapshot, pool *domain.Pool, userID string) *RoundView {
	view := &RoundView{
		Number:         round.Number,
		Phase:          round.Phase,
		JudgeID:        round.JudgeID,
		SubmittedCount: len(round.Submissions),
	}
	view.Prompt = app.Prompt{ID: round.Prompt.ID, Text: round.Prompt.Text, Blanks: round.Prompt.BlankCount}
	if _, ok := round.Submissions[userID]; ok {
		view.YouSubmitted = true
	}
	for _, id := range round.Skipped {
		if id == userID {
			view.YouSkipped = true
		}
	}
	// Reveals are only visible once judging has fixed the anonymized order.
	if round.Phase == domain.PhaseJudging {
		for _, author := range round.RevealedOrder {
			view.Reveals = append(view.Reveals, resolveCards(pool, round.Submissions[author]))
		}
	}
	return view
}

func resolveCards(pool *domain.Pool, ids []domain.CardID) []app.Card {
	out := make([]app.Card, 0, len(ids))
	for _, id := range ids {
		card, ok := pool.Response(id)
		if !ok {
			continue
		}
		out = append(out, app.Card{ID: card.ID, Text: card.Text})
	}
	return out
}

// eventOpCode maps app events to wire op codes. Unknown kinds return 0.
func eventOpCode(kind app.EventKind) int64 {
	switch kind {
	case app.EventPlayerJoined:
		return OpPlayerJoined
	case app.EventPlayerLeft:
		return OpPlayerLeft
	case app.EventPlayerDisconnected:
		return OpPlayerDisconnected
	case app.EventPlayerReconnected:
		return OpPlayerReconnected
	case app.EventPlayerSkipped:
		return OpPlayerSkipped
	case app.EventRoundStarted:
		return OpRoundStarted
	case app.EventHandDealt:
		return OpHandDealt
	case app.EventSubmissionReceived:
		return OpSubmissionReceived
	case app.EventJudgingStarted:
		return OpJudgingStarted
	case app.EventRoundWon:
		return OpRoundWon
	case app.EventRoundAborted:
		return OpRoundAborted
	case app.EventJudgeReassigned:
		return OpJudgeReassigned
	case app.EventGameEnded:
		return OpGameEnded
	}
	return 0
}

// errorCode maps the engine's error classes onto gRPC status codes the Nakama
// client surfaces.
func errorCode(err error) int {
	switch {
	case domain.IsValidation(err):
		return 3 // INVALID_ARGUMENT
	case domain.IsStateConflict(err):
		return 9 // FAILED_PRECONDITION
	case domain.IsResourceExhaustion(err):
		return 8 // RESOURCE_EXHAUSTED
	}
	return 13 // INTERNAL
}
