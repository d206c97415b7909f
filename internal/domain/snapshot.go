package domain

// Snapshot is a read-only deep copy of a room's full state, taken under the
// owning room's lock. It captures every field an external collaborator needs
// to render responses or persist for exact resumption; the engine itself
// never formats output.
type Snapshot struct {
	RoomID       string
	Config       Config
	State        RoomState
	OwnerID      string
	WinnerID     string
	FinishReason FinishReason
	RoundNumber  int

	// Players are in join order.
	Players []PlayerSnapshot

	PromptDeck   DeckSnapshot
	ResponseDeck DeckSnapshot

	// Round is nil until the first round starts.
	Round *RoundSnapshot
}

// PlayerSnapshot mirrors one player slot.
type PlayerSnapshot struct {
	PlayerID   string
	Hand       []CardID
	Score      int
	Connection ConnectionState
	JoinedAt   int
}

// DeckSnapshot mirrors one deck's piles, draw order preserved.
type DeckSnapshot struct {
	DrawPile    []CardID
	DiscardPile []CardID
}

// RoundSnapshot mirrors the round controller.
type RoundSnapshot struct {
	Phase   Phase
	Number  int
	Prompt  PromptCard
	JudgeID string

	// Submissions keyed by player ID. Transport layers must not expose the
	// identity mapping to the judge; reveal by RevealedOrder index only.
	Submissions map[string][]CardID
	Skipped     []string

	// RevealedOrder is empty until judging begins.
	RevealedOrder []string
}

// Snapshot copies the room's current state.
func (r *Room) Snapshot() Snapshot {
	snap := Snapshot{
		RoomID:       r.ID,
		Config:       r.Config,
		State:        r.State,
		OwnerID:      r.OwnerID,
		WinnerID:     r.WinnerID,
		FinishReason: r.FinishReason,
		RoundNumber:  r.RoundNumber,
	}

	for _, id := range r.joinOrder {
		slot := r.slots[id]
		snap.Players = append(snap.Players, PlayerSnapshot{
			PlayerID:   slot.PlayerID,
			Hand:       append([]CardID(nil), slot.Hand...),
			Score:      slot.Score,
			Connection: slot.Connection,
			JoinedAt:   slot.JoinedAt,
		})
	}

	snap.PromptDeck.DrawPile, snap.PromptDeck.DiscardPile = r.promptDeck.Contents()
	snap.ResponseDeck.DrawPile, snap.ResponseDeck.DiscardPile = r.responseDeck.Contents()

	if r.round != nil {
		rs := &RoundSnapshot{
			Phase:         r.round.Phase,
			Number:        r.round.Number,
			Prompt:        r.round.Prompt,
			JudgeID:       r.round.JudgeID,
			Submissions:   make(map[string][]CardID, len(r.round.Submissions)),
			RevealedOrder: append([]string(nil), r.round.RevealedOrder...),
		}
		for id, cards := range r.round.Submissions {
			rs.Submissions[id] = append([]CardID(nil), cards...)
		}
		for id := range r.round.Skipped {
			rs.Skipped = append(rs.Skipped, id)
		}
		snap.Round = rs
	}
	return snap
}
