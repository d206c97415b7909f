package domain

// ConnectionState tracks whether a player slot has a live connection behind it.
type ConnectionState string

const (
	// Active means the player is connected and counts toward submission quotas.
	Active ConnectionState = "active"
	// Disconnected means the slot is preserved (hand, score) but the player is
	// excluded from quota counting until they reconnect.
	Disconnected ConnectionState = "disconnected"
)

// Slot is per-room mutable state for one player. Slots are created on join
// and removed only on explicit leave; disconnects preserve them.
type Slot struct {
	PlayerID   string
	Hand       []CardID
	Score      int
	Connection ConnectionState
	JoinedAt   int // monotonic per-room ordering token, drives judge rotation
}

// DealUpTo tops up the hand to handSize cards from the given deck.
func (s *Slot) DealUpTo(handSize int, deck *Deck) error {
	missing := handSize - len(s.Hand)
	if missing <= 0 {
		return nil
	}
	ids, err := deck.Draw(missing)
	if err != nil {
		return err
	}
	s.Hand = append(s.Hand, ids...)
	return nil
}

// Holds reports whether the given card is currently in the hand.
func (s *Slot) Holds(id CardID) bool {
	for _, c := range s.Hand {
		if c == id {
			return true
		}
	}
	return false
}

// RemoveFromHand removes one card from the hand.
func (s *Slot) RemoveFromHand(id CardID) error {
	for i, c := range s.Hand {
		if c == id {
			s.Hand = append(s.Hand[:i], s.Hand[i+1:]...)
			return nil
		}
	}
	return ErrCardNotInHand
}

// AddScore increases the score. Scores never decrease within a room.
func (s *Slot) AddScore(n int) {
	if n < 0 {
		panic("domain: negative score delta")
	}
	s.Score += n
}
