package domain

import "math/rand"

// Deck is a per-room draw pile plus discard pile over one card category.
// Every card ID handed out by Draw stays accounted for: it comes back through
// Discard, or sits in a player's hand or an in-flight submission.
type Deck struct {
	draw    []CardID
	discard []CardID
	rng     *rand.Rand
}

// NewDeck builds a deck whose draw pile is the given IDs in random order.
func NewDeck(ids []CardID, rng *rand.Rand) *Deck {
	draw := make([]CardID, len(ids))
	copy(draw, ids)
	rng.Shuffle(len(draw), func(i, j int) { draw[i], draw[j] = draw[j], draw[i] })
	return &Deck{draw: draw, rng: rng}
}

// Draw removes and returns n IDs from the front of the draw pile, reshuffling
// the discard pile into the draw pile if it runs dry mid-draw. It fails with
// ErrDeckExhausted, mutating nothing, when fewer than n cards exist outside
// active hands and submissions.
func (d *Deck) Draw(n int) ([]CardID, error) {
	if n <= 0 {
		return nil, nil
	}
	if n > len(d.draw)+len(d.discard) {
		return nil, ErrDeckExhausted
	}

	out := make([]CardID, 0, n)
	for len(out) < n {
		if len(d.draw) == 0 {
			d.refill()
		}
		out = append(out, d.draw[0])
		d.draw = d.draw[1:]
	}
	return out, nil
}

// DrawOne draws a single card.
func (d *Deck) DrawOne() (CardID, error) {
	ids, err := d.Draw(1)
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// Discard moves IDs into the discard pile. The caller guarantees each ID was
// previously drawn from this deck and is not already discarded.
func (d *Deck) Discard(ids ...CardID) {
	d.discard = append(d.discard, ids...)
}

// refill shuffles the discard pile into the draw pile. Reappearance fairness
// is best-effort only: the shuffle is the sole guarantee, so a just-discarded
// card may be drawn again soon after.
func (d *Deck) refill() {
	d.rng.Shuffle(len(d.discard), func(i, j int) { d.discard[i], d.discard[j] = d.discard[j], d.discard[i] })
	d.draw = append(d.draw, d.discard...)
	d.discard = nil
}

// Remaining returns how many cards are drawable, counting the discard pile.
func (d *Deck) Remaining() int { return len(d.draw) + len(d.discard) }

// Contents returns copies of the draw and discard piles, draw-pile order
// preserved. Used for snapshots and conservation checks.
func (d *Deck) Contents() (draw, discard []CardID) {
	draw = append([]CardID(nil), d.draw...)
	discard = append([]CardID(nil), d.discard...)
	return draw, discard
}
