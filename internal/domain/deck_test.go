package domain

import (
	"errors"
	"math/rand"
	"testing"
)

func testIDs(n int) []CardID {
	ids := make([]CardID, n)
	for i := range ids {
		ids[i] = CardID(i)
	}
	return ids
}

func TestDeckDrawConserves(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	deck := NewDeck(testIDs(10), rng)

	drawn, err := deck.Draw(4)
	if err != nil {
		t.Fatalf("draw error: %v", err)
	}
	if len(drawn) != 4 {
		t.Fatalf("drew %d cards, want 4", len(drawn))
	}
	if deck.Remaining() != 6 {
		t.Fatalf("remaining = %d, want 6", deck.Remaining())
	}

	deck.Discard(drawn...)
	if deck.Remaining() != 10 {
		t.Fatalf("remaining after discard = %d, want 10", deck.Remaining())
	}

	draw, discard := deck.Contents()
	seen := make(map[CardID]bool)
	for _, id := range append(draw, discard...) {
		if seen[id] {
			t.Fatalf("card %d appears twice", id)
		}
		seen[id] = true
	}
	if len(seen) != 10 {
		t.Fatalf("deck holds %d unique cards, want 10", len(seen))
	}
}

func TestDeckRefillsMidDraw(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	deck := NewDeck(testIDs(5), rng)

	first, err := deck.Draw(4)
	if err != nil {
		t.Fatalf("draw error: %v", err)
	}
	deck.Discard(first...)

	// 1 left in the draw pile, 4 in discard; a draw of 3 must cross the refill.
	second, err := deck.Draw(3)
	if err != nil {
		t.Fatalf("draw across refill: %v", err)
	}
	if len(second) != 3 {
		t.Fatalf("drew %d, want 3", len(second))
	}
	seen := make(map[CardID]bool)
	for _, id := range second {
		if seen[id] {
			t.Fatalf("refill produced duplicate card %d", id)
		}
		seen[id] = true
	}
	if deck.Remaining() != 2 {
		t.Fatalf("remaining = %d, want 2", deck.Remaining())
	}
}

func TestDeckExhaustionMutatesNothing(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	deck := NewDeck(testIDs(3), rng)

	if _, err := deck.Draw(2); err != nil {
		t.Fatalf("setup draw: %v", err)
	}

	// 1 drawable card left anywhere; asking for 2 must fail without drawing.
	if _, err := deck.Draw(2); !errors.Is(err, ErrDeckExhausted) {
		t.Fatalf("err = %v, want ErrDeckExhausted", err)
	}
	if deck.Remaining() != 1 {
		t.Fatalf("failed draw mutated deck: remaining = %d, want 1", deck.Remaining())
	}

	if _, err := deck.DrawOne(); err != nil {
		t.Fatalf("exact draw after failed over-draw: %v", err)
	}
}

func TestDeckDrawZero(t *testing.T) {
	deck := NewDeck(testIDs(2), rand.New(rand.NewSource(1)))
	ids, err := deck.Draw(0)
	if err != nil || ids != nil {
		t.Fatalf("Draw(0) = %v, %v, want nil, nil", ids, err)
	}
}
