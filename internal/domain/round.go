package domain

import (
	"fmt"
	"math/rand"
)

// Phase is the lifecycle stage of one round.
type Phase string

const (
	// PhaseAwaitingStart is the pre-round state before any round has begun.
	PhaseAwaitingStart Phase = "awaiting_start"
	// PhaseDealingPrompt covers judge selection, prompt draw, and hand top-up.
	PhaseDealingPrompt Phase = "dealing_prompt"
	// PhaseCollectingSubmissions waits for every required player to submit.
	PhaseCollectingSubmissions Phase = "collecting_submissions"
	// PhaseJudging waits for the judge to pick among anonymized submissions.
	PhaseJudging Phase = "judging"
	// PhaseRoundComplete is the terminal state of a round before the next
	// begins or the room finishes.
	PhaseRoundComplete Phase = "round_complete"
)

var phaseTransitions = map[Phase][]Phase{
	PhaseAwaitingStart:         {PhaseDealingPrompt},
	PhaseDealingPrompt:         {PhaseCollectingSubmissions},
	PhaseCollectingSubmissions: {PhaseJudging, PhaseRoundComplete},
	PhaseJudging:               {PhaseRoundComplete},
	PhaseRoundComplete:         {PhaseDealingPrompt},
}

// CanTransitionTo reports whether moving from p to target is legal.
func (p Phase) CanTransitionTo(target Phase) bool {
	for _, allowed := range phaseTransitions[p] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Round drives one room's round lifecycle: prompt, judge, submissions,
// anonymized reveal, and the winning pick.
type Round struct {
	Phase   Phase
	Number  int
	Prompt  PromptCard
	JudgeID string

	// Submissions maps playerID to the chosen response cards, in blank order.
	// The judge never appears here. Submitted cards live in this holding area
	// until the round completes; only then are they discarded.
	Submissions map[string][]CardID

	// Skipped marks required players excused from the quota this round, by
	// force-skip or by disconnecting mid-collection.
	Skipped map[string]bool

	// RevealedOrder is a random permutation of submitting player IDs, computed
	// once when judging begins. Picks are addressed by index into this order
	// so the judge cannot infer identity by position.
	RevealedOrder []string
}

func newRound(number int, judgeID string, prompt PromptCard) *Round {
	return &Round{
		Phase:       PhaseDealingPrompt,
		Number:      number,
		Prompt:      prompt,
		JudgeID:     judgeID,
		Submissions: make(map[string][]CardID),
		Skipped:     make(map[string]bool),
	}
}

// advance moves to the target phase, panicking on an illegal transition.
// Callers validate operation preconditions; an illegal transition here is a
// programmer error, not a recoverable condition.
func (r *Round) advance(target Phase) {
	if !r.Phase.CanTransitionTo(target) {
		panic(fmt.Sprintf("domain: illegal phase transition %s -> %s", r.Phase, target))
	}
	r.Phase = target
}

// submit records a validated submission. The caller has already removed the
// cards from the player's hand.
func (r *Round) submit(playerID string, cards []CardID) {
	r.Submissions[playerID] = cards
}

// hasSubmitted reports whether the player already submitted this round.
func (r *Round) hasSubmitted(playerID string) bool {
	_, ok := r.Submissions[playerID]
	return ok
}

// beginJudging fixes the anonymized reveal order and enters judging.
func (r *Round) beginJudging(rng *rand.Rand) {
	order := make([]string, 0, len(r.Submissions))
	for playerID := range r.Submissions {
		order = append(order, playerID)
	}
	// Map iteration order is already unspecified, but not uniformly random;
	// shuffle for a real permutation.
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	r.RevealedOrder = order
	r.advance(PhaseJudging)
}

// submittedCards flattens every held submission, prompt-order preserved
// within each set. Used when returning cards to the discard pile.
func (r *Round) submittedCards() []CardID {
	var out []CardID
	for _, cards := range r.Submissions {
		out = append(out, cards...)
	}
	return out
}
