package domain

import "testing"

func TestPhaseTransitionTable(t *testing.T) {
	tests := []struct {
		name string
		from Phase
		to   Phase
		want bool
	}{
		{name: "start to dealing", from: PhaseAwaitingStart, to: PhaseDealingPrompt, want: true},
		{name: "dealing to collecting", from: PhaseDealingPrompt, to: PhaseCollectingSubmissions, want: true},
		{name: "collecting to judging", from: PhaseCollectingSubmissions, to: PhaseJudging, want: true},
		{name: "collecting aborts to complete", from: PhaseCollectingSubmissions, to: PhaseRoundComplete, want: true},
		{name: "judging to complete", from: PhaseJudging, to: PhaseRoundComplete, want: true},
		{name: "complete loops to dealing", from: PhaseRoundComplete, to: PhaseDealingPrompt, want: true},
		{name: "no judging before collecting", from: PhaseDealingPrompt, to: PhaseJudging, want: false},
		{name: "no skipping straight to complete", from: PhaseDealingPrompt, to: PhaseRoundComplete, want: false},
		{name: "no rewind", from: PhaseJudging, to: PhaseCollectingSubmissions, want: false},
		{name: "no restart from complete", from: PhaseRoundComplete, to: PhaseAwaitingStart, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Fatalf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestAdvancePanicsOnIllegalTransition(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on illegal transition")
		}
	}()
	r := newRound(1, "judge", PromptCard{ID: 0, BlankCount: 1})
	r.advance(PhaseJudging)
}
