package bot

import (
	"cardczar/internal/domain"
)

// Agent is an autonomous bot seat in a room.
type Agent struct {
	ID       string
	Name     string
	Strategy Brain
}

// Submission asks the agent for its cards for the current prompt, reading its
// hand from the snapshot.
func (a *Agent) Submission(snap domain.Snapshot) []domain.CardID {
	if snap.Round == nil {
		return nil
	}
	for _, p := range snap.Players {
		if p.PlayerID == a.ID {
			return a.Strategy.ChooseSubmission(snap.Round.Prompt, p.Hand)
		}
	}
	return nil
}

// Pick asks the agent for its judge choice.
func (a *Agent) Pick(snap domain.Snapshot) int {
	if snap.Round == nil {
		return 0
	}
	return a.Strategy.ChoosePick(len(snap.Round.RevealedOrder))
}
