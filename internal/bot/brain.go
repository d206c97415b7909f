package bot

import (
	"math/rand"

	"cardczar/internal/domain"
)

// RandomBrain plays uniformly at random. Good enough to keep a short table
// moving; nobody expects a bot to be funny.
type RandomBrain struct {
	rng *rand.Rand
}

// NewRandomBrain builds a brain over the provided source.
func NewRandomBrain(rng *rand.Rand) *RandomBrain {
	return &RandomBrain{rng: rng}
}

func (b *RandomBrain) ChooseSubmission(prompt domain.PromptCard, hand []domain.CardID) []domain.CardID {
	if prompt.BlankCount > len(hand) {
		return nil
	}
	picks := b.rng.Perm(len(hand))[:prompt.BlankCount]
	cards := make([]domain.CardID, 0, prompt.BlankCount)
	for _, i := range picks {
		cards = append(cards, hand[i])
	}
	return cards
}

func (b *RandomBrain) ChoosePick(revealCount int) int {
	if revealCount <= 0 {
		return 0
	}
	return b.rng.Intn(revealCount)
}
