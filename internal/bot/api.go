package bot

import "cardczar/internal/domain"

// Brain is the interface all bot strategies implement.
type Brain interface {
	// ChooseSubmission picks blank-count cards from the hand.
	ChooseSubmission(prompt domain.PromptCard, hand []domain.CardID) []domain.CardID
	// ChoosePick selects a reveal index while judging.
	ChoosePick(revealCount int) int
}
