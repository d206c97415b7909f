package domain

import (
	"encoding/json"
	"fmt"
	"os"
)

// CardID identifies a card within a pool. IDs are assigned sequentially at
// load time across both categories, so an ID names exactly one card.
type CardID int

// PromptCard is a fill-in-the-blank prompt. BlankCount is the number of
// response cards a submission must contain.
type PromptCard struct {
	ID         CardID `json:"id"`
	Text       string `json:"text"`
	BlankCount int    `json:"blank_count"`
}

// ResponseCard is a card players submit to fill a prompt's blanks.
type ResponseCard struct {
	ID   CardID `json:"id"`
	Text string `json:"text"`
}

// Pool is the process-wide card catalog. It is immutable after construction
// and safe for unsynchronized concurrent reads; rooms only circulate IDs.
type Pool struct {
	prompts   []PromptCard
	responses []ResponseCard
	byID      map[CardID]int // index into prompts or responses by category split
}

type packFile struct {
	Prompts []struct {
		Text string `json:"text"`
	} `json:"prompts"`
	Responses []struct {
		Text string `json:"text"`
	} `json:"responses"`
}

// LoadPool reads a card pack JSON file and builds the pool.
// The file layout is {"prompts":[{"text":...}],"responses":[{"text":...}]}.
func LoadPool(path string) (*Pool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read card pack: %w", err)
	}

	var pack packFile
	if err := json.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("failed to unmarshal card pack: %w", err)
	}

	prompts := make([]string, len(pack.Prompts))
	for i, p := range pack.Prompts {
		prompts[i] = p.Text
	}
	responses := make([]string, len(pack.Responses))
	for i, r := range pack.Responses {
		responses[i] = r.Text
	}
	return NewPool(prompts, responses)
}

// NewPool builds a pool from raw card texts. Blank counts are derived from
// the underscore runs in each prompt text; a prompt without an explicit blank
// still takes one response.
func NewPool(promptTexts, responseTexts []string) (*Pool, error) {
	if len(promptTexts) == 0 || len(responseTexts) == 0 {
		return nil, fmt.Errorf("%w: need at least one prompt and one response", ErrPoolTooSmall)
	}

	p := &Pool{
		prompts:   make([]PromptCard, 0, len(promptTexts)),
		responses: make([]ResponseCard, 0, len(responseTexts)),
		byID:      make(map[CardID]int, len(promptTexts)+len(responseTexts)),
	}

	next := CardID(0)
	for _, text := range promptTexts {
		card := PromptCard{ID: next, Text: text, BlankCount: countBlanks(text)}
		p.byID[next] = len(p.prompts)
		p.prompts = append(p.prompts, card)
		next++
	}
	for _, text := range responseTexts {
		card := ResponseCard{ID: next, Text: text}
		p.byID[next] = len(p.responses)
		p.responses = append(p.responses, card)
		next++
	}
	return p, nil
}

// countBlanks counts runs of underscores in a prompt text, minimum 1.
func countBlanks(text string) int {
	blanks := 0
	inRun := false
	for _, r := range text {
		if r == '_' {
			if !inRun {
				blanks++
				inRun = true
			}
			continue
		}
		inRun = false
	}
	if blanks == 0 {
		return 1
	}
	return blanks
}

// PromptCount returns the number of prompt cards in the pool.
func (p *Pool) PromptCount() int { return len(p.prompts) }

// ResponseCount returns the number of response cards in the pool.
func (p *Pool) ResponseCount() int { return len(p.responses) }

// PromptIDs returns a fresh slice of all prompt card IDs.
func (p *Pool) PromptIDs() []CardID {
	ids := make([]CardID, len(p.prompts))
	for i, c := range p.prompts {
		ids[i] = c.ID
	}
	return ids
}

// ResponseIDs returns a fresh slice of all response card IDs.
func (p *Pool) ResponseIDs() []CardID {
	ids := make([]CardID, len(p.responses))
	for i, c := range p.responses {
		ids[i] = c.ID
	}
	return ids
}

// Prompt looks up a prompt card by ID.
func (p *Pool) Prompt(id CardID) (PromptCard, bool) {
	idx, ok := p.byID[id]
	if !ok || int(id) >= len(p.prompts) {
		return PromptCard{}, false
	}
	return p.prompts[idx], true
}

// Response looks up a response card by ID.
func (p *Pool) Response(id CardID) (ResponseCard, bool) {
	idx, ok := p.byID[id]
	if !ok || int(id) < len(p.prompts) {
		return ResponseCard{}, false
	}
	return p.responses[idx], true
}
