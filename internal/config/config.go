package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// GameConfig is the server-wide game configuration, loaded once at module init.
type GameConfig struct {
	// CardPackPath points at the JSON card pack the card pool is built from.
	CardPackPath string `json:"card_pack_path"`

	MaxPlayers  int `json:"max_players"`
	HandSize    int `json:"hand_size"`
	TargetScore int `json:"target_score"`

	// SubmissionPhaseSeconds is how long players have to submit before the
	// server force-skips them.
	SubmissionPhaseSeconds int `json:"submission_phase_seconds"`
	// JudgingPhaseSeconds is how long the judge has to pick before the server
	// reassigns the judge.
	JudgingPhaseSeconds int `json:"judging_phase_seconds"`
	// IdleRetireSeconds configures how many seconds an empty or finished room
	// may linger before the registry retires it.
	IdleRetireSeconds int `json:"idle_retire_seconds"`

	// BotFillDelaySeconds configures how many seconds a short lobby waits
	// before bots are added to reach the playable minimum. Zero disables bots.
	BotFillDelaySeconds int `json:"bot_fill_delay_seconds"`

	// MinPromptCards and MinResponseCards gate startup: a card pack smaller
	// than this cannot host a full room and the module refuses to load.
	MinPromptCards   int `json:"min_prompt_cards"`
	MinResponseCards int `json:"min_response_cards"`
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		var c GameConfig
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		c.applyDefaults()
		cfg = &c
	})
	return loadErr
}

// GetGameConfig returns the global game configuration, defaults if unloaded.
func GetGameConfig() *GameConfig {
	if cfg == nil {
		c := GameConfig{}
		c.applyDefaults()
		return &c
	}
	return cfg
}

func (c *GameConfig) applyDefaults() {
	if c.MaxPlayers <= 0 {
		c.MaxPlayers = 8
	}
	if c.HandSize <= 0 {
		c.HandSize = 7
	}
	if c.TargetScore <= 0 {
		c.TargetScore = 5
	}
	if c.SubmissionPhaseSeconds <= 0 {
		c.SubmissionPhaseSeconds = 300
	}
	if c.JudgingPhaseSeconds <= 0 {
		c.JudgingPhaseSeconds = 300
	}
	if c.IdleRetireSeconds <= 0 {
		c.IdleRetireSeconds = 600
	}
	if c.MinPromptCards <= 0 {
		c.MinPromptCards = 10
	}
	if c.MinResponseCards <= 0 {
		c.MinResponseCards = c.MaxPlayers * c.HandSize
	}
}
