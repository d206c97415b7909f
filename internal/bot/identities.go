package bot

import (
	"math/rand"
	"strings"
)

// botIDPrefix namespaces bot user IDs so they can never collide with Nakama
// account IDs, which are UUIDs.
const botIDPrefix = "bot-"

// Identity is a bot profile: the user ID it occupies a slot under and the
// display name shown to players.
type Identity struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

var identities = []Identity{
	{UserID: botIDPrefix + "ada", DisplayName: "Ada"},
	{UserID: botIDPrefix + "brie", DisplayName: "Brie"},
	{UserID: botIDPrefix + "coco", DisplayName: "Coco"},
	{UserID: botIDPrefix + "dot", DisplayName: "Dot"},
	{UserID: botIDPrefix + "fitz", DisplayName: "Fitz"},
	{UserID: botIDPrefix + "gus", DisplayName: "Gus"},
}

// IsBot reports whether a user ID belongs to a bot.
func IsBot(userID string) bool {
	return strings.HasPrefix(userID, botIDPrefix)
}

// Identities returns the available bot profiles.
func Identities() []Identity {
	return append([]Identity(nil), identities...)
}

// NewAgents builds up to n agents whose IDs are not already taken, each with
// its own derived rng stream.
func NewAgents(n int, taken map[string]bool, rng *rand.Rand) []*Agent {
	var agents []*Agent
	for _, id := range identities {
		if len(agents) >= n {
			break
		}
		if taken[id.UserID] {
			continue
		}
		agents = append(agents, &Agent{
			ID:       id.UserID,
			Name:     id.DisplayName,
			Strategy: NewRandomBrain(rand.New(rand.NewSource(rng.Int63()))),
		})
	}
	return agents
}
