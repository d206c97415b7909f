package nakama

import (
	"context"
	"encoding/json"
	"fmt"

	"cardczar/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

const statsCollection = "player_stats"
const statsKey = "cardczar"

// playerStats is the stored lifetime record for one player.
type playerStats struct {
	GamesPlayed int `json:"games_played"`
	GamesWon    int `json:"games_won"`
	TotalPoints int `json:"total_points"`
}

// NakamaStatsAdapter implements ports.StatsPort on Nakama's storage engine.
type NakamaStatsAdapter struct {
	nk runtime.NakamaModule
}

// NewNakamaStatsAdapter creates a new stats adapter.
func NewNakamaStatsAdapter(nk runtime.NakamaModule) *NakamaStatsAdapter {
	return &NakamaStatsAdapter{nk: nk}
}

// RecordGameResults folds one finished game into each player's stored totals.
func (a *NakamaStatsAdapter) RecordGameResults(ctx context.Context, results []ports.GameResult) error {
	for _, result := range results {
		stats, version, err := a.read(ctx, result.UserID)
		if err != nil {
			return err
		}

		stats.GamesPlayed++
		stats.TotalPoints += result.Score
		if result.Won {
			stats.GamesWon++
		}

		data, err := json.Marshal(stats)
		if err != nil {
			return fmt.Errorf("failed to marshal stats for user %s: %w", result.UserID, err)
		}
		write := &runtime.StorageWrite{
			Collection:      statsCollection,
			Key:             statsKey,
			UserID:          result.UserID,
			Value:           string(data),
			Version:         version,
			PermissionRead:  2,
			PermissionWrite: 0,
		}
		if _, err := a.nk.StorageWrite(ctx, []*runtime.StorageWrite{write}); err != nil {
			return fmt.Errorf("failed to write stats for user %s: %w", result.UserID, err)
		}
	}
	return nil
}

func (a *NakamaStatsAdapter) read(ctx context.Context, userID string) (playerStats, string, error) {
	var stats playerStats
	reads := []*runtime.StorageRead{{
		Collection: statsCollection,
		Key:        statsKey,
		UserID:     userID,
	}}
	objects, err := a.nk.StorageRead(ctx, reads)
	if err != nil {
		return stats, "", fmt.Errorf("failed to read stats for user %s: %w", userID, err)
	}
	if len(objects) == 0 {
		return stats, "*", nil
	}
	if err := json.Unmarshal([]byte(objects[0].Value), &stats); err != nil {
		return stats, "", fmt.Errorf("failed to unmarshal stats for user %s: %w", userID, err)
	}
	return stats, objects[0].Version, nil
}

var _ ports.StatsPort = (*NakamaStatsAdapter)(nil)
