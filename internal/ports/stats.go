package ports

import "context"

// GameResult is the per-player outcome of one finished game.
type GameResult struct {
	UserID string
	Score  int
	Won    bool
}

// StatsPort defines the interface for recording lifetime player statistics.
type StatsPort interface {
	// RecordGameResults applies one finished game to every listed player's
	// lifetime totals. Bot seats are the caller's responsibility to filter.
	RecordGameResults(ctx context.Context, results []GameResult) error
}
