package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/heroiclabs/nakama-common/runtime"
)

// QuickMatchResponse is the payload returned to clients requesting an open room.
type QuickMatchResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

// CreateRoomRequest carries optional per-room configuration overrides.
type CreateRoomRequest struct {
	MaxPlayers  int `json:"max_players,omitempty"`
	HandSize    int `json:"hand_size,omitempty"`
	TargetScore int `json:"target_score,omitempty"`
}

func (gw *Gateway) rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	// Find any open lobby of our game with room for one more.
	query := "+label.game:cardczar +label.phase:lobby +label.open:>=1"

	limit := 10
	authoritative := true
	minSize := 0
	maxSize := gw.cfg.MaxPlayers

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, query)
	if err != nil {
		logger.Error("rpcQuickMatch: match list error: %v", err)
		return "", runtime.NewError("match listing failed", 13)
	}

	if len(matches) > 0 {
		return marshalQuickMatch(QuickMatchResponse{MatchID: matches[0].MatchId, IsNew: false})
	}

	matchID, err := nk.MatchCreate(ctx, MatchNameCardCzar, map[string]interface{}{})
	if err != nil {
		logger.Error("rpcQuickMatch: match create error: %v", err)
		return "", runtime.NewError("match create failed", 13)
	}
	return marshalQuickMatch(QuickMatchResponse{MatchID: matchID, IsNew: true})
}

func (gw *Gateway) rpcCreateRoom(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var req CreateRoomRequest
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", runtime.NewError("invalid payload", 3)
		}
	}

	params := map[string]interface{}{}
	if req.MaxPlayers > 0 {
		params["max_players"] = float64(req.MaxPlayers)
	}
	if req.HandSize > 0 {
		params["hand_size"] = float64(req.HandSize)
	}
	if req.TargetScore > 0 {
		params["target_score"] = float64(req.TargetScore)
	}

	matchID, err := nk.MatchCreate(ctx, MatchNameCardCzar, params)
	if err != nil {
		logger.Error("rpcCreateRoom: match create error: %v", err)
		return "", runtime.NewError("match create failed", 13)
	}
	return marshalQuickMatch(QuickMatchResponse{MatchID: matchID, IsNew: true})
}

func marshalQuickMatch(resp QuickMatchResponse) (string, error) {
	b, err := json.Marshal(resp)
	if err != nil {
		return "", runtime.NewError("internal error", 13)
	}
	return string(b), nil
}
