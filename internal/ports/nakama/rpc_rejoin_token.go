package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"cardczar/internal/app"

	"github.com/heroiclabs/nakama-common/runtime"
)

// RejoinTokenRequest asks for a token to get back into a specific room.
type RejoinTokenRequest struct {
	RoomID string `json:"room_id"`
}

// RejoinTokenResponse carries the signed token to present in join metadata.
type RejoinTokenResponse struct {
	Token string `json:"token"`
}

// rpcRejoinToken mints a rejoin token for the calling user, provided they
// actually hold a slot in the room.
func (gw *Gateway) rpcRejoinToken(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("authentication required", 16)
	}

	var req RejoinTokenRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil || req.RoomID == "" {
		return "", runtime.NewError("invalid payload", 3)
	}

	room, err := gw.registry.Get(req.RoomID)
	if errors.Is(err, app.ErrRoomNotFound) {
		return "", runtime.NewError("room not found", 5)
	}
	if err != nil {
		return "", runtime.NewError("internal error", 13)
	}

	member := false
	for _, p := range room.Snapshot().Players {
		if p.PlayerID == userID {
			member = true
			break
		}
	}
	if !member {
		return "", runtime.NewError("not a member of this room", 7)
	}

	token, err := gw.rejoin.GenerateToken(userID, req.RoomID)
	if err != nil {
		logger.Error("rpcRejoinToken: failed to generate token: %v", err)
		return "", runtime.NewError("internal error", 13)
	}

	b, err := json.Marshal(RejoinTokenResponse{Token: token})
	if err != nil {
		return "", runtime.NewError("internal error", 13)
	}
	return string(b), nil
}
