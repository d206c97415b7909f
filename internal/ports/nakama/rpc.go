package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"
)

// RegisterRPCs registers Nakama RPC endpoints.
func (gw *Gateway) RegisterRPCs(initializer runtime.Initializer) error {
	rpcs := map[string]func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error){
		RpcQuickMatch:  gw.rpcQuickMatch,
		RpcCreateRoom:  gw.rpcCreateRoom,
		RpcListRooms:   gw.rpcListRooms,
		RpcRejoinToken: gw.rpcRejoinToken,
	}
	for id, fn := range rpcs {
		if err := initializer.RegisterRpc(id, fn); err != nil {
			return err
		}
	}
	return nil
}

// ListRoomsResponse is the payload returned by the list_rooms RPC.
type ListRoomsResponse struct {
	Rooms []RoomListing `json:"rooms"`
}

// RoomListing is one lobby-browser row.
type RoomListing struct {
	RoomID      string `json:"room_id"`
	Phase       string `json:"phase"`
	PlayerCount int    `json:"player_count"`
	MaxPlayers  int    `json:"max_players"`
	Joinable    bool   `json:"joinable"`
}

func (gw *Gateway) rpcListRooms(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	// Prune rooms whose matches died without a clean terminate.
	maxIdle := time.Duration(gw.cfg.IdleRetireSeconds) * time.Second
	for _, id := range gw.registry.RetireIdle(time.Now(), maxIdle) {
		logger.Info("rpcListRooms: retired idle room %s", id)
	}

	resp := ListRoomsResponse{Rooms: []RoomListing{}}
	for _, summary := range gw.registry.List() {
		resp.Rooms = append(resp.Rooms, RoomListing{
			RoomID:      summary.ID,
			Phase:       string(summary.State),
			PlayerCount: summary.PlayerCount,
			MaxPlayers:  summary.MaxPlayers,
			Joinable:    summary.Joinable,
		})
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return "", runtime.NewError("internal error", 13)
	}
	return string(b), nil
}
