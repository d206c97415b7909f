package nakama

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"

	"cardczar/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

func rejoinCtx(userID string) context.Context {
	return context.WithValue(context.Background(), runtime.RUNTIME_CTX_USER_ID, userID)
}

func TestRpcRejoinTokenRoundTrip(t *testing.T) {
	gw := testGateway(t, defaultTestConfig())
	room, err := gw.registry.CreateWithID("room-1", domain.Config{MaxPlayers: 4, HandSize: 5, TargetScore: 2}, gw.pool, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("CreateWithID: %v", err)
	}
	if _, err := room.Join("user-1"); err != nil {
		t.Fatalf("join: %v", err)
	}

	payload, _ := json.Marshal(RejoinTokenRequest{RoomID: "room-1"})
	out, err := gw.rpcRejoinToken(rejoinCtx("user-1"), noopLogger{}, nil, nil, string(payload))
	if err != nil {
		t.Fatalf("rpcRejoinToken: %v", err)
	}

	var resp RejoinTokenResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	userID, roomID, err := gw.rejoin.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if userID != "user-1" || roomID != "room-1" {
		t.Fatalf("token binds %s/%s, want user-1/room-1", userID, roomID)
	}
}

func TestRpcRejoinTokenRejectsNonMembers(t *testing.T) {
	gw := testGateway(t, defaultTestConfig())
	if _, err := gw.registry.CreateWithID("room-1", domain.Config{MaxPlayers: 4, HandSize: 5, TargetScore: 2}, gw.pool, rand.New(rand.NewSource(1))); err != nil {
		t.Fatalf("CreateWithID: %v", err)
	}

	payload, _ := json.Marshal(RejoinTokenRequest{RoomID: "room-1"})
	if _, err := gw.rpcRejoinToken(rejoinCtx("stranger"), noopLogger{}, nil, nil, string(payload)); err == nil {
		t.Fatal("expected error for non-member")
	}
}

func TestRpcRejoinTokenRejectsUnknownRoom(t *testing.T) {
	gw := testGateway(t, defaultTestConfig())
	payload, _ := json.Marshal(RejoinTokenRequest{RoomID: "missing"})
	if _, err := gw.rpcRejoinToken(rejoinCtx("user-1"), noopLogger{}, nil, nil, string(payload)); err == nil {
		t.Fatal("expected error for unknown room")
	}
}

func TestRpcRejoinTokenRequiresAuth(t *testing.T) {
	gw := testGateway(t, defaultTestConfig())
	payload, _ := json.Marshal(RejoinTokenRequest{RoomID: "room-1"})
	if _, err := gw.rpcRejoinToken(context.Background(), noopLogger{}, nil, nil, string(payload)); err == nil {
		t.Fatal("expected error for missing user id")
	}
}

func TestRpcListRooms(t *testing.T) {
	gw := testGateway(t, defaultTestConfig())
	room, err := gw.registry.CreateWithID("room-1", domain.Config{MaxPlayers: 4, HandSize: 5, TargetScore: 2}, gw.pool, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("CreateWithID: %v", err)
	}
	if _, err := room.Join("user-1"); err != nil {
		t.Fatalf("join: %v", err)
	}

	out, err := gw.rpcListRooms(context.Background(), noopLogger{}, nil, nil, "")
	if err != nil {
		t.Fatalf("rpcListRooms: %v", err)
	}
	var resp ListRoomsResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Rooms) != 1 {
		t.Fatalf("rooms = %d, want 1", len(resp.Rooms))
	}
	listing := resp.Rooms[0]
	if listing.RoomID != "room-1" || !listing.Joinable || listing.PlayerCount != 1 || listing.MaxPlayers != 4 {
		t.Fatalf("listing = %+v", listing)
	}
}
