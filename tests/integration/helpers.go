package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/heroiclabs/nakama-common/rtapi"
	"github.com/heroiclabs/nakama-go/v2"
)

const (
	ServerKey = "defaultkey"
	Host      = "127.0.0.1"
	Port      = 7350
)

type TestClient struct {
	Client  *nakama.Client
	Session *nakama.Session
	Socket  *nakama.Socket
	UserID  string
}

func NewTestClient(t *testing.T) *TestClient {
	client := nakama.NewClient(ServerKey, Host, Port, false)

	// Create unique ID
	deviceID := fmt.Sprintf("test_device_%d", time.Now().UnixNano())

	// Authenticate
	session, err := client.AuthenticateDevice(context.Background(), deviceID, true, "")
	if err != nil {
		t.Fatalf("Failed to authenticate: %v", err)
	}

	// Create Socket
	socket := client.NewSocket()
	if err := socket.Connect(context.Background(), session, true); err != nil {
		t.Fatalf("Failed to connect socket: %v", err)
	}

	return &TestClient{
		Client:  client,
		Session: session,
		Socket:  socket,
		UserID:  session.UserId,
	}
}

func (tc *TestClient) Close() {
	if tc.Socket != nil {
		tc.Socket.Close()
	}
}

// QuickMatch calls the 'quick_match' RPC and joins the returned match ID.
func (tc *TestClient) QuickMatch(t *testing.T) string {
	rpc, err := tc.Client.RpcFunc(context.Background(), tc.Session, "quick_match", "{}")
	if err != nil {
		t.Fatalf("RPC quick_match failed: %v", err)
	}

	var resp struct {
		MatchID string `json:"match_id"`
	}
	if err := json.Unmarshal([]byte(rpc.Payload), &resp); err != nil {
		t.Fatalf("Failed to decode quick_match response: %v", err)
	}
	if resp.MatchID == "" {
		t.Fatalf("RPC quick_match returned empty match ID")
	}

	// Join Match
	if _, err := tc.Socket.JoinMatch(context.Background(), nil, resp.MatchID, nil); err != nil {
		t.Fatalf("Failed to join match %s: %v", resp.MatchID, err)
	}

	return resp.MatchID
}

// SendJSON marshals a payload and sends it as match state.
func (tc *TestClient) SendJSON(t *testing.T, matchID string, opCode int64, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to marshal opcode %d payload: %v", opCode, err)
	}
	if _, err := tc.Socket.SendMatchState(context.Background(), matchID, opCode, data, nil); err != nil {
		t.Fatalf("Failed to send opcode %d: %v", opCode, err)
	}
}

// EventRecorder buffers every MatchData received on a socket. Server events
// arrive in bursts, so tests record first and assert afterwards instead of
// racing a handler swap against the socket.
type EventRecorder struct {
	mu     sync.Mutex
	events []*rtapi.MatchData
}

// Record installs the recorder on the client's socket. Call it before the
// action that produces the events you want to assert on.
func (tc *TestClient) Record() *EventRecorder {
	rec := &EventRecorder{}
	tc.Socket.OnMatchData = func(data *rtapi.MatchData) {
		rec.mu.Lock()
		rec.events = append(rec.events, data)
		rec.mu.Unlock()
	}
	return rec
}

// WaitFor returns the oldest buffered event with the given opcode, consuming
// it, or fails the test after the timeout.
func (r *EventRecorder) WaitFor(t *testing.T, opCode int64, timeout time.Duration) *rtapi.MatchData {
	deadline := time.Now().Add(timeout)
	for {
		r.mu.Lock()
		for i, e := range r.events {
			if e.OpCode == opCode {
				r.events = append(r.events[:i], r.events[i+1:]...)
				r.mu.Unlock()
				return e
			}
		}
		r.mu.Unlock()

		if time.Now().After(deadline) {
			t.Fatalf("Timeout waiting for OpCode %d", opCode)
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
}
