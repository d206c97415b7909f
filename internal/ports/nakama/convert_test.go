package nakama

import (
	"encoding/json"
	"math/rand"
	"testing"

	"cardczar/internal/domain"
)

func TestSnapshotForUserRedactsOtherHands(t *testing.T) {
	gw := testGateway(t, defaultTestConfig())
	room, err := gw.registry.CreateWithID("room-1", domain.Config{MaxPlayers: 4, HandSize: 5, TargetScore: 2}, gw.pool, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("CreateWithID: %v", err)
	}
	for _, id := range []string{"p1", "p2", "p3"} {
		if _, err := room.Join(id); err != nil {
			t.Fatalf("join: %v", err)
		}
	}
	if _, err := room.Start("p1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	view := snapshotForUser(room.Snapshot(), gw.pool, "p2")
	if len(view.YourHand) != 5 {
		t.Fatalf("own hand = %d cards, want 5", len(view.YourHand))
	}
	for _, p := range view.Players {
		if p.UserID == "p3" && p.HandCount != 5 {
			t.Fatalf("p3 hand count = %d, want 5", p.HandCount)
		}
		if p.UserID == "p1" && !p.Owner {
			t.Fatal("owner flag missing on p1")
		}
	}
	if view.Round == nil || view.Round.Phase != domain.PhaseCollectingSubmissions {
		t.Fatalf("round view = %+v", view.Round)
	}
	if len(view.Round.Reveals) != 0 {
		t.Fatal("reveals visible before judging")
	}

	// The serialized view must not contain anyone else's card text.
	data, err := json.Marshal(view)
	if err != nil {
		t.Fatalf("marshal view: %v", err)
	}
	var decoded StateSnapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal view: %v", err)
	}
	if len(decoded.YourHand) != 5 {
		t.Fatalf("round-tripped hand = %d cards", len(decoded.YourHand))
	}
}

func TestSnapshotForUserShowsRevealsWhileJudging(t *testing.T) {
	gw := testGateway(t, defaultTestConfig())
	room, err := gw.registry.CreateWithID("room-1", domain.Config{MaxPlayers: 4, HandSize: 5, TargetScore: 2}, gw.pool, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("CreateWithID: %v", err)
	}
	for _, id := range []string{"p1", "p2", "p3"} {
		if _, err := room.Join(id); err != nil {
			t.Fatalf("join: %v", err)
		}
	}
	if _, err := room.Start("p1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, id := range []string{"p2", "p3"} {
		snap := room.Snapshot()
		for _, p := range snap.Players {
			if p.PlayerID == id {
				if _, err := room.Submit(id, p.Hand[:1]); err != nil {
					t.Fatalf("submit %s: %v", id, err)
				}
			}
		}
	}

	view := snapshotForUser(room.Snapshot(), gw.pool, "p1")
	if view.Round == nil || view.Round.Phase != domain.PhaseJudging {
		t.Fatalf("round view = %+v, want judging", view.Round)
	}
	if len(view.Round.Reveals) != 2 {
		t.Fatalf("reveals = %d, want 2", len(view.Round.Reveals))
	}
	submitterView := snapshotForUser(room.Snapshot(), gw.pool, "p2")
	if !submitterView.Round.YouSubmitted {
		t.Fatal("submitter view missing you_submitted")
	}
}

func TestErrorCodeTaxonomy(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Validation", domain.ErrCardNotInHand, 3},
		{"StateConflict", domain.ErrWrongPhase, 9},
		{"ResourceExhaustion", domain.ErrDeckExhausted, 8},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := errorCode(test.err); got != test.want {
				t.Fatalf("errorCode = %d, want %d", got, test.want)
			}
		})
	}
}
