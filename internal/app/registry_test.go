package app

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"cardczar/internal/domain"
)

func TestRegistryCreateGetRetire(t *testing.T) {
	reg := NewRegistry()
	cfg := domain.Config{MaxPlayers: 3, HandSize: 2, TargetScore: 3}
	pool := testPool(t, 5, 10)

	room, err := reg.Create(cfg, pool, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if room.ID() == "" {
		t.Fatal("created room has empty id")
	}
	if reg.Len() != 1 {
		t.Fatalf("len = %d, want 1", reg.Len())
	}

	got, err := reg.Get(room.ID())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != room {
		t.Fatal("Get returned a different room")
	}

	reg.Retire(room.ID())
	if _, err := reg.Get(room.ID()); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("err = %v, want ErrRoomNotFound", err)
	}
}

func TestRegistryRejectsDuplicateIDs(t *testing.T) {
	reg := NewRegistry()
	cfg := domain.Config{MaxPlayers: 3, HandSize: 2, TargetScore: 3}
	pool := testPool(t, 5, 10)

	if _, err := reg.CreateWithID("match-1", cfg, pool, rand.New(rand.NewSource(1))); err != nil {
		t.Fatalf("CreateWithID: %v", err)
	}
	if _, err := reg.CreateWithID("match-1", cfg, pool, rand.New(rand.NewSource(2))); err == nil {
		t.Fatal("expected error for duplicate id")
	}
}

func TestRegistryListSummarizesJoinability(t *testing.T) {
	reg := NewRegistry()
	cfg := domain.Config{MaxPlayers: 3, HandSize: 2, TargetScore: 3}
	pool := testPool(t, 5, 10)

	open, err := reg.CreateWithID("open", cfg, pool, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("CreateWithID: %v", err)
	}
	if _, err := open.Join("p1"); err != nil {
		t.Fatalf("join: %v", err)
	}

	playing, err := reg.CreateWithID("playing", cfg, pool, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatalf("CreateWithID: %v", err)
	}
	for _, id := range []string{"p1", "p2", "p3"} {
		if _, err := playing.Join(id); err != nil {
			t.Fatalf("join: %v", err)
		}
	}
	if _, err := playing.Start("p1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	summaries := reg.List()
	if len(summaries) != 2 {
		t.Fatalf("summaries = %d, want 2", len(summaries))
	}
	byID := map[string]RoomSummary{}
	for _, s := range summaries {
		byID[s.ID] = s
	}
	if s := byID["open"]; !s.Joinable || s.PlayerCount != 1 || s.State != domain.RoomLobby {
		t.Fatalf("open summary = %+v", s)
	}
	if s := byID["playing"]; s.Joinable || s.State != domain.RoomInRound {
		t.Fatalf("playing summary = %+v", s)
	}
}

func TestRegistryRetireIdle(t *testing.T) {
	reg := NewRegistry()
	cfg := domain.Config{MaxPlayers: 3, HandSize: 2, TargetScore: 3}
	pool := testPool(t, 5, 10)

	stale, err := reg.CreateWithID("stale", cfg, pool, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("CreateWithID: %v", err)
	}
	fresh, err := reg.CreateWithID("fresh", cfg, pool, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatalf("CreateWithID: %v", err)
	}

	base := time.Now()
	stale.now = func() time.Time { return base.Add(-time.Hour) }
	if _, err := stale.Join("p1"); err != nil {
		t.Fatalf("join: %v", err)
	}
	fresh.now = func() time.Time { return base }
	if _, err := fresh.Join("p1"); err != nil {
		t.Fatalf("join: %v", err)
	}

	retired := reg.RetireIdle(base, 30*time.Minute)
	if len(retired) != 1 || retired[0] != "stale" {
		t.Fatalf("retired = %v, want [stale]", retired)
	}
	if _, err := reg.Get("fresh"); err != nil {
		t.Fatalf("fresh room was retired: %v", err)
	}
}

func TestRegistryRetireIdleDoesNotBlockOnBusyRoom(t *testing.T) {
	reg := NewRegistry()
	cfg := domain.Config{MaxPlayers: 3, HandSize: 2, TargetScore: 3}
	pool := testPool(t, 5, 10)

	busy, err := reg.CreateWithID("busy", cfg, pool, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("CreateWithID: %v", err)
	}

	// Simulate a room stuck in a long operation.
	busy.mu.Lock()

	sweepDone := make(chan struct{})
	go func() {
		reg.RetireIdle(time.Now(), 30*time.Minute)
		close(sweepDone)
	}()

	// Let the sweep reach the busy room's activity read before creating.
	time.Sleep(50 * time.Millisecond)

	created := make(chan error, 1)
	go func() {
		_, err := reg.CreateWithID("other", cfg, pool, rand.New(rand.NewSource(2)))
		created <- err
	}()

	select {
	case err := <-created:
		if err != nil {
			t.Fatalf("CreateWithID: %v", err)
		}
	case <-time.After(2 * time.Second):
		busy.mu.Unlock()
		t.Fatal("registry blocked while the idle sweep waited on a busy room")
	}

	busy.mu.Unlock()
	<-sweepDone
	if reg.Len() != 2 {
		t.Fatalf("len = %d, want 2 live rooms", reg.Len())
	}
}
