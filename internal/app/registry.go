package app

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"cardczar/internal/domain"
)

// ErrRoomNotFound means the registry has no live room under that ID.
var ErrRoomNotFound = errors.New("room not found")

// Registry tracks every live room. Lookups take a read lock; room operations
// themselves are serialized by each room's own mutex, so two rooms never
// contend with each other.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// Create builds a room under a fresh ID and registers it.
func (g *Registry) Create(cfg domain.Config, pool *domain.Pool, rng *rand.Rand) (*Room, error) {
	return g.CreateWithID(uuid.NewString(), cfg, pool, rng)
}

// CreateWithID registers a room under a caller-chosen ID, typically the
// Nakama match ID so RPC lookups and match handlers agree on the key.
func (g *Registry) CreateWithID(id string, cfg domain.Config, pool *domain.Pool, rng *rand.Rand) (*Room, error) {
	room, err := NewRoom(id, cfg, pool, rng)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.rooms[id]; exists {
		return nil, errors.New("room id already registered")
	}
	g.rooms[id] = room
	return room, nil
}

// Get returns the live room for an ID.
func (g *Registry) Get(id string) (*Room, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	room, ok := g.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// Retire drops a room from the registry. The room itself stays usable by
// anyone still holding a reference.
func (g *Registry) Retire(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.rooms, id)
}

// Len returns the number of live rooms.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

// RoomSummary is a registry listing entry for lobby browsers.
type RoomSummary struct {
	ID          string           `json:"id"`
	State       domain.RoomState `json:"state"`
	PlayerCount int              `json:"player_count"`
	MaxPlayers  int              `json:"max_players"`
	Joinable    bool             `json:"joinable"`
}

// List summarizes every live room.
func (g *Registry) List() []RoomSummary {
	g.mu.RLock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		rooms = append(rooms, room)
	}
	g.mu.RUnlock()

	// Snapshots are taken outside the registry lock so a busy room cannot
	// stall listings of the others.
	out := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		snap := room.Snapshot()
		out = append(out, RoomSummary{
			ID:          snap.RoomID,
			State:       snap.State,
			PlayerCount: len(snap.Players),
			MaxPlayers:  snap.Config.MaxPlayers,
			Joinable:    snap.State == domain.RoomLobby && len(snap.Players) < snap.Config.MaxPlayers,
		})
	}
	return out
}

// RetireIdle drops every room with no activity for at least maxIdle and
// returns the retired IDs. Room activity is read outside the registry lock,
// same as List, so a busy room cannot stall creation.
func (g *Registry) RetireIdle(now time.Time, maxIdle time.Duration) []string {
	g.mu.RLock()
	rooms := make(map[string]*Room, len(g.rooms))
	for id, room := range g.rooms {
		rooms[id] = room
	}
	g.mu.RUnlock()

	var stale []string
	for id, room := range rooms {
		if now.Sub(room.LastActivity()) >= maxIdle {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	var retired []string
	for _, id := range stale {
		if _, ok := g.rooms[id]; ok {
			delete(g.rooms, id)
			retired = append(retired, id)
		}
	}
	return retired
}
