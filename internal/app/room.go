package app

import (
	"math/rand"
	"sync"
	"time"

	"cardczar/internal/domain"
)

// Room wraps one game instance behind a mutex so concurrent gateway calls are
// applied one at a time, and turns outcomes into dispatchable events.
type Room struct {
	mu   sync.Mutex
	game *domain.Room
	pool *domain.Pool

	now            func() time.Time
	lastActivity   time.Time
	phaseChangedAt time.Time
	lastPhaseKey   phaseKey
}

// phaseKey identifies a distinct timeout window: a new round, a new phase, or
// a room state change each reset the clock.
type phaseKey struct {
	state domain.RoomState
	phase domain.Phase
	num   int
}

// NewRoom builds a lobby-state room ready to accept joins.
func NewRoom(id string, cfg domain.Config, pool *domain.Pool, rng *rand.Rand) (*Room, error) {
	game, err := domain.NewRoom(id, cfg, pool, rng)
	if err != nil {
		return nil, err
	}
	r := &Room{game: game, pool: pool, now: time.Now}
	r.lastActivity = r.now()
	r.phaseChangedAt = r.lastActivity
	return r, nil
}

// ID returns the room identifier.
func (r *Room) ID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.game.ID
}

// Snapshot returns a consistent deep copy of the room state.
func (r *Room) Snapshot() domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.game.Snapshot()
}

// LastActivity returns when the room last applied a successful operation.
func (r *Room) LastActivity() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActivity
}

// ExpiredPhase reports whether the current round phase has outlived its
// allowance. The caller owns timeout policy; this only measures.
func (r *Room) ExpiredPhase(now time.Time, submission, judging time.Duration) (domain.Phase, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	round := r.game.Round()
	if r.game.State != domain.RoomInRound || round == nil {
		return "", false
	}
	switch round.Phase {
	case domain.PhaseCollectingSubmissions:
		return round.Phase, now.Sub(r.phaseChangedAt) >= submission
	case domain.PhaseJudging:
		return round.Phase, now.Sub(r.phaseChangedAt) >= judging
	}
	return round.Phase, false
}

// Join adds a player to the lobby.
func (r *Room) Join(userID string) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.game.Join(userID); err != nil {
		return nil, err
	}
	r.touch()
	return []Event{{
		Kind: EventPlayerJoined,
		Payload: PlayerJoinedPayload{
			UserID:      userID,
			Owner:       r.game.OwnerID == userID,
			PlayerCount: r.game.PlayerCount(),
		},
	}}, nil
}

// Start begins the game and the first round.
func (r *Room) Start(actorID string) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.game.StartGame(actorID); err != nil {
		return nil, err
	}
	r.touch()
	return r.roundStartEvents(), nil
}

// Submit records a player's cards for the current prompt.
func (r *Room) Submit(userID string, cards []domain.CardID) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out, err := r.game.Submit(userID, cards)
	if err != nil {
		return nil, err
	}
	r.touch()

	round := r.game.Round()
	events := []Event{{
		Kind: EventSubmissionReceived,
		Payload: SubmissionReceivedPayload{
			UserID:    userID,
			Submitted: len(round.Submissions),
			Required:  r.requiredSubmissions(),
		},
	}}
	if out.AdvancedToJudging {
		events = append(events, r.judgingStartedEvent())
	}
	return events, nil
}

// Pick applies the judge's choice and rolls the game forward.
func (r *Room) Pick(judgeID string, revealIndex int) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out, err := r.game.PickWinner(judgeID, revealIndex)
	if err != nil {
		return nil, err
	}
	r.touch()

	events := []Event{{
		Kind: EventRoundWon,
		Payload: RoundWonPayload{
			WinnerID:     out.WinnerID,
			WinnerScore:  out.WinnerScore,
			WinningCards: r.cards(out.WinningCards),
		},
	}}
	return append(events, r.roundStartEvents()...), nil
}

// ForceSkip excuses a player from the current submission quota.
func (r *Room) ForceSkip(userID string) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	aborted := r.game.RoundNumber
	out, err := r.game.ForceSkip(userID)
	if err != nil {
		return nil, err
	}
	r.touch()

	events := []Event{{Kind: EventPlayerSkipped, Payload: PlayerSkippedPayload{UserID: userID}}}
	return append(events, r.skipFollowups(skipResult(out), aborted)...), nil
}

// ExpireSubmissions force-skips every player still owing a submission. Used by
// the gateway when the submission window closes.
func (r *Room) ExpireSubmissions() ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireCollecting(); err != nil {
		return nil, err
	}

	aborted := r.game.RoundNumber
	var events []Event
	for _, id := range r.pendingSubmitters() {
		out, err := r.game.ForceSkip(id)
		if err != nil {
			return events, err
		}
		events = append(events, Event{Kind: EventPlayerSkipped, Payload: PlayerSkippedPayload{UserID: id}})
		if out.AdvancedToJudging || out.RoundAborted || out.Finished {
			events = append(events, r.skipFollowups(skipResult(out), aborted)...)
			break
		}
	}
	r.touch()
	return events, nil
}

// ReassignJudge aborts the round and rotates the judge. Used when the judge
// disconnects or the judging window closes.
func (r *Room) ReassignJudge() ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	aborted := r.game.RoundNumber
	out, err := r.game.ReassignJudge()
	if err != nil {
		return nil, err
	}
	r.touch()

	events := []Event{{Kind: EventRoundAborted, Payload: RoundAbortedPayload{Number: aborted}}}
	if !out.Finished {
		events = append(events, Event{Kind: EventJudgeReassigned, Payload: JudgeReassignedPayload{NewJudgeID: out.NewJudgeID}})
	}
	return append(events, r.roundStartEvents()...), nil
}

// Disconnect marks a player as away without destroying their slot.
func (r *Room) Disconnect(userID string) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	aborted := r.game.RoundNumber
	wasJudge := r.game.Round() != nil && r.game.Round().JudgeID == userID
	out, err := r.game.Disconnect(userID)
	if err != nil {
		return nil, err
	}
	r.touch()

	events := []Event{{Kind: EventPlayerDisconnected, Payload: PlayerConnectionPayload{UserID: userID}}}
	events = append(events, r.skipFollowups(skipResult(out), aborted)...)

	// A judge going away cannot be excused from a quota; rotate instead.
	if wasJudge && r.game.State == domain.RoomInRound {
		re, err := r.game.ReassignJudge()
		if err == nil {
			events = append(events, Event{Kind: EventRoundAborted, Payload: RoundAbortedPayload{Number: aborted}})
			if !re.Finished {
				events = append(events, Event{Kind: EventJudgeReassigned, Payload: JudgeReassignedPayload{NewJudgeID: re.NewJudgeID}})
			}
			events = append(events, r.roundStartEvents()...)
		}
	}
	return events, nil
}

// Reconnect restores an away player and resyncs their hand privately.
func (r *Room) Reconnect(userID string) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.game.Reconnect(userID); err != nil {
		return nil, err
	}
	r.touch()

	events := []Event{{Kind: EventPlayerReconnected, Payload: PlayerConnectionPayload{UserID: userID}}}
	if slot, ok := r.game.Slot(userID); ok && r.game.State == domain.RoomInRound {
		events = append(events, r.handDealtEvent(userID, slot.Hand))
	}
	return events, nil
}

// Leave removes a player's slot entirely and reconciles the round.
func (r *Room) Leave(userID string) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	aborted := r.game.RoundNumber
	out, err := r.game.Leave(userID)
	if err != nil {
		return nil, err
	}
	r.touch()

	events := []Event{{
		Kind:    EventPlayerLeft,
		Payload: PlayerLeftPayload{UserID: userID, NewOwnerID: out.NewOwnerID},
	}}
	if out.Finished {
		return append(events, r.gameEndedEvent()), nil
	}
	if out.WasJudge && out.RoundRestarted {
		events = append(events,
			Event{Kind: EventRoundAborted, Payload: RoundAbortedPayload{Number: aborted}},
			Event{Kind: EventJudgeReassigned, Payload: JudgeReassignedPayload{NewJudgeID: out.NewJudgeID}},
		)
		return append(events, r.roundStartEvents()...), nil
	}
	events = append(events, r.skipFollowups(skipResult{
		AdvancedToJudging: out.AdvancedToJudging,
		RoundAborted:      out.RoundRestarted,
	}, aborted)...)
	return events, nil
}

// Empty reports whether the roster has no players left.
func (r *Room) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.game.PlayerCount() == 0
}

// ---- event assembly, caller holds the lock ----

type skipResult struct {
	AdvancedToJudging bool
	RoundAborted      bool
	Finished          bool
}

// skipFollowups emits the events implied by a settled quota: judging began,
// the round was aborted and redealt, or the room finished.
func (r *Room) skipFollowups(out skipResult, abortedNumber int) []Event {
	switch {
	case out.AdvancedToJudging:
		return []Event{r.judgingStartedEvent()}
	case out.RoundAborted:
		events := []Event{{Kind: EventRoundAborted, Payload: RoundAbortedPayload{Number: abortedNumber}}}
		return append(events, r.roundStartEvents()...)
	case out.Finished:
		return []Event{r.gameEndedEvent()}
	}
	return nil
}

// roundStartEvents announces the new round and resyncs each submitter's hand,
// or announces the end of the game if no round could start.
func (r *Room) roundStartEvents() []Event {
	if r.game.State == domain.RoomFinished {
		return []Event{r.gameEndedEvent()}
	}
	round := r.game.Round()
	events := []Event{{
		Kind: EventRoundStarted,
		Payload: RoundStartedPayload{
			Number:  round.Number,
			JudgeID: round.JudgeID,
			Prompt:  r.prompt(round.Prompt),
		},
	}}
	for _, id := range r.game.JoinOrder() {
		slot, _ := r.game.Slot(id)
		if id == round.JudgeID || slot.Connection != domain.Active {
			continue
		}
		events = append(events, r.handDealtEvent(id, slot.Hand))
	}
	return events
}

func (r *Room) judgingStartedEvent() Event {
	round := r.game.Round()
	reveals := make([][]Card, 0, len(round.RevealedOrder))
	for _, id := range round.RevealedOrder {
		reveals = append(reveals, r.cards(round.Submissions[id]))
	}
	return Event{
		Kind:    EventJudgingStarted,
		Payload: JudgingStartedPayload{Prompt: r.prompt(round.Prompt), Reveals: reveals},
	}
}

func (r *Room) gameEndedEvent() Event {
	scores := make(map[string]int, r.game.PlayerCount())
	for _, id := range r.game.JoinOrder() {
		slot, _ := r.game.Slot(id)
		scores[id] = slot.Score
	}
	return Event{
		Kind: EventGameEnded,
		Payload: GameEndedPayload{
			WinnerID: r.game.WinnerID,
			Reason:   r.game.FinishReason,
			Scores:   scores,
		},
	}
}

func (r *Room) handDealtEvent(userID string, hand []domain.CardID) Event {
	return Event{
		Kind:       EventHandDealt,
		Payload:    HandDealtPayload{UserID: userID, Hand: r.cards(hand)},
		Recipients: []string{userID},
	}
}

func (r *Room) cards(ids []domain.CardID) []Card {
	out := make([]Card, 0, len(ids))
	for _, id := range ids {
		card, ok := r.pool.Response(id)
		if !ok {
			continue
		}
		out = append(out, Card{ID: card.ID, Text: card.Text})
	}
	return out
}

func (r *Room) prompt(card domain.PromptCard) Prompt {
	return Prompt{ID: card.ID, Text: card.Text, Blanks: card.BlankCount}
}

// requiredSubmissions counts players the quota still applies to, submitted or
// not: active, not the judge, not excused.
func (r *Room) requiredSubmissions() int {
	round := r.game.Round()
	n := 0
	for _, id := range r.game.JoinOrder() {
		slot, _ := r.game.Slot(id)
		if id == round.JudgeID || slot.Connection != domain.Active || round.Skipped[id] {
			continue
		}
		n++
	}
	return n
}

func (r *Room) requireCollecting() error {
	round := r.game.Round()
	if r.game.State != domain.RoomInRound || round == nil || round.Phase != domain.PhaseCollectingSubmissions {
		return domain.ErrWrongPhase
	}
	return nil
}

// pendingSubmitters lists active non-judge players who have neither submitted
// nor been excused, in join order.
func (r *Room) pendingSubmitters() []string {
	round := r.game.Round()
	var pending []string
	for _, id := range r.game.JoinOrder() {
		slot, _ := r.game.Slot(id)
		if id == round.JudgeID || slot.Connection != domain.Active || round.Skipped[id] {
			continue
		}
		if _, ok := round.Submissions[id]; ok {
			continue
		}
		pending = append(pending, id)
	}
	return pending
}

// touch records activity and detects phase boundaries for timeout measurement.
func (r *Room) touch() {
	now := r.now()
	r.lastActivity = now
	key := phaseKey{state: r.game.State, num: r.game.RoundNumber}
	if round := r.game.Round(); round != nil {
		key.phase = round.Phase
	}
	if key != r.lastPhaseKey {
		r.lastPhaseKey = key
		r.phaseChangedAt = now
	}
}
