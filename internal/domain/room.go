package domain

import (
	"errors"
	"math/rand"
)

// RoomState is the lifecycle stage of a room.
type RoomState string

const (
	// RoomLobby is the pre-game state where players can join and leave freely.
	RoomLobby RoomState = "lobby"
	// RoomInRound is the active game state cycling through round phases.
	RoomInRound RoomState = "in_round"
	// RoomFinished is terminal; no further rounds run.
	RoomFinished RoomState = "finished"
)

// FinishReason records why a room reached RoomFinished.
type FinishReason string

const (
	// FinishTargetScore means a player reached the configured target score.
	FinishTargetScore FinishReason = "target_score"
	// FinishTooFewPlayers means active membership dropped below the playable
	// minimum mid-round. No winner is declared.
	FinishTooFewPlayers FinishReason = "too_few_players"
	// FinishDeckExhausted means the pool could not satisfy a deal. No winner.
	FinishDeckExhausted FinishReason = "deck_exhausted"
)

// MinPlayersToStart is the minimum roster required to start a game: one judge
// plus at least two submitters.
const MinPlayersToStart = 3

// Config is the per-room configuration accepted at creation.
type Config struct {
	MaxPlayers  int
	HandSize    int
	TargetScore int
}

// Validate checks the config against itself and the card pool. A pool that
// cannot fill every hand at capacity fails with ErrPoolTooSmall before any
// room exists.
func (c Config) Validate(pool *Pool) error {
	if c.MaxPlayers < MinPlayersToStart {
		return ErrTooFewPlayers
	}
	if c.HandSize < 1 || c.TargetScore < 1 {
		return errors.New("hand size and target score must be positive")
	}
	if pool.ResponseCount() < c.HandSize*c.MaxPlayers {
		return ErrPoolTooSmall
	}
	if pool.PromptCount() < 1 {
		return ErrPoolTooSmall
	}
	return nil
}

// Room is one isolated match instance: a deck pair, a roster of player slots,
// and the current round. Rooms are not safe for concurrent use; the app layer
// serializes access per room.
type Room struct {
	ID     string
	Config Config

	State        RoomState
	OwnerID      string
	WinnerID     string
	FinishReason FinishReason
	RoundNumber  int

	slots     map[string]*Slot
	joinOrder []string
	nextToken int

	promptDeck   *Deck
	responseDeck *Deck
	round        *Round

	// lastJudgeToken is the JoinedAt token of the previous judge; rotation
	// picks the next active player by token order, wrapping around.
	lastJudgeToken int

	pool *Pool
	rng  *rand.Rand
}

// NewRoom validates the config against the pool and builds a room in lobby
// state with freshly shuffled decks.
func NewRoom(id string, cfg Config, pool *Pool, rng *rand.Rand) (*Room, error) {
	if err := cfg.Validate(pool); err != nil {
		return nil, err
	}
	return &Room{
		ID:             id,
		Config:         cfg,
		State:          RoomLobby,
		slots:          make(map[string]*Slot),
		promptDeck:     NewDeck(pool.PromptIDs(), rng),
		responseDeck:   NewDeck(pool.ResponseIDs(), rng),
		lastJudgeToken: -1,
		pool:           pool,
		rng:            rng,
	}, nil
}

// Round returns the current round controller, nil before the first start.
func (r *Room) Round() *Round { return r.round }

// Slot returns the slot for a player, if present.
func (r *Room) Slot(playerID string) (*Slot, bool) {
	s, ok := r.slots[playerID]
	return s, ok
}

// PlayerCount returns the roster size, disconnected slots included.
func (r *Room) PlayerCount() int { return len(r.slots) }

// JoinOrder returns player IDs in join order.
func (r *Room) JoinOrder() []string {
	return append([]string(nil), r.joinOrder...)
}

// Join adds a player slot. Mid-game joins are rejected: only lobbies accept
// new players.
func (r *Room) Join(playerID string) error {
	if r.State != RoomLobby {
		return ErrRoomNotJoinable
	}
	if _, ok := r.slots[playerID]; ok {
		return ErrAlreadyJoined
	}
	if len(r.slots) >= r.Config.MaxPlayers {
		return ErrRoomFull
	}

	r.slots[playerID] = &Slot{
		PlayerID:   playerID,
		Connection: Active,
		JoinedAt:   r.nextToken,
	}
	r.nextToken++
	r.joinOrder = append(r.joinOrder, playerID)
	if r.OwnerID == "" {
		r.OwnerID = playerID
	}
	return nil
}

// StartGame transitions Lobby to InRound and begins the first round. Only the
// room owner may start, and only with a full playable roster.
func (r *Room) StartGame(playerID string) error {
	if _, ok := r.slots[playerID]; !ok {
		return ErrUnknownPlayer
	}
	switch r.State {
	case RoomInRound:
		return ErrWrongPhase
	case RoomFinished:
		return ErrGameFinished
	}
	if playerID != r.OwnerID {
		return ErrNotOwner
	}
	if r.activeCount() < MinPlayersToStart {
		return ErrTooFewPlayers
	}

	r.State = RoomInRound
	r.startRound()
	return nil
}

// SubmitOutcome reports side effects of a successful submission.
type SubmitOutcome struct {
	AdvancedToJudging bool
}

// Submit records a player's response cards for the current prompt. The cards
// move from the hand into the round's holding area in a single step; on any
// validation failure nothing is mutated.
func (r *Room) Submit(playerID string, cards []CardID) (SubmitOutcome, error) {
	var out SubmitOutcome
	if err := r.requirePhase(PhaseCollectingSubmissions); err != nil {
		return out, err
	}
	slot, ok := r.slots[playerID]
	if !ok {
		return out, ErrUnknownPlayer
	}
	if playerID == r.round.JudgeID {
		return out, ErrNotYourTurn
	}
	if slot.Connection != Active {
		return out, ErrPlayerInactive
	}
	if r.round.hasSubmitted(playerID) {
		return out, ErrAlreadySubmitted
	}
	if r.round.Skipped[playerID] {
		return out, ErrPlayerNotInRound
	}
	if len(cards) != r.round.Prompt.BlankCount {
		return out, ErrWrongCardCount
	}
	seen := make(map[CardID]bool, len(cards))
	for _, id := range cards {
		if seen[id] || !slot.Holds(id) {
			return out, ErrCardNotInHand
		}
		seen[id] = true
	}

	for _, id := range cards {
		if err := slot.RemoveFromHand(id); err != nil {
			panic("domain: validated card missing from hand")
		}
	}
	r.round.submit(playerID, append([]CardID(nil), cards...))

	out.AdvancedToJudging = r.maybeBeginJudging()
	return out, nil
}

// PickOutcome reports the result of the judge's pick.
type PickOutcome struct {
	WinnerID     string
	WinnerScore  int
	WinningCards []CardID
	GameOver     bool
	NextJudgeID  string
}

// PickWinner accepts the judge's pick by index into the revealed order,
// awards the point, retires the round's cards, and either starts the next
// round or finishes the game.
func (r *Room) PickWinner(judgeID string, revealIndex int) (PickOutcome, error) {
	var out PickOutcome
	switch r.State {
	case RoomLobby:
		return out, ErrWrongPhase
	case RoomFinished:
		return out, ErrGameFinished
	}
	if r.round.Phase != PhaseJudging {
		return out, ErrWrongPhase
	}
	if _, ok := r.slots[judgeID]; !ok {
		return out, ErrUnknownPlayer
	}
	if judgeID != r.round.JudgeID {
		return out, ErrNotJudge
	}
	if revealIndex < 0 || revealIndex >= len(r.round.RevealedOrder) {
		return out, ErrInvalidPick
	}

	winnerID := r.round.RevealedOrder[revealIndex]
	out.WinnerID = winnerID
	out.WinningCards = append([]CardID(nil), r.round.Submissions[winnerID]...)

	// A winner who left keeps the round valid but collects nothing.
	if winner, ok := r.slots[winnerID]; ok {
		winner.AddScore(1)
		out.WinnerScore = winner.Score
	}

	r.retireRoundCards()
	r.round.advance(PhaseRoundComplete)

	if winner, ok := r.slots[winnerID]; ok && winner.Score >= r.Config.TargetScore {
		r.finishWithWinner(winnerID)
		out.GameOver = true
		return out, nil
	}

	r.startRound()
	if r.State == RoomFinished {
		out.GameOver = true
		return out, nil
	}
	out.NextJudgeID = r.round.JudgeID
	return out, nil
}

// SkipOutcome reports side effects of excusing a player from the quota.
type SkipOutcome struct {
	AdvancedToJudging bool
	RoundAborted      bool
	Finished          bool
}

// ForceSkip excuses a required submitter from this round's quota. Timeout
// policy lives outside the engine; this is the primitive it invokes.
func (r *Room) ForceSkip(playerID string) (SkipOutcome, error) {
	var out SkipOutcome
	if err := r.requirePhase(PhaseCollectingSubmissions); err != nil {
		return out, err
	}
	if _, ok := r.slots[playerID]; !ok {
		return out, ErrUnknownPlayer
	}
	if playerID == r.round.JudgeID {
		return out, ErrPlayerNotInRound
	}
	if r.round.hasSubmitted(playerID) {
		return out, ErrAlreadySubmitted
	}
	if r.round.Skipped[playerID] {
		return out, ErrPlayerNotInRound
	}

	r.round.Skipped[playerID] = true
	r.settleQuota(&out)
	return out, nil
}

// ReassignOutcome reports the judge rotation forced by the external layer.
type ReassignOutcome struct {
	NewJudgeID string
	Finished   bool
}

// ReassignJudge aborts the in-flight round without awarding a point and deals
// a fresh round under the next judge. Used when the judge disconnects or
// times out before picking.
func (r *Room) ReassignJudge() (ReassignOutcome, error) {
	var out ReassignOutcome
	switch r.State {
	case RoomLobby:
		return out, ErrWrongPhase
	case RoomFinished:
		return out, ErrGameFinished
	}
	if p := r.round.Phase; p != PhaseCollectingSubmissions && p != PhaseJudging {
		return out, ErrWrongPhase
	}

	r.abortRound()
	r.startRound()
	if r.State == RoomFinished {
		out.Finished = true
		return out, nil
	}
	out.NewJudgeID = r.round.JudgeID
	return out, nil
}

// DisconnectOutcome reports side effects of marking a player disconnected.
type DisconnectOutcome struct {
	AdvancedToJudging bool
	RoundAborted      bool
	Finished          bool
}

// Disconnect preserves the slot (hand and score) but excludes the player from
// quota counting for the current round. Idempotent.
func (r *Room) Disconnect(playerID string) (DisconnectOutcome, error) {
	var out DisconnectOutcome
	slot, ok := r.slots[playerID]
	if !ok {
		return out, ErrUnknownPlayer
	}
	if slot.Connection == Disconnected {
		return out, nil
	}
	slot.Connection = Disconnected

	if r.State != RoomInRound {
		return out, nil
	}
	if r.activeCount() < MinPlayersToStart {
		r.finishNoWinner(FinishTooFewPlayers)
		out.Finished = true
		return out, nil
	}
	if r.round.Phase == PhaseCollectingSubmissions &&
		playerID != r.round.JudgeID && !r.round.hasSubmitted(playerID) {
		r.round.Skipped[playerID] = true
		var skip SkipOutcome
		r.settleQuota(&skip)
		out.AdvancedToJudging = skip.AdvancedToJudging
		out.RoundAborted = skip.RoundAborted
		out.Finished = skip.Finished
	}
	return out, nil
}

// Reconnect restores a disconnected slot to active participation. The player
// rejoins quota counting from the next round; a round they were excused from
// stays settled. Idempotent.
func (r *Room) Reconnect(playerID string) error {
	slot, ok := r.slots[playerID]
	if !ok {
		return ErrUnknownPlayer
	}
	slot.Connection = Active
	return nil
}

// LeaveOutcome reports everything the caller must reconcile after a slot is
// destroyed.
type LeaveOutcome struct {
	NewOwnerID        string
	WasJudge          bool
	NewJudgeID        string
	RoundRestarted    bool
	AdvancedToJudging bool
	Finished          bool
	Empty             bool
}

// Leave removes the player slot entirely. Mid-round, the leaver's hand is
// returned to the response discard pile and the round is reconciled: a
// leaving judge forces rotation, a leaving required submitter is excused, and
// a roster below the playable minimum finishes the room with no winner.
func (r *Room) Leave(playerID string) (LeaveOutcome, error) {
	var out LeaveOutcome
	slot, ok := r.slots[playerID]
	if !ok {
		return out, ErrUnknownPlayer
	}

	delete(r.slots, playerID)
	for i, id := range r.joinOrder {
		if id == playerID {
			r.joinOrder = append(r.joinOrder[:i], r.joinOrder[i+1:]...)
			break
		}
	}
	if r.OwnerID == playerID {
		r.OwnerID = ""
		if len(r.joinOrder) > 0 {
			r.OwnerID = r.joinOrder[0]
		}
		out.NewOwnerID = r.OwnerID
	}
	if len(slot.Hand) > 0 {
		r.responseDeck.Discard(slot.Hand...)
		slot.Hand = nil
	}

	out.Empty = len(r.slots) == 0
	if r.State != RoomInRound {
		return out, nil
	}

	out.WasJudge = playerID == r.round.JudgeID
	if r.activeCount() < MinPlayersToStart {
		r.finishNoWinner(FinishTooFewPlayers)
		out.Finished = true
		return out, nil
	}
	if out.WasJudge {
		r.abortRound()
		r.startRound()
		if r.State == RoomFinished {
			out.Finished = true
			return out, nil
		}
		out.RoundRestarted = true
		out.NewJudgeID = r.round.JudgeID
		return out, nil
	}
	if r.round.Phase == PhaseCollectingSubmissions && !r.round.hasSubmitted(playerID) {
		delete(r.round.Skipped, playerID)
		var skip SkipOutcome
		r.settleQuota(&skip)
		out.AdvancedToJudging = skip.AdvancedToJudging
		out.RoundRestarted = skip.RoundAborted
		out.Finished = skip.Finished
	}
	return out, nil
}

// ---- internal transitions ----

// requirePhase gates player-triggered operations on room state and phase.
func (r *Room) requirePhase(phase Phase) error {
	switch r.State {
	case RoomLobby:
		return ErrWrongPhase
	case RoomFinished:
		return ErrGameFinished
	}
	if r.round == nil || r.round.Phase != phase {
		return ErrWrongPhase
	}
	return nil
}

// startRound selects the next judge, deals the prompt, and tops up every
// active non-judge hand. Deck exhaustion ends the room degraded instead of
// allowing a short deal.
func (r *Room) startRound() {
	judgeID := r.nextJudge()
	prompt, err := r.promptDeck.DrawOne()
	if err != nil {
		r.finishNoWinner(FinishDeckExhausted)
		return
	}
	promptCard, ok := r.pool.Prompt(prompt)
	if !ok {
		panic("domain: prompt deck returned unknown card")
	}

	// Hands are topped up before the new round replaces the completed one, so
	// a failed deal leaves no half-initialized round behind.
	for _, id := range r.joinOrder {
		slot := r.slots[id]
		if id == judgeID || slot.Connection != Active {
			continue
		}
		if err := slot.DealUpTo(r.Config.HandSize, r.responseDeck); err != nil {
			r.promptDeck.Discard(promptCard.ID)
			r.finishNoWinner(FinishDeckExhausted)
			return
		}
	}

	r.RoundNumber++
	r.round = newRound(r.RoundNumber, judgeID, promptCard)
	r.lastJudgeToken = r.slots[judgeID].JoinedAt
	r.round.advance(PhaseCollectingSubmissions)
}

// nextJudge returns the active player whose join token follows the previous
// judge's, wrapping to the earliest joiner.
func (r *Room) nextJudge() string {
	var next, first string
	nextToken, firstToken := -1, -1
	for _, id := range r.joinOrder {
		slot := r.slots[id]
		if slot.Connection != Active {
			continue
		}
		if firstToken == -1 || slot.JoinedAt < firstToken {
			first, firstToken = id, slot.JoinedAt
		}
		if slot.JoinedAt > r.lastJudgeToken && (nextToken == -1 || slot.JoinedAt < nextToken) {
			next, nextToken = id, slot.JoinedAt
		}
	}
	if next != "" {
		return next
	}
	if first == "" {
		panic("domain: no active player available for judge rotation")
	}
	return first
}

// settleQuota advances to judging once every required player has submitted,
// or aborts the round when nobody is left to submit.
func (r *Room) settleQuota(out *SkipOutcome) {
	if !r.quotaMet() {
		return
	}
	if len(r.round.Submissions) == 0 {
		r.abortRound()
		r.startRound()
		out.RoundAborted = true
		out.Finished = r.State == RoomFinished
		return
	}
	r.round.beginJudging(r.rng)
	out.AdvancedToJudging = true
}

// maybeBeginJudging is settleQuota for the submit path, which can never abort.
func (r *Room) maybeBeginJudging() bool {
	if !r.quotaMet() || len(r.round.Submissions) == 0 {
		return false
	}
	r.round.beginJudging(r.rng)
	return true
}

// quotaMet reports whether every active non-judge player is either excused or
// has exactly one submission in.
func (r *Room) quotaMet() bool {
	for id, slot := range r.slots {
		if id == r.round.JudgeID || slot.Connection != Active || r.round.Skipped[id] {
			continue
		}
		if !r.round.hasSubmitted(id) {
			return false
		}
	}
	return true
}

// retireRoundCards moves every held submission and the prompt into the
// discard piles, emptying the round's holding area.
func (r *Room) retireRoundCards() {
	if cards := r.round.submittedCards(); len(cards) > 0 {
		r.responseDeck.Discard(cards...)
	}
	r.promptDeck.Discard(r.round.Prompt.ID)
	r.round.Submissions = make(map[string][]CardID)
}

// abortRound retires the round's cards without awarding a point.
func (r *Room) abortRound() {
	r.retireRoundCards()
	r.round.advance(PhaseRoundComplete)
}

func (r *Room) finishWithWinner(playerID string) {
	r.State = RoomFinished
	r.WinnerID = playerID
	r.FinishReason = FinishTargetScore
}

// finishNoWinner ends the room degraded, retiring any in-flight round cards
// so conservation holds in the terminal state.
func (r *Room) finishNoWinner(reason FinishReason) {
	if r.round != nil {
		switch r.round.Phase {
		case PhaseCollectingSubmissions, PhaseJudging:
			r.retireRoundCards()
			r.round.advance(PhaseRoundComplete)
		}
	}
	r.State = RoomFinished
	r.FinishReason = reason
}

func (r *Room) activeCount() int {
	n := 0
	for _, slot := range r.slots {
		if slot.Connection == Active {
			n++
		}
	}
	return n
}

// Audit verifies card conservation: for each category, the multiset of IDs
// across draw pile, discard pile, hands, and in-flight submissions equals the
// pool exactly. A non-nil error is a programmer error, never a user fault.
func (r *Room) Audit() error {
	check := func(deck *Deck, want []CardID, held [][]CardID) error {
		seen := make(map[CardID]int, len(want))
		draw, discard := deck.Contents()
		for _, id := range draw {
			seen[id]++
		}
		for _, id := range discard {
			seen[id]++
		}
		for _, group := range held {
			for _, id := range group {
				seen[id]++
			}
		}
		if len(seen) != len(want) {
			return errors.New("domain: card count mismatch")
		}
		for _, id := range want {
			if seen[id] != 1 {
				return errors.New("domain: card duplicated or lost")
			}
		}
		return nil
	}

	var responseHeld [][]CardID
	for _, slot := range r.slots {
		responseHeld = append(responseHeld, slot.Hand)
	}
	var promptHeld [][]CardID
	if r.round != nil {
		for _, cards := range r.round.Submissions {
			responseHeld = append(responseHeld, cards)
		}
		if r.round.Phase == PhaseCollectingSubmissions || r.round.Phase == PhaseJudging {
			promptHeld = append(promptHeld, []CardID{r.round.Prompt.ID})
		}
	}

	if err := check(r.responseDeck, r.pool.ResponseIDs(), responseHeld); err != nil {
		return err
	}
	return check(r.promptDeck, r.pool.PromptIDs(), promptHeld)
}
