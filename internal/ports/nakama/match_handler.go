package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"cardczar/internal/app"
	"cardczar/internal/bot"
	"cardczar/internal/domain"
	"cardczar/internal/ports"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"
)

const matchTickRate = 1 // ticks per second

// MatchState holds the authoritative runtime state for one Nakama match,
// which backs exactly one room.
type MatchState struct {
	RoomID    string
	Room      *app.Room
	Presences map[string]runtime.Presence
	Bots      map[string]*bot.Agent
	Stats     ports.StatsPort
	Tick      int64

	rng *rand.Rand
	// botFillSince is the tick a short lobby started waiting for bots, zero
	// when the timer is not running.
	botFillSince int64
	// botActAt is the tick the next pending bot action fires, zero when idle.
	botActAt int64
}

func (ms *MatchState) humanPresenceCount() int {
	count := 0
	for userID := range ms.Presences {
		if !bot.IsBot(userID) {
			count++
		}
	}
	return count
}

type matchHandler struct {
	gw *Gateway
}

type submitCardsRequest struct {
	CardIDs []int `json:"card_ids"`
}

type pickWinnerRequest struct {
	RevealIndex int `json:"reveal_index"`
}

type gameErrorEvent struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// MatchInit creates the backing room and registers it under the match ID so
// RPC lookups and the handler agree on the key.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	gameCfg := mh.gw.cfg
	roomCfg := domain.Config{
		MaxPlayers:  paramInt(params, "max_players", gameCfg.MaxPlayers),
		HandSize:    paramInt(params, "hand_size", gameCfg.HandSize),
		TargetScore: paramInt(params, "target_score", gameCfg.TargetScore),
	}

	roomID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
	if roomID == "" {
		roomID = uuid.NewString()
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	room, err := mh.gw.registry.CreateWithID(roomID, roomCfg, mh.gw.pool, rng)
	if err != nil {
		logger.Error("MatchInit: failed to create room: %v", err)
		return nil, 0, ""
	}

	state := &MatchState{
		RoomID:    roomID,
		Room:      room,
		Presences: make(map[string]runtime.Presence),
		Bots:      make(map[string]*bot.Agent),
		Stats:     NewNakamaStatsAdapter(nk),
		rng:       rng,
	}

	return state, matchTickRate, makeLabel(room.Snapshot())
}

// MatchJoinAttempt admits lobby joiners freely. Once the game has started only
// slot holders may come back, and they must prove the seat is theirs with a
// rejoin token minted for this room.
func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	snap := matchState.Room.Snapshot()
	userID := presence.GetUserId()

	hasSlot := false
	for _, p := range snap.Players {
		if p.PlayerID == userID {
			hasSlot = true
			break
		}
	}

	if hasSlot {
		if snap.State == domain.RoomLobby {
			return matchState, true, ""
		}
		token := metadata[rejoinTokenMetadataKey]
		if token == "" {
			return matchState, false, "rejoin token required"
		}
		tokenUser, tokenRoom, err := mh.gw.rejoin.ValidateToken(token)
		if err != nil || tokenUser != userID || tokenRoom != matchState.RoomID {
			logger.Warn("MatchJoinAttempt: rejected rejoin token for %s: %v", userID, err)
			return matchState, false, "invalid rejoin token"
		}
		return matchState, true, ""
	}

	if snap.State != domain.RoomLobby {
		return matchState, false, "game already started"
	}
	if len(snap.Players) >= snap.Config.MaxPlayers {
		return matchState, false, "room full"
	}
	return matchState, true, ""
}

// MatchJoin seats new players and reconnects returning ones, then sends each
// joiner a private redacted snapshot.
func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		matchState.Presences[userID] = p

		events, err := matchState.Room.Join(userID)
		if errors.Is(err, domain.ErrAlreadyJoined) || errors.Is(err, domain.ErrRoomNotJoinable) {
			events, err = matchState.Room.Reconnect(userID)
		}
		if err != nil {
			logger.Warn("MatchJoin: user %s could not be seated: %v", userID, err)
			continue
		}
		mh.dispatchEvents(ctx, matchState, dispatcher, logger, events)
		mh.sendSnapshot(matchState, dispatcher, logger, userID)
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

// MatchLeave marks leavers disconnected rather than removing their slot, so a
// rejoin token can bring them back with hand and score intact.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		delete(matchState.Presences, userID)

		events, err := matchState.Room.Disconnect(userID)
		if err != nil {
			// Explicit leavers have no slot anymore; nothing to reconcile.
			continue
		}
		mh.dispatchEvents(ctx, matchState, dispatcher, logger, events)
	}

	if matchState.humanPresenceCount() == 0 {
		logger.Info("MatchLeave: no humans connected, ending match %s", matchState.RoomID)
		mh.gw.registry.Retire(matchState.RoomID)
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}
	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpStartGame:
			mh.handleStartGame(ctx, matchState, dispatcher, logger, msg)
		case OpSubmitCards:
			mh.handleSubmitCards(ctx, matchState, dispatcher, logger, msg)
		case OpPickWinner:
			mh.handlePickWinner(ctx, matchState, dispatcher, logger, msg)
		case OpLeaveGame:
			mh.handleLeaveGame(ctx, matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: unknown opcode received: %d", msg.GetOpCode())
		}
	}

	mh.enforceDeadlines(ctx, matchState, dispatcher, logger)
	mh.processBots(ctx, matchState, dispatcher, logger)

	// A finished room with nothing happening does not need its match.
	snap := matchState.Room.Snapshot()
	if snap.State == domain.RoomFinished {
		idle := time.Since(matchState.Room.LastActivity())
		if idle >= time.Duration(mh.gw.cfg.IdleRetireSeconds)*time.Second {
			logger.Info("MatchLoop: retiring finished room %s", matchState.RoomID)
			mh.gw.registry.Retire(matchState.RoomID)
			return nil
		}
	}

	return matchState
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	if matchState, ok := state.(*MatchState); ok {
		mh.gw.registry.Retire(matchState.RoomID)
	}
	logger.Debug("MatchTerminate: match terminated for reason %d", reason)
	return state
}

// MatchSignal answers with the public room label so operators can probe a
// match without joining it.
func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, ""
	}
	return matchState, makeLabel(matchState.Room.Snapshot())
}

// ---- message handlers ----

func (mh *matchHandler) handleStartGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	events, err := state.Room.Start(senderID)
	if err != nil {
		logger.Warn("StartGame: user %s could not start: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
	mh.updateLabel(state, dispatcher, logger)
}

func (mh *matchHandler) handleSubmitCards(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()

	var request submitCardsRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Warn("SubmitCards: invalid payload from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, domain.ErrUnknownCard)
		return
	}
	cards := make([]domain.CardID, len(request.CardIDs))
	for i, id := range request.CardIDs {
		cards[i] = domain.CardID(id)
	}

	events, err := state.Room.Submit(senderID, cards)
	if err != nil {
		logger.Warn("SubmitCards: user %s rejected: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
}

func (mh *matchHandler) handlePickWinner(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()

	var request pickWinnerRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Warn("PickWinner: invalid payload from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, domain.ErrInvalidPick)
		return
	}

	events, err := state.Room.Pick(senderID, request.RevealIndex)
	if err != nil {
		logger.Warn("PickWinner: user %s rejected: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
	mh.updateLabel(state, dispatcher, logger)
}

func (mh *matchHandler) handleLeaveGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	events, err := state.Room.Leave(senderID)
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)

	if p, ok := state.Presences[senderID]; ok {
		delete(state.Presences, senderID)
		if err := dispatcher.MatchKick([]runtime.Presence{p}); err != nil {
			logger.Warn("LeaveGame: failed to kick %s: %v", senderID, err)
		}
	}
	mh.updateLabel(state, dispatcher, logger)
}

// ---- timers and bots ----

// enforceDeadlines applies the timeout policy: a stale submission window
// force-skips the stragglers, a stale judging window rotates the judge.
func (mh *matchHandler) enforceDeadlines(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	submission := time.Duration(mh.gw.cfg.SubmissionPhaseSeconds) * time.Second
	judging := time.Duration(mh.gw.cfg.JudgingPhaseSeconds) * time.Second

	phase, expired := state.Room.ExpiredPhase(time.Now(), submission, judging)
	if !expired {
		return
	}

	var events []app.Event
	var err error
	switch phase {
	case domain.PhaseCollectingSubmissions:
		logger.Info("Deadline: submission window closed in room %s", state.RoomID)
		events, err = state.Room.ExpireSubmissions()
	case domain.PhaseJudging:
		logger.Info("Deadline: judging window closed in room %s", state.RoomID)
		events, err = state.Room.ReassignJudge()
	default:
		return
	}
	if err != nil {
		logger.Warn("Deadline: enforcement failed in room %s: %v", state.RoomID, err)
		return
	}
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
	mh.updateLabel(state, dispatcher, logger)
}

// processBots fills short lobbies and plays bot seats.
func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	fillDelay := int64(mh.gw.cfg.BotFillDelaySeconds) * matchTickRate
	snap := state.Room.Snapshot()

	// 1. Auto-fill a lobby that cannot start on humans alone.
	if fillDelay > 0 && snap.State == domain.RoomLobby {
		if state.humanPresenceCount() >= 1 && len(snap.Players) < domain.MinPlayersToStart {
			if state.botFillSince == 0 {
				state.botFillSince = state.Tick
			}
			if state.Tick-state.botFillSince >= fillDelay {
				mh.fillWithBots(ctx, state, dispatcher, logger, snap)
				state.botFillSince = 0
			}
		} else {
			state.botFillSince = 0
		}
	}

	if snap.State != domain.RoomInRound || snap.Round == nil || len(state.Bots) == 0 {
		state.botActAt = 0
		return
	}

	// 2. Bots act on a short random delay so they read as players, not code.
	if state.botActAt == 0 {
		state.botActAt = state.Tick + int64(1+state.rng.Intn(3))
		return
	}
	if state.Tick < state.botActAt {
		return
	}
	state.botActAt = 0

	switch snap.Round.Phase {
	case domain.PhaseCollectingSubmissions:
		for _, agent := range state.Bots {
			if !botOwesSubmission(snap, agent.ID) {
				continue
			}
			cards := agent.Submission(snap)
			events, err := state.Room.Submit(agent.ID, cards)
			if err != nil {
				logger.Warn("Bot %s failed to submit: %v", agent.ID, err)
				continue
			}
			mh.dispatchEvents(ctx, state, dispatcher, logger, events)
			// Later bots act on a fresh snapshot next tick.
			return
		}
	case domain.PhaseJudging:
		agent, ok := state.Bots[snap.Round.JudgeID]
		if !ok {
			return
		}
		events, err := state.Room.Pick(agent.ID, agent.Pick(snap))
		if err != nil {
			logger.Warn("Bot judge %s failed to pick: %v", agent.ID, err)
			return
		}
		mh.dispatchEvents(ctx, state, dispatcher, logger, events)
		mh.updateLabel(state, dispatcher, logger)
	}
}

func (mh *matchHandler) fillWithBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, snap domain.Snapshot) {
	needed := domain.MinPlayersToStart - len(snap.Players)
	if needed <= 0 {
		return
	}
	taken := make(map[string]bool, len(snap.Players))
	for _, p := range snap.Players {
		taken[p.PlayerID] = true
	}

	for _, agent := range bot.NewAgents(needed, taken, state.rng) {
		events, err := state.Room.Join(agent.ID)
		if err != nil {
			logger.Warn("Bot fill: %s could not join: %v", agent.ID, err)
			continue
		}
		state.Bots[agent.ID] = agent
		logger.Info("Bot fill: added %s (%s) to room %s", agent.Name, agent.ID, state.RoomID)
		mh.dispatchEvents(ctx, state, dispatcher, logger, events)
	}
	mh.updateLabel(state, dispatcher, logger)
}

// botOwesSubmission reports whether the bot still owes cards this round.
func botOwesSubmission(snap domain.Snapshot, botID string) bool {
	round := snap.Round
	if round == nil || botID == round.JudgeID {
		return false
	}
	if _, ok := round.Submissions[botID]; ok {
		return false
	}
	for _, id := range round.Skipped {
		if id == botID {
			return false
		}
	}
	for _, p := range snap.Players {
		if p.PlayerID == botID {
			return p.Connection == domain.Active
		}
	}
	return false
}

// ---- dispatch helpers ----

// dispatchEvents marshals app events to JSON and broadcasts them, honoring
// targeted recipients. Events aimed only at absent users (bots, gone players)
// are dropped rather than leaked to the room.
func (mh *matchHandler) dispatchEvents(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	for _, ev := range events {
		opCode := eventOpCode(ev.Kind)
		if opCode == 0 {
			logger.Warn("dispatchEvents: unknown event kind %s", ev.Kind)
			continue
		}

		data, err := json.Marshal(ev.Payload)
		if err != nil {
			logger.Error("dispatchEvents: failed to marshal %s: %v", ev.Kind, err)
			continue
		}

		var recipients []runtime.Presence
		if len(ev.Recipients) > 0 {
			for _, uid := range ev.Recipients {
				if p, ok := state.Presences[uid]; ok {
					recipients = append(recipients, p)
				}
			}
			if len(recipients) == 0 {
				continue
			}
		}

		if err := dispatcher.BroadcastMessage(opCode, data, recipients, nil, true); err != nil {
			logger.Error("dispatchEvents: broadcast %s failed: %v", ev.Kind, err)
		}

		if ev.Kind == app.EventGameEnded {
			mh.recordResults(ctx, state, logger, ev.Payload.(app.GameEndedPayload))
		}
	}
}

// recordResults persists lifetime stats for human players of a finished game.
func (mh *matchHandler) recordResults(ctx context.Context, state *MatchState, logger runtime.Logger, payload app.GameEndedPayload) {
	if state.Stats == nil {
		return
	}
	results := make([]ports.GameResult, 0, len(payload.Scores))
	for userID, score := range payload.Scores {
		if bot.IsBot(userID) {
			continue
		}
		results = append(results, ports.GameResult{
			UserID: userID,
			Score:  score,
			Won:    userID == payload.WinnerID,
		})
	}
	if len(results) == 0 {
		return
	}
	if err := state.Stats.RecordGameResults(ctx, results); err != nil {
		logger.Error("recordResults: failed to persist stats: %v", err)
	}
}

// sendSnapshot sends a player their private view of the room.
func (mh *matchHandler) sendSnapshot(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string) {
	presence, ok := state.Presences[userID]
	if !ok {
		return
	}
	view := snapshotForUser(state.Room.Snapshot(), mh.gw.pool, userID)
	data, err := json.Marshal(view)
	if err != nil {
		logger.Error("sendSnapshot: failed to marshal snapshot: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpStateSnapshot, data, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Error("sendSnapshot: broadcast failed: %v", err)
	}
}

// sendError sends a GameError event to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, cause error) {
	presence, ok := state.Presences[userID]
	if !ok {
		return
	}
	data, err := json.Marshal(gameErrorEvent{Code: errorCode(cause), Message: cause.Error()})
	if err != nil {
		logger.Error("sendError: failed to marshal: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpGameError, data, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Error("sendError: broadcast failed: %v", err)
	}
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if err := dispatcher.MatchLabelUpdate(makeLabel(state.Room.Snapshot())); err != nil {
		logger.Error("updateLabel: failed to update: %v", err)
	}
}

func makeLabel(snap domain.Snapshot) string {
	label := MatchLabel{
		Game:    "cardczar",
		Players: len(snap.Players),
	}
	switch snap.State {
	case domain.RoomLobby:
		label.Phase = "lobby"
		label.Open = snap.Config.MaxPlayers - len(snap.Players)
	case domain.RoomInRound:
		label.Phase = "playing"
	case domain.RoomFinished:
		label.Phase = "finished"
	}
	data, err := json.Marshal(label)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func paramInt(params map[string]interface{}, key string, fallback int) int {
	if params == nil {
		return fallback
	}
	switch v := params[key].(type) {
	case float64:
		if v > 0 {
			return int(v)
		}
	case int:
		if v > 0 {
			return v
		}
	case string:
		// Match creation params arrive as JSON; strings are left to defaults.
	}
	return fallback
}
