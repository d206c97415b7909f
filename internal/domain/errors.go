package domain

import "errors"

// Validation errors: malformed input, no state was mutated, the caller may
// correct the request and retry immediately.
var (
	ErrUnknownPlayer  = errors.New("player not found")
	ErrUnknownCard    = errors.New("card not found")
	ErrWrongCardCount = errors.New("submitted card count does not match prompt blanks")
	ErrCardNotInHand  = errors.New("card not in hand")
	ErrInvalidPick    = errors.New("pick does not match a revealed submission")
)

// State-conflict errors: the operation is not valid for the current phase or
// room state. No state was mutated; the caller may retry once preconditions hold.
var (
	ErrRoomFull         = errors.New("room is full")
	ErrAlreadyJoined    = errors.New("player already joined")
	ErrRoomNotJoinable  = errors.New("room is not accepting players")
	ErrGameFinished     = errors.New("game already finished")
	ErrNotOwner         = errors.New("player is not room owner")
	ErrTooFewPlayers    = errors.New("not enough players to start")
	ErrWrongPhase       = errors.New("operation not valid in current phase")
	ErrAlreadySubmitted = errors.New("player already submitted this round")
	ErrNotYourTurn      = errors.New("judge cannot submit")
	ErrNotJudge         = errors.New("only the judge may pick")
	ErrPlayerInactive   = errors.New("player is disconnected")
	ErrPlayerNotInRound = errors.New("player is not required to act this round")
)

// Resource-exhaustion errors: the card pool cannot satisfy demand. Pool-size
// failures are fatal at startup; mid-game deck exhaustion ends the room.
var (
	ErrDeckExhausted = errors.New("deck exhausted: pool smaller than demand")
	ErrPoolTooSmall  = errors.New("card pool below minimum playable size")
)

// IsValidation reports whether err is a recoverable bad-input error.
func IsValidation(err error) bool {
	for _, e := range []error{ErrUnknownPlayer, ErrUnknownCard, ErrWrongCardCount, ErrCardNotInHand, ErrInvalidPick} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// IsStateConflict reports whether err indicates an operation attempted in the
// wrong phase or room state.
func IsStateConflict(err error) bool {
	for _, e := range []error{
		ErrRoomFull, ErrAlreadyJoined, ErrRoomNotJoinable, ErrGameFinished,
		ErrNotOwner, ErrTooFewPlayers, ErrWrongPhase, ErrAlreadySubmitted,
		ErrNotYourTurn, ErrNotJudge, ErrPlayerInactive, ErrPlayerNotInRound,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// IsResourceExhaustion reports whether err indicates the card pool is too
// small for the configured room.
func IsResourceExhaustion(err error) bool {
	return errors.Is(err, ErrDeckExhausted) || errors.Is(err, ErrPoolTooSmall)
}
