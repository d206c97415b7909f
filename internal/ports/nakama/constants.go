package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create an open room.
	RpcQuickMatch = "quick_match"
	// RpcCreateRoom creates a fresh room regardless of open lobbies.
	RpcCreateRoom = "create_room"
	// RpcListRooms returns summaries of live rooms for a lobby browser.
	RpcListRooms = "list_rooms"
	// RpcRejoinToken mints a token the caller can present to rejoin a room
	// after a disconnect.
	RpcRejoinToken = "rejoin_token"

	// MatchNameCardCzar is the authoritative match handler name registered with Nakama.
	MatchNameCardCzar = "cardczar_match"

	// rejoinTokenMetadataKey is the join-attempt metadata key carrying a rejoin token.
	rejoinTokenMetadataKey = "rejoin_token"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartGame   int64 = 1
	OpSubmitCards int64 = 2
	OpPickWinner  int64 = 3
	OpLeaveGame   int64 = 4

	// Server -> Client events
	OpPlayerJoined       int64 = 101
	OpPlayerLeft         int64 = 102
	OpPlayerDisconnected int64 = 103
	OpPlayerReconnected  int64 = 104
	OpPlayerSkipped      int64 = 105
	OpRoundStarted       int64 = 106
	OpHandDealt          int64 = 107 // send privately
	OpSubmissionReceived int64 = 108
	OpJudgingStarted     int64 = 109
	OpRoundWon           int64 = 110
	OpRoundAborted       int64 = 111
	OpJudgeReassigned    int64 = 112
	OpGameEnded          int64 = 113
	OpStateSnapshot      int64 = 114 // send privately
	OpGameError          int64 = 115 // send privately
)
