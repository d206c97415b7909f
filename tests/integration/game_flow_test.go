package integration

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

// Op codes mirrored from the server module.
const (
	OpStartGame   = 1
	OpSubmitCards = 2
	OpPickWinner  = 3

	OpRoundStarted       = 106
	OpHandDealt          = 107
	OpSubmissionReceived = 108
	OpJudgingStarted     = 109
	OpRoundWon           = 110
)

type roundStartedEvent struct {
	Number  int    `json:"number"`
	JudgeID string `json:"judge_id"`
	Prompt  struct {
		ID     int    `json:"id"`
		Text   string `json:"text"`
		Blanks int    `json:"blanks"`
	} `json:"prompt"`
}

type handDealtEvent struct {
	UserID string `json:"user_id"`
	Hand   []struct {
		ID   int    `json:"id"`
		Text string `json:"text"`
	} `json:"hand"`
}

type judgingStartedEvent struct {
	Reveals [][]struct {
		ID   int    `json:"id"`
		Text string `json:"text"`
	} `json:"reveals"`
}

type roundWonEvent struct {
	WinnerID    string `json:"winner_id"`
	WinnerScore int    `json:"winner_score"`
}

func TestFullRoundFlow(t *testing.T) {
	// 1. Create 3 clients (minimum player count)
	clients := make([]*TestClient, 3)
	recorders := make([]*EventRecorder, 3)
	for i := 0; i < 3; i++ {
		clients[i] = NewTestClient(t)
		defer clients[i].Close()
		recorders[i] = clients[i].Record()
	}
	t.Log("Created 3 clients")

	// 2. Client 0 creates/finds a match via quick_match
	matchID := clients[0].QuickMatch(t)
	t.Logf("Client 0 joined match: %s", matchID)

	// 3. Other clients join the SAME match
	for i := 1; i < 3; i++ {
		if _, err := clients[i].Socket.JoinMatch(context.Background(), nil, matchID, nil); err != nil {
			t.Fatalf("Client %d failed to join match: %v", i, err)
		}
		t.Logf("Client %d joined match", i)
	}

	// Wait a bit for presences to sync
	time.Sleep(1 * time.Second)

	// 4. Client 0 (owner) starts the game
	t.Log("Client 0 sending StartGame...")
	clients[0].SendJSON(t, matchID, OpStartGame, struct{}{})

	// 5. All clients receive RoundStarted with the same judge and prompt
	var round roundStartedEvent
	for i, rec := range recorders {
		data := rec.WaitFor(t, OpRoundStarted, 5*time.Second)
		var ev roundStartedEvent
		if err := json.Unmarshal(data.Data, &ev); err != nil {
			t.Fatalf("Client %d failed to decode RoundStarted: %v", i, err)
		}
		if ev.JudgeID == "" {
			t.Fatalf("Client %d got RoundStarted with empty judge", i)
		}
		if ev.Prompt.Blanks < 1 {
			t.Fatalf("Client %d got prompt with %d blanks", i, ev.Prompt.Blanks)
		}
		round = ev
	}
	t.Logf("Round %d started, judge %s, prompt %q", round.Number, round.JudgeID, round.Prompt.Text)

	// 6. Non-judges receive private hands and submit
	hands := make(map[string]handDealtEvent)
	for i, c := range clients {
		if c.UserID == round.JudgeID {
			continue
		}
		data := recorders[i].WaitFor(t, OpHandDealt, 5*time.Second)
		var ev handDealtEvent
		if err := json.Unmarshal(data.Data, &ev); err != nil {
			t.Fatalf("Client %d failed to decode HandDealt: %v", i, err)
		}
		if len(ev.Hand) == 0 {
			t.Fatalf("Client %d received an empty hand", i)
		}
		hands[c.UserID] = ev
	}

	for i, c := range clients {
		if c.UserID == round.JudgeID {
			continue
		}
		hand := hands[c.UserID]
		if len(hand.Hand) < round.Prompt.Blanks {
			t.Fatalf("Client %d hand too small for prompt", i)
		}
		ids := make([]int, round.Prompt.Blanks)
		for j := 0; j < round.Prompt.Blanks; j++ {
			ids[j] = hand.Hand[j].ID
		}
		c.SendJSON(t, matchID, OpSubmitCards, map[string][]int{"card_ids": ids})
		t.Logf("Client %d submitted %d cards", i, len(ids))
	}

	// 7. All clients see judging begin with one reveal per submitter
	for i, rec := range recorders {
		data := rec.WaitFor(t, OpJudgingStarted, 5*time.Second)
		var ev judgingStartedEvent
		if err := json.Unmarshal(data.Data, &ev); err != nil {
			t.Fatalf("Client %d failed to decode JudgingStarted: %v", i, err)
		}
		if len(ev.Reveals) != 2 {
			t.Fatalf("Client %d expected 2 reveals, got %d", i, len(ev.Reveals))
		}
	}
	t.Log("Judging started with 2 reveals")

	// 8. The judge picks the first reveal
	for _, c := range clients {
		if c.UserID == round.JudgeID {
			c.SendJSON(t, matchID, OpPickWinner, map[string]int{"reveal_index": 0})
		}
	}

	// 9. All clients see the round winner with one point
	for i, rec := range recorders {
		data := rec.WaitFor(t, OpRoundWon, 5*time.Second)
		var ev roundWonEvent
		if err := json.Unmarshal(data.Data, &ev); err != nil {
			t.Fatalf("Client %d failed to decode RoundWon: %v", i, err)
		}
		if ev.WinnerID == round.JudgeID {
			t.Errorf("Client %d saw the judge win its own round", i)
		}
		if ev.WinnerScore != 1 {
			t.Errorf("Client %d expected winner score 1, got %d", i, ev.WinnerScore)
		}
	}

	t.Log("Test passed: full round played to a winner")
}
