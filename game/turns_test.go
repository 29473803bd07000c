package game

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/wfunc/spyarena/agent"
	"github.com/wfunc/spyarena/models"
)

func newTestRound(players []string, spy, location string) *models.RoundState {
	roles := make(map[string]models.Role, len(players))
	for _, nickname := range players {
		if nickname == spy {
			roles[nickname] = models.Role{IsSpy: true}
		} else {
			roles[nickname] = models.Role{IsSpy: false, Location: location}
		}
	}
	return &models.RoundState{
		RoundNumber:    1,
		Location:       location,
		SpyNickname:    spy,
		Roles:          roles,
		RoundScores:    make(map[string]int),
		VoteInitiators: make(map[string]bool),
	}
}

func TestTurnManager_ValidTargets(t *testing.T) {
	players := []string{"A", "B", "C", "D"}
	cfg := newTestConfig(players, []string{"Bank"}, 1)
	m := NewTurnManager(quietRoster(players), newTestBuilder(t, cfg), players)

	tests := []struct {
		name          string
		asker         string
		previousAsker string
		want          []string
	}{
		{"first turn has no retaliation rule", "A", "", []string{"B", "C", "D"}},
		{"previous asker excluded", "B", "A", []string{"C", "D"}},
		{"asker always excluded", "C", "D", []string{"A", "B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.ValidTargets(tt.asker, tt.previousAsker)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected targets %v, got %v", tt.want, got)
			}
		})
	}
}

func TestTurnManager_ExecuteTurn(t *testing.T) {
	players := []string{"A", "B", "C"}
	cfg := newTestConfig(players, []string{"Bank"}, 1)
	builder := newTestBuilder(t, cfg)

	roster := quietRoster(players)
	roster["A"] = &scriptedAgent{
		askQuestion: func(p agent.Prompt) (agent.QuestionResponse, error) {
			return agent.QuestionResponse{TargetNickname: "C", Question: "How long was your commute?"}, nil
		},
	}
	roster["C"] = &scriptedAgent{
		answer: func(p agent.Prompt) (agent.AnswerResponse, error) {
			return agent.AnswerResponse{Answer: "About twenty minutes."}, nil
		},
	}

	m := NewTurnManager(roster, builder, players)
	round := newTestRound(players, "B", "Bank")
	round.CurrentAsker = "A"

	turn, err := m.ExecuteTurn(context.Background(), round)
	if err != nil {
		t.Fatalf("ExecuteTurn failed: %v", err)
	}

	if turn.Asker != "A" || turn.Answerer != "C" {
		t.Errorf("Expected A -> C exchange, got %s -> %s", turn.Asker, turn.Answerer)
	}
	if turn.Answer != "About twenty minutes." {
		t.Errorf("Unexpected answer %q", turn.Answer)
	}
	if turn.TurnNumber != 1 {
		t.Errorf("Expected turn number 1, got %d", turn.TurnNumber)
	}
	if len(round.Turns) != 0 {
		t.Error("ExecuteTurn must not mutate the round")
	}
}

func TestTurnManager_ExecuteTurn_InvalidTarget(t *testing.T) {
	players := []string{"A", "B", "C"}
	cfg := newTestConfig(players, []string{"Bank"}, 1)

	roster := quietRoster(players)
	roster["B"] = &scriptedAgent{
		askQuestion: func(p agent.Prompt) (agent.QuestionResponse, error) {
			// Retaliation against the player who just asked B.
			return agent.QuestionResponse{TargetNickname: "A", Question: "Why so curious?"}, nil
		},
	}

	m := NewTurnManager(roster, newTestBuilder(t, cfg), players)
	round := newTestRound(players, "C", "Bank")
	round.CurrentAsker = "B"
	round.PreviousAsker = "A"

	_, err := m.ExecuteTurn(context.Background(), round)
	if !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("Expected ErrInvalidTarget, got %v", err)
	}
}

func TestTurnManager_RecordTurn_RotatesAsker(t *testing.T) {
	players := []string{"A", "B", "C"}
	cfg := newTestConfig(players, []string{"Bank"}, 1)
	m := NewTurnManager(quietRoster(players), newTestBuilder(t, cfg), players)

	round := newTestRound(players, "C", "Bank")
	round.CurrentAsker = "A"

	m.RecordTurn(round, models.Turn{TurnNumber: 1, Asker: "A", Answerer: "B"})

	if round.CurrentAsker != "B" {
		t.Errorf("Answerer should become the next asker, got %s", round.CurrentAsker)
	}
	if round.PreviousAsker != "A" {
		t.Errorf("Expected previous asker A, got %s", round.PreviousAsker)
	}
	if len(round.Turns) != 1 {
		t.Fatalf("Expected 1 recorded turn, got %d", len(round.Turns))
	}
}

func TestTurnManager_RecordSkippedTurn(t *testing.T) {
	players := []string{"A", "B", "C"}
	cfg := newTestConfig(players, []string{"Bank"}, 1)
	m := NewTurnManager(quietRoster(players), newTestBuilder(t, cfg), players)

	round := newTestRound(players, "C", "Bank")
	round.CurrentAsker = "B"
	round.PreviousAsker = "A"

	m.RecordSkippedTurn(round, "B", "", "")

	if len(round.Turns) != 1 || !round.Turns[0].Skipped {
		t.Fatal("Expected one skipped turn marker")
	}
	if round.CurrentAsker != "C" {
		t.Errorf("Floor should pass to the next player in roster order, got %s", round.CurrentAsker)
	}
	if round.PreviousAsker != "" {
		t.Errorf("Skipped exchange must clear the retaliation restriction, got %q", round.PreviousAsker)
	}

	// The last roster member wraps around to the first.
	m.RecordSkippedTurn(round, "C", "", "")
	if round.CurrentAsker != "A" {
		t.Errorf("Expected wraparound to A, got %s", round.CurrentAsker)
	}
}
