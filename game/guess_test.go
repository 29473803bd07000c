package game

import (
	"context"
	"errors"
	"testing"

	"github.com/wfunc/spyarena/agent"
)

func TestSpyGuessManager_Declined(t *testing.T) {
	players := []string{"A", "B", "C"}
	cfg := newTestConfig(players, []string{"Bank", "Beach"}, 1)
	m := NewSpyGuessManager(quietRoster(players), newTestBuilder(t, cfg), cfg.Locations)

	round := newTestRound(players, "B", "Bank")
	guess, err := m.CheckGuess(context.Background(), round, "B")
	if err != nil {
		t.Fatalf("CheckGuess failed: %v", err)
	}
	if guess != nil {
		t.Errorf("Declined guess must return nil, got %+v", guess)
	}
}

func TestSpyGuessManager_CorrectGuess(t *testing.T) {
	players := []string{"A", "B", "C"}
	cfg := newTestConfig(players, []string{"Bank", "Beach"}, 1)

	roster := quietRoster(players)
	roster["B"] = &scriptedAgent{
		considerGuess: func(p agent.Prompt) (agent.GuessResponse, error) {
			return agent.GuessResponse{MakeGuess: true, LocationGuess: "  bank "}, nil
		},
	}
	m := NewSpyGuessManager(roster, newTestBuilder(t, cfg), cfg.Locations)

	round := newTestRound(players, "B", "Bank")
	guess, err := m.CheckGuess(context.Background(), round, "B")
	if err != nil {
		t.Fatalf("CheckGuess failed: %v", err)
	}
	if guess == nil {
		t.Fatal("Expected a guess")
	}
	if !guess.Correct {
		t.Error("Case and whitespace differences must not fail a correct guess")
	}
	if guess.ActualLocation != "Bank" || guess.SpyNickname != "B" {
		t.Errorf("Unexpected guess record %+v", guess)
	}
}

func TestSpyGuessManager_WrongGuess(t *testing.T) {
	players := []string{"A", "B", "C"}
	cfg := newTestConfig(players, []string{"Bank", "Beach"}, 1)

	roster := quietRoster(players)
	roster["C"] = &scriptedAgent{
		considerGuess: func(p agent.Prompt) (agent.GuessResponse, error) {
			return agent.GuessResponse{MakeGuess: true, LocationGuess: "Beach"}, nil
		},
	}
	m := NewSpyGuessManager(roster, newTestBuilder(t, cfg), cfg.Locations)

	round := newTestRound(players, "C", "Bank")
	guess, err := m.CheckGuess(context.Background(), round, "C")
	if err != nil {
		t.Fatalf("CheckGuess failed: %v", err)
	}
	if guess == nil || guess.Correct {
		t.Errorf("Expected an incorrect guess record, got %+v", guess)
	}
}

func TestSpyGuessManager_RejectsNonSpy(t *testing.T) {
	players := []string{"A", "B", "C"}
	cfg := newTestConfig(players, []string{"Bank"}, 1)
	m := NewSpyGuessManager(quietRoster(players), newTestBuilder(t, cfg), cfg.Locations)

	round := newTestRound(players, "B", "Bank")
	_, err := m.CheckGuess(context.Background(), round, "A")
	if !errors.Is(err, ErrNotSpy) {
		t.Fatalf("Expected ErrNotSpy, got %v", err)
	}
}
