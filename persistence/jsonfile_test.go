package persistence

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wfunc/spyarena/models"
)

func sampleGameState(gameID string) *models.GameState {
	completed := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	return &models.GameState{
		GameID: gameID,
		Status: models.StatusSuccess,
		Winner: "C",
		PlayerScores: map[string]int{
			"A": 1, "B": 1, "C": 2, "D": 0,
		},
		Rounds: []*models.RoundState{{
			RoundNumber:     1,
			Location:        "Bank",
			SpyNickname:     "D",
			EndingCondition: models.EndingIndictment,
			RoundScores:     map[string]int{"A": 1, "B": 1, "C": 2, "D": 0},
		}},
		StartedAt:   completed.Add(-5 * time.Minute),
		CompletedAt: &completed,
	}
}

func TestJSONFileSink_SaveAndLoad(t *testing.T) {
	sink, err := NewJSONFileSink(t.TempDir())
	if err != nil {
		t.Fatalf("NewJSONFileSink failed: %v", err)
	}

	gs := sampleGameState("game_test1")
	if err := sink.SaveGameState(gs); err != nil {
		t.Fatalf("SaveGameState failed: %v", err)
	}

	loaded, err := sink.LoadGameState("game_test1")
	if err != nil {
		t.Fatalf("LoadGameState failed: %v", err)
	}
	if loaded.GameID != gs.GameID || loaded.Winner != gs.Winner {
		t.Errorf("Round trip lost data: %+v", loaded)
	}
	if len(loaded.Rounds) != 1 || loaded.Rounds[0].SpyNickname != "D" {
		t.Errorf("Round data lost: %+v", loaded.Rounds)
	}
	if loaded.PlayerScores["C"] != 2 {
		t.Errorf("Expected C's score 2, got %d", loaded.PlayerScores["C"])
	}
}

func TestJSONFileSink_LoadMissing(t *testing.T) {
	sink, err := NewJSONFileSink(t.TempDir())
	if err != nil {
		t.Fatalf("NewJSONFileSink failed: %v", err)
	}

	_, err = sink.LoadGameState("game_nope")
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("Expected ErrRecordNotFound, got %v", err)
	}
}

func TestJSONFileSink_ListGameIDs(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewJSONFileSink(dir)
	if err != nil {
		t.Fatalf("NewJSONFileSink failed: %v", err)
	}

	for _, id := range []string{"game_a", "game_b"} {
		if err := sink.SaveGameState(sampleGameState(id)); err != nil {
			t.Fatalf("SaveGameState(%s) failed: %v", id, err)
		}
	}
	// Stray files are not game records.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("Failed to write stray file: %v", err)
	}

	ids, err := sink.ListGameIDs()
	if err != nil {
		t.Fatalf("ListGameIDs failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("Expected 2 game IDs, got %v", ids)
	}
}

func TestJSONFileSink_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewJSONFileSink(dir)
	if err != nil {
		t.Fatalf("NewJSONFileSink failed: %v", err)
	}
	if err := sink.SaveGameState(sampleGameState("game_tmp")); err != nil {
		t.Fatalf("SaveGameState failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".tmp" {
			t.Errorf("Temp file left behind: %s", entry.Name())
		}
	}
}

func TestMultiSink_FanOut(t *testing.T) {
	first, err := NewJSONFileSink(t.TempDir())
	if err != nil {
		t.Fatalf("NewJSONFileSink failed: %v", err)
	}
	second, err := NewJSONFileSink(t.TempDir())
	if err != nil {
		t.Fatalf("NewJSONFileSink failed: %v", err)
	}

	multi := MultiSink{first, second}
	if err := multi.SaveGameState(sampleGameState("game_multi")); err != nil {
		t.Fatalf("MultiSink save failed: %v", err)
	}

	for i, sink := range []Sink{first, second} {
		if _, err := sink.LoadGameState("game_multi"); err != nil {
			t.Errorf("Sink %d did not receive the record: %v", i, err)
		}
	}
	if _, err := multi.LoadGameState("game_multi"); err != nil {
		t.Errorf("MultiSink load failed: %v", err)
	}
}
