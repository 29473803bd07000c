// models holds the serializable record of a game: everything the engine
// produces ends up in a GameState, which the persistence sinks write out
// verbatim.
package models

import (
	"time"

	"github.com/wfunc/spyarena/state"
)

// Role is one player's secret for one round. For civilians Location holds
// the round's location; for the spy it is always empty.
type Role struct {
	IsSpy    bool   `json:"is_spy"`
	Location string `json:"location,omitempty"`
}

// Turn is one completed question-and-answer exchange. A skipped turn records
// an asker whose agent failed both attempts; it carries no answerer.
type Turn struct {
	TurnNumber int       `json:"turn_number"`
	Asker      string    `json:"asker"`
	Answerer   string    `json:"answerer,omitempty"`
	Question   string    `json:"question,omitempty"`
	Answer     string    `json:"answer,omitempty"`
	Skipped    bool      `json:"skipped,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// VoteAttempt records one indictment vote. Ballots maps every player,
// including initiator and suspect, to their vote.
type VoteAttempt struct {
	Initiator string          `json:"initiator"`
	Suspect   string          `json:"suspect"`
	Ballots   map[string]bool `json:"ballots"`
	Passed    bool            `json:"passed"`
	Timestamp time.Time       `json:"timestamp"`
}

// SpyGuess records the spy's single location guess for a round.
type SpyGuess struct {
	SpyNickname     string    `json:"spy_nickname"`
	GuessedLocation string    `json:"guessed_location"`
	ActualLocation  string    `json:"actual_location"`
	Correct         bool      `json:"correct"`
	Timestamp       time.Time `json:"timestamp"`
}

// EndingCondition names the event that terminated a round.
type EndingCondition string

const (
	EndingIndictment      EndingCondition = "indictment"
	EndingWrongIndictment EndingCondition = "wrong_indictment_absorbed"
	EndingSpyGuess        EndingCondition = "spy_guess"
	EndingTurnLimit       EndingCondition = "turn_limit"
)

// GameError is one recorded failure. Recovered errors let the game continue;
// unrecovered ones abort it.
type GameError struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Player    string    `json:"player,omitempty"`
	Round     int       `json:"round,omitempty"`
	Turn      int       `json:"turn,omitempty"`
	Recovered bool      `json:"recovered"`
	Timestamp time.Time `json:"timestamp"`
}

// RoundState is the full record of one round. It is mutated only by the
// round's owning coordinators and becomes immutable once Phase reaches
// completed.
type RoundState struct {
	RoundNumber     int             `json:"round_number"`
	Phase           state.Phase     `json:"phase"`
	Location        string          `json:"location"`
	SpyNickname     string          `json:"spy_nickname"`
	Roles           map[string]Role `json:"roles"`
	Turns           []Turn          `json:"turns"`
	Votes           []VoteAttempt   `json:"votes"`
	SpyGuess        *SpyGuess       `json:"spy_guess,omitempty"`
	EndingCondition EndingCondition `json:"ending_condition,omitempty"`
	RoundScores     map[string]int  `json:"round_scores"`
	CurrentAsker    string          `json:"current_asker,omitempty"`
	PreviousAsker   string          `json:"previous_asker,omitempty"`
	VoteInitiators  map[string]bool `json:"vote_initiators,omitempty"`
}

// GameStatus is the overall outcome of a run.
type GameStatus string

const (
	// StatusSuccess means every round completed with no skipped actions.
	StatusSuccess GameStatus = "success"
	// StatusPartialSuccess means the game completed but one or more
	// actions were skipped after a failed agent call.
	StatusPartialSuccess GameStatus = "partial_success"
	// StatusError means the game aborted before completing all rounds.
	StatusError GameStatus = "error"
)

// NoSingleWinner is reported when the top cumulative score is shared.
const NoSingleWinner = "no_single_winner"

// ConfigSnapshot pins the inputs a run was produced from, so a recorded
// game can be reproduced bit-for-bit.
type ConfigSnapshot struct {
	NumRounds        int      `json:"num_rounds"`
	MaxTurnsPerRound int      `json:"max_turns_per_round"`
	RandomSeed       int64    `json:"random_seed"`
	FirstAsker       string   `json:"first_asker,omitempty"`
	Players          []string `json:"players"`
	Locations        []string `json:"locations"`
}

// GameState is the record of a whole game run.
type GameState struct {
	GameID       string         `json:"game_id"`
	Config       ConfigSnapshot `json:"config"`
	Phase        state.Phase    `json:"phase"`
	Status       GameStatus     `json:"status"`
	CurrentRound int            `json:"current_round"`
	Rounds       []*RoundState  `json:"rounds"`
	PlayerScores map[string]int `json:"player_scores"`
	Winner       string         `json:"winner,omitempty"`
	Errors       []GameError    `json:"errors,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

// Civilians returns the non-spy nicknames of a round in no particular order.
func (r *RoundState) Civilians() []string {
	civ := make([]string, 0, len(r.Roles)-1)
	for nickname, role := range r.Roles {
		if !role.IsSpy {
			civ = append(civ, nickname)
		}
	}
	return civ
}

// PassedVote returns the round's successful vote attempt, if any.
func (r *RoundState) PassedVote() *VoteAttempt {
	for i := range r.Votes {
		if r.Votes[i].Passed {
			return &r.Votes[i]
		}
	}
	return nil
}
