// Package agent defines the engine's view of a player's backing model and
// an OpenRouter-compatible client implementing it. The engine treats every
// agent as a black-box call with bounded latency; model identity and prompt
// phrasing never leak back into the rules layer.
package agent

import (
	"context"
	"errors"
)

// Prompt is the fully assembled input for one agent call. The engine never
// inspects it; the prompts package owns its contents.
type Prompt struct {
	System string
	User   string
}

// QuestionResponse is an asker's chosen target and question.
type QuestionResponse struct {
	TargetNickname string `json:"target_nickname"`
	Question       string `json:"question"`
}

// AnswerResponse is an answerer's reply.
type AnswerResponse struct {
	Answer string `json:"answer"`
}

// VoteInitiationResponse is a player's decision on opening an indictment
// vote. SuspectNickname is only meaningful when InitiateVote is set.
type VoteInitiationResponse struct {
	InitiateVote    bool   `json:"initiate_vote"`
	SuspectNickname string `json:"suspect_nickname,omitempty"`
}

// BallotResponse is a single yes/no ballot.
type BallotResponse struct {
	VoteYes bool `json:"vote_yes"`
}

// GuessResponse is the spy's decision on guessing the location.
type GuessResponse struct {
	MakeGuess     bool   `json:"make_guess"`
	LocationGuess string `json:"location_guess,omitempty"`
}

// Capability is the per-player action interface consumed by the round
// engine: one method per requested action type.
type Capability interface {
	AskQuestion(ctx context.Context, p Prompt) (QuestionResponse, error)
	Answer(ctx context.Context, p Prompt) (AnswerResponse, error)
	ConsiderVote(ctx context.Context, p Prompt) (VoteInitiationResponse, error)
	CastBallot(ctx context.Context, p Prompt) (BallotResponse, error)
	ConsiderGuess(ctx context.Context, p Prompt) (GuessResponse, error)
}

// Roster maps player nicknames to their capabilities.
type Roster map[string]Capability

var (
	// ErrUnavailable means the agent call failed after all retries. The
	// caller records a skipped action and proceeds.
	ErrUnavailable = errors.New("agent unavailable")
	// ErrMalformedResponse means the agent replied with output the engine
	// could not parse into the requested action.
	ErrMalformedResponse = errors.New("malformed agent response")
)
