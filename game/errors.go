package game

import (
	"errors"

	"github.com/wfunc/spyarena/agent"
)

var (
	// ErrTooFewPlayers means the roster cannot support a spy plus two
	// civilians.
	ErrTooFewPlayers = errors.New("at least 3 players are required")
	// ErrNoLocations means the location pool is empty.
	ErrNoLocations = errors.New("location list cannot be empty")
	// ErrInvalidTarget means an asker picked a target outside their valid
	// target list.
	ErrInvalidTarget = errors.New("invalid question target")
	// ErrDuplicateVoteInitiation means a player tried to open a second
	// vote in the same round.
	ErrDuplicateVoteInitiation = errors.New("player already initiated a vote this round")
	// ErrSelfIndictment means a player tried to open a vote against
	// themselves.
	ErrSelfIndictment = errors.New("player cannot indict themselves")
	// ErrUnknownSuspect means the named suspect is not in the round.
	ErrUnknownSuspect = errors.New("suspect is not a player in this round")
	// ErrNotSpy means a location guess came from a non-spy player.
	ErrNotSpy = errors.New("only the spy may guess the location")
)

// Error type labels used in recorded GameError entries.
const (
	ErrTypeConfiguration          = "configuration"
	ErrTypeAgentUnavailable       = "agent_unavailable"
	ErrTypeMalformedResponse      = "malformed_response"
	ErrTypeInvalidTarget          = "invalid_target"
	ErrTypeDuplicateVoteInit      = "duplicate_vote_initiation"
	ErrTypeSelfIndictment         = "self_indictment"
	ErrTypeInvalidStateTransition = "invalid_state_transition"
	ErrTypeCanceled               = "canceled"
)

// ruleViolation reports whether an error is a misbehaving-agent rule
// violation, which the orchestrator answers with one re-prompt and then a
// skip, never an abort.
func ruleViolation(err error) bool {
	return errors.Is(err, ErrInvalidTarget) ||
		errors.Is(err, ErrDuplicateVoteInitiation) ||
		errors.Is(err, ErrSelfIndictment) ||
		errors.Is(err, ErrUnknownSuspect)
}

// errType maps an engine error to its recorded label.
func errType(err error) string {
	switch {
	case errors.Is(err, ErrInvalidTarget), errors.Is(err, ErrUnknownSuspect):
		return ErrTypeInvalidTarget
	case errors.Is(err, ErrDuplicateVoteInitiation):
		return ErrTypeDuplicateVoteInit
	case errors.Is(err, ErrSelfIndictment):
		return ErrTypeSelfIndictment
	case errors.Is(err, agent.ErrMalformedResponse):
		return ErrTypeMalformedResponse
	default:
		return ErrTypeAgentUnavailable
	}
}
