package game

import (
	"context"
	"fmt"
	"time"

	"github.com/wfunc/spyarena/agent"
	"github.com/wfunc/spyarena/models"
	"github.com/wfunc/spyarena/prompts"
)

// VotingManager runs indictment votes: one initiation per player per round,
// ballots collected as if simultaneous, strict unanimity to pass.
type VotingManager struct {
	roster  agent.Roster
	builder *prompts.Builder
	players []string
}

// BallotFailure records one player whose ballot could not be collected.
// Their ballot is counted as no; the failure is surfaced so the caller can
// log it, never silently dropped.
type BallotFailure struct {
	Player string
	Err    error
}

func NewVotingManager(roster agent.Roster, builder *prompts.Builder, players []string) *VotingManager {
	return &VotingManager{roster: roster, builder: builder, players: players}
}

// CheckInitiation asks the current player whether they want to open a vote.
// It returns the validated suspect, or ok=false when the player declines.
func (m *VotingManager) CheckInitiation(ctx context.Context, round *models.RoundState, current string) (string, bool, error) {
	canVote := !round.VoteInitiators[current]

	resp, err := m.roster[current].ConsiderVote(ctx, agent.Prompt{
		System: m.builder.System(),
		User:   m.builder.RolePrompt(round.Roles[current]) + "\n" + m.builder.VoteInitiationPrompt(round.Turns, canVote),
	})
	if err != nil {
		return "", false, fmt.Errorf("vote initiation by %s: %w", current, err)
	}
	if !resp.InitiateVote {
		return "", false, nil
	}

	if !canVote {
		return "", false, fmt.Errorf("%w: %s", ErrDuplicateVoteInitiation, current)
	}
	if resp.SuspectNickname == current {
		return "", false, fmt.Errorf("%w: %s", ErrSelfIndictment, current)
	}
	if _, known := round.Roles[resp.SuspectNickname]; !known {
		return "", false, fmt.Errorf("%w: %q", ErrUnknownSuspect, resp.SuspectNickname)
	}
	return resp.SuspectNickname, true, nil
}

// ConductVote collects one ballot from every player, in roster order
// starting from the initiator, and applies the unanimity rule. No ballot is
// revealed to any player before all are collected: each ballot prompt
// carries only the suspect and the public conversation. A player whose
// agent fails both attempts is counted as voting no, reported in the
// returned failures.
//
// The initiator is marked as having spent their one initiation regardless
// of the outcome.
func (m *VotingManager) ConductVote(ctx context.Context, round *models.RoundState, initiator, suspect string) (models.VoteAttempt, []BallotFailure) {
	if round.VoteInitiators == nil {
		round.VoteInitiators = make(map[string]bool)
	}
	round.VoteInitiators[initiator] = true

	ballots := make(map[string]bool, len(m.players))
	var failures []BallotFailure

	system := m.builder.System()
	for _, voter := range m.ballotOrder(initiator) {
		resp, err := m.roster[voter].CastBallot(ctx, agent.Prompt{
			System: system,
			User:   m.builder.RolePrompt(round.Roles[voter]) + "\n" + m.builder.VoteDecisionPrompt(round.Turns, initiator, suspect),
		})
		if err != nil {
			ballots[voter] = false
			failures = append(failures, BallotFailure{Player: voter, Err: err})
			continue
		}
		ballots[voter] = resp.VoteYes
	}

	passed := true
	for _, yes := range ballots {
		if !yes {
			passed = false
			break
		}
	}

	attempt := models.VoteAttempt{
		Initiator: initiator,
		Suspect:   suspect,
		Ballots:   ballots,
		Passed:    passed,
		Timestamp: time.Now().UTC(),
	}
	round.Votes = append(round.Votes, attempt)
	return attempt, failures
}

// ballotOrder is roster order rotated to start at the initiator, which
// keeps ballot collection deterministic for a fixed roster.
func (m *VotingManager) ballotOrder(initiator string) []string {
	start := 0
	for i, p := range m.players {
		if p == initiator {
			start = i
			break
		}
	}
	order := make([]string, 0, len(m.players))
	for i := 0; i < len(m.players); i++ {
		order = append(order, m.players[(start+i)%len(m.players)])
	}
	return order
}
