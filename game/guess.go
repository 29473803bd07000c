package game

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wfunc/spyarena/agent"
	"github.com/wfunc/spyarena/models"
	"github.com/wfunc/spyarena/prompts"
)

// SpyGuessManager gives the spy their one chance to end the round with a
// location guess.
type SpyGuessManager struct {
	roster    agent.Roster
	builder   *prompts.Builder
	locations []string
}

func NewSpyGuessManager(roster agent.Roster, builder *prompts.Builder, locations []string) *SpyGuessManager {
	return &SpyGuessManager{roster: roster, builder: builder, locations: locations}
}

// CheckGuess asks the spy whether they want to guess. It returns nil when
// the spy declines. A returned guess always ends the round regardless of
// correctness; there are no retries.
func (m *SpyGuessManager) CheckGuess(ctx context.Context, round *models.RoundState, current string) (*models.SpyGuess, error) {
	if !round.Roles[current].IsSpy {
		return nil, fmt.Errorf("%w: %s", ErrNotSpy, current)
	}

	resp, err := m.roster[current].ConsiderGuess(ctx, agent.Prompt{
		System: m.builder.System(),
		User:   m.builder.RolePrompt(round.Roles[current]) + "\n" + m.builder.SpyGuessPrompt(round.Turns, m.locations),
	})
	if err != nil {
		return nil, fmt.Errorf("spy guess by %s: %w", current, err)
	}
	if !resp.MakeGuess {
		return nil, nil
	}

	return &models.SpyGuess{
		SpyNickname:     current,
		GuessedLocation: resp.LocationGuess,
		ActualLocation:  round.Location,
		Correct:         locationsMatch(resp.LocationGuess, round.Location),
		Timestamp:       time.Now().UTC(),
	}, nil
}

// locationsMatch compares case-normalized, trimmed location names.
func locationsMatch(guess, actual string) bool {
	return strings.EqualFold(strings.TrimSpace(guess), strings.TrimSpace(actual))
}
