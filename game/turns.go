package game

import (
	"context"
	"fmt"
	"time"

	"github.com/wfunc/spyarena/agent"
	"github.com/wfunc/spyarena/models"
	"github.com/wfunc/spyarena/prompts"
)

// TurnManager drives the question-and-answer exchange for one turn and
// enforces the no-retaliation rule.
type TurnManager struct {
	roster  agent.Roster
	builder *prompts.Builder
	players []string
}

func NewTurnManager(roster agent.Roster, builder *prompts.Builder, players []string) *TurnManager {
	return &TurnManager{roster: roster, builder: builder, players: players}
}

// ValidTargets lists who the asker may question: everyone except the asker
// themselves and the player who just questioned them. The first turn of a
// round has no previous asker and therefore no retaliation restriction.
func (m *TurnManager) ValidTargets(asker, previousAsker string) []string {
	targets := make([]string, 0, len(m.players)-1)
	for _, p := range m.players {
		if p == asker || p == previousAsker {
			continue
		}
		targets = append(targets, p)
	}
	return targets
}

// ExecuteTurn asks the current asker for a question, validates the chosen
// target, and collects the target's answer. It does not mutate the round;
// callers record the returned turn with RecordTurn.
func (m *TurnManager) ExecuteTurn(ctx context.Context, round *models.RoundState) (models.Turn, error) {
	asker := round.CurrentAsker
	targets := m.ValidTargets(asker, round.PreviousAsker)

	system := m.builder.System()
	rolePrompt := m.builder.RolePrompt(round.Roles[asker])
	question, err := m.roster[asker].AskQuestion(ctx, agent.Prompt{
		System: system,
		User:   rolePrompt + "\n" + m.builder.QuestionPrompt(round.Turns, targets),
	})
	if err != nil {
		return models.Turn{}, fmt.Errorf("asker %s: %w", asker, err)
	}

	if !contains(targets, question.TargetNickname) {
		return models.Turn{}, fmt.Errorf("%w: %s chose %q", ErrInvalidTarget, asker, question.TargetNickname)
	}

	answerRole := m.builder.RolePrompt(round.Roles[question.TargetNickname])
	answer, err := m.roster[question.TargetNickname].Answer(ctx, agent.Prompt{
		System: system,
		User:   answerRole + "\n" + m.builder.AnswerPrompt(round.Turns, asker, question.Question),
	})
	if err != nil {
		return models.Turn{}, fmt.Errorf("answerer %s: %w", question.TargetNickname, err)
	}

	return models.Turn{
		TurnNumber: len(round.Turns) + 1,
		Asker:      asker,
		Answerer:   question.TargetNickname,
		Question:   question.Question,
		Answer:     answer.Answer,
		Timestamp:  time.Now().UTC(),
	}, nil
}

// RecordTurn appends the turn and rotates the asker: the answerer of turn k
// becomes the asker of turn k+1.
func (m *TurnManager) RecordTurn(round *models.RoundState, turn models.Turn) {
	round.Turns = append(round.Turns, turn)
	round.PreviousAsker = turn.Asker
	round.CurrentAsker = turn.Answerer
}

// RecordSkippedTurn appends a skip marker for an asker whose exchange could
// not be completed and hands the floor to the next player in roster order.
// The skipped exchange questioned nobody, so the incoming asker carries no
// retaliation restriction.
func (m *TurnManager) RecordSkippedTurn(round *models.RoundState, asker, question, answerer string) {
	round.Turns = append(round.Turns, models.Turn{
		TurnNumber: len(round.Turns) + 1,
		Asker:      asker,
		Answerer:   answerer,
		Question:   question,
		Skipped:    true,
		Timestamp:  time.Now().UTC(),
	})
	round.PreviousAsker = ""
	round.CurrentAsker = m.nextInRoster(asker)
}

func (m *TurnManager) nextInRoster(nickname string) string {
	for i, p := range m.players {
		if p == nickname {
			return m.players[(i+1)%len(m.players)]
		}
	}
	return m.players[0]
}

func contains(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}
