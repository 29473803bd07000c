// services derives downstream statistics from completed games. Nothing
// here feeds back into the engine.
package services

import (
	"github.com/wfunc/spyarena/game"
	"github.com/wfunc/spyarena/models"
	"github.com/wfunc/spyarena/persistence"
)

// GameSummary is the per-game analytics record.
type GameSummary struct {
	GameID          string            `json:"game_id"`
	Status          models.GameStatus `json:"status"`
	Winner          string            `json:"winner"`
	RoundsPlayed    int               `json:"rounds_played"`
	SpyRoundWins    int               `json:"spy_round_wins"`
	CivilianWins    int               `json:"civilian_round_wins"`
	VoteAccuracy    float64           `json:"vote_accuracy"`
	AvgAnswerLength float64           `json:"avg_answer_length"`
	SkippedActions  int               `json:"skipped_actions"`
}

// Summarize computes the analytics for one finished game.
func Summarize(gs *models.GameState) GameSummary {
	summary := GameSummary{
		GameID:       gs.GameID,
		Status:       gs.Status,
		Winner:       gs.Winner,
		RoundsPlayed: len(gs.Rounds),
	}

	votesTotal := 0
	votesOnSpy := 0
	answerChars := 0
	answers := 0

	for _, round := range gs.Rounds {
		switch round.EndingCondition {
		case models.EndingIndictment:
			summary.CivilianWins++
		case models.EndingWrongIndictment, models.EndingTurnLimit:
			summary.SpyRoundWins++
		case models.EndingSpyGuess:
			if round.SpyGuess != nil && round.SpyGuess.Correct {
				summary.SpyRoundWins++
			} else {
				summary.CivilianWins++
			}
		}

		for _, vote := range round.Votes {
			votesTotal++
			if vote.Suspect == round.SpyNickname {
				votesOnSpy++
			}
		}

		for _, turn := range round.Turns {
			if turn.Skipped {
				continue
			}
			answerChars += len(turn.Answer)
			answers++
		}
	}

	for _, gameErr := range gs.Errors {
		if gameErr.Recovered && gameErr.Type == game.ErrTypeAgentUnavailable {
			summary.SkippedActions++
		}
	}

	if votesTotal > 0 {
		summary.VoteAccuracy = float64(votesOnSpy) / float64(votesTotal)
	}
	if answers > 0 {
		summary.AvgAnswerLength = float64(answerChars) / float64(answers)
	}
	return summary
}

// AnalyticsService aggregates summaries over a persistence sink.
type AnalyticsService struct {
	sink persistence.Sink
}

func NewAnalyticsService(sink persistence.Sink) *AnalyticsService {
	return &AnalyticsService{sink: sink}
}

// SummarizeStored summarizes every stored game in storage order.
func (s *AnalyticsService) SummarizeStored() ([]GameSummary, error) {
	ids, err := s.sink.ListGameIDs()
	if err != nil {
		return nil, err
	}

	summaries := make([]GameSummary, 0, len(ids))
	for _, id := range ids {
		gs, err := s.sink.LoadGameState(id)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, Summarize(gs))
	}
	return summaries, nil
}
