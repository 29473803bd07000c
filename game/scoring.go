package game

import "github.com/wfunc/spyarena/models"

// Point values per round outcome.
const (
	pointsSpySurvived    = 2
	pointsSpyEscaped     = 4
	pointsCivilianCatch  = 1
	pointsInitiatorCatch = 2
)

// ScoringEngine turns a finished round into per-player point deltas. It is
// a pure function of the round record and is applied exactly once per round.
type ScoringEngine struct{}

// Score applies the outcome table:
//
//	spy guessed the location correctly -> spy +4
//	a civilian was indicted            -> spy +4
//	spy indicted                       -> civilians +1, initiator +2, spy 0
//	anything else (turn limit, missed guess) -> spy +2
func (ScoringEngine) Score(round *models.RoundState) map[string]int {
	scores := make(map[string]int, len(round.Roles))
	for nickname := range round.Roles {
		scores[nickname] = 0
	}

	spy := round.SpyNickname
	passed := round.PassedVote()

	switch {
	case round.SpyGuess != nil && round.SpyGuess.Correct:
		scores[spy] = pointsSpyEscaped
	case passed != nil && passed.Suspect == spy:
		for _, civilian := range round.Civilians() {
			scores[civilian] = pointsCivilianCatch
		}
		if passed.Initiator != spy {
			scores[passed.Initiator] = pointsInitiatorCatch
		}
	case passed != nil:
		scores[spy] = pointsSpyEscaped
	default:
		scores[spy] = pointsSpySurvived
	}

	return scores
}

// Winner returns the player with the strictly greatest cumulative total, or
// NoSingleWinner when the top score is shared.
func Winner(totals map[string]int) string {
	var best string
	bestScore := 0
	tied := false
	first := true
	for nickname, score := range totals {
		switch {
		case first || score > bestScore:
			best, bestScore, tied, first = nickname, score, false, false
		case score == bestScore:
			tied = true
		}
	}
	if tied || best == "" {
		return models.NoSingleWinner
	}
	return best
}
