package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/spyarena/agent"
	"github.com/wfunc/spyarena/config"
	"github.com/wfunc/spyarena/logger"
	"github.com/wfunc/spyarena/models"
	"github.com/wfunc/spyarena/prompts"
	"github.com/wfunc/spyarena/state"
)

// Metrics receives engine counters. The monitor package implements it; a
// nil Metrics disables observation.
type Metrics interface {
	IncRoundsCompleted()
	IncVotesConducted()
	IncSkippedActions()
	IncGamesCompleted(status string)
}

// Orchestrator drives a complete game: N sequential rounds, each with a
// fresh role assignment and phase machine, cumulative scoring across
// rounds, and a final winner determination.
type Orchestrator struct {
	cfg         *config.Config
	players     []string
	rng         *rand.Rand
	roles       *RoleAssigner
	turns       *TurnManager
	votes       *VotingManager
	guesses     *SpyGuessManager
	scoring     ScoringEngine
	broadcaster Broadcaster
	metrics     Metrics

	skipped bool
}

// NewOrchestrator wires the engine. All randomness flows from the config
// seed through one rng, so a fixed seed reproduces the whole game.
func NewOrchestrator(cfg *config.Config, roster agent.Roster, builder *prompts.Builder, broadcaster Broadcaster, metrics Metrics) *Orchestrator {
	if broadcaster == nil {
		broadcaster = NopBroadcaster{}
	}
	players := cfg.Nicknames()
	rng := rand.New(rand.NewSource(*cfg.Game.RandomSeed))

	return &Orchestrator{
		cfg:         cfg,
		players:     players,
		rng:         rng,
		roles:       NewRoleAssigner(rng),
		turns:       NewTurnManager(roster, builder, players),
		votes:       NewVotingManager(roster, builder, players),
		guesses:     NewSpyGuessManager(roster, builder, cfg.Locations),
		broadcaster: broadcaster,
		metrics:     metrics,
	}
}

// RunGame executes every configured round and returns the finished record.
// The returned GameState is always populated, including on abort: completed
// rounds, scores, and the full error log survive any failure.
func (o *Orchestrator) RunGame(ctx context.Context) *models.GameState {
	machine := state.NewGameMachine()
	gs := &models.GameState{
		GameID: "game_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8],
		Config: models.ConfigSnapshot{
			NumRounds:        o.cfg.Game.NumRounds,
			MaxTurnsPerRound: o.cfg.Game.MaxTurnsPerRound,
			RandomSeed:       *o.cfg.Game.RandomSeed,
			FirstAsker:       o.cfg.Game.FirstAsker,
			Players:          o.players,
			Locations:        o.cfg.Locations,
		},
		Phase:        machine.Current(),
		Status:       models.StatusSuccess,
		PlayerScores: make(map[string]int, len(o.players)),
		StartedAt:    time.Now().UTC(),
	}
	for _, p := range o.players {
		gs.PlayerScores[p] = 0
	}

	if err := o.transitionGame(gs, machine, state.GameInProgress); err != nil {
		return o.abort(gs, machine, err)
	}

	logger.Log.Infow("Game started", "game_id", gs.GameID, "players", len(o.players), "rounds", o.cfg.Game.NumRounds)
	o.broadcaster.Publish(Event{Type: EventGameStart, GameID: gs.GameID, Payload: gs.Config})

	for i := 1; i <= o.cfg.Game.NumRounds; i++ {
		if err := ctx.Err(); err != nil {
			o.recordError(gs, models.GameError{
				Type:    ErrTypeCanceled,
				Message: fmt.Sprintf("run canceled before round %d: %v", i, err),
			})
			return o.abort(gs, machine, err)
		}

		gs.CurrentRound = i
		round, err := o.runRound(ctx, gs, i)
		if round != nil {
			gs.Rounds = append(gs.Rounds, round)
		}
		if err != nil {
			o.recordError(gs, models.GameError{
				Type:    errTypeForFatal(err),
				Message: err.Error(),
				Round:   i,
			})
			return o.abort(gs, machine, err)
		}

		for nickname, delta := range round.RoundScores {
			gs.PlayerScores[nickname] += delta
		}
		if o.metrics != nil {
			o.metrics.IncRoundsCompleted()
		}
	}

	gs.Winner = Winner(gs.PlayerScores)
	if o.skipped {
		gs.Status = models.StatusPartialSuccess
	}
	if err := o.transitionGame(gs, machine, state.GameCompleted); err != nil {
		return o.abort(gs, machine, err)
	}
	now := time.Now().UTC()
	gs.CompletedAt = &now

	logger.Log.Infow("Game completed", "game_id", gs.GameID, "status", gs.Status, "winner", gs.Winner, "scores", gs.PlayerScores)
	o.broadcaster.Publish(Event{Type: EventGameEnd, GameID: gs.GameID, Payload: GameEndPayload{
		Status:       gs.Status,
		PlayerScores: gs.PlayerScores,
		Winner:       gs.Winner,
	}})
	if o.metrics != nil {
		o.metrics.IncGamesCompleted(string(gs.Status))
	}
	return gs
}

// runRound plays one round to completion. A returned error is fatal to the
// game; recoverable failures are logged into the game state instead.
func (o *Orchestrator) runRound(ctx context.Context, gs *models.GameState, roundNumber int) (*models.RoundState, error) {
	machine := state.NewRoundMachine()

	roleMap, location, err := o.roles.Assign(o.players, o.cfg.Locations)
	if err != nil {
		return nil, fmt.Errorf("role assignment: %w", err)
	}
	spy := ""
	for nickname, role := range roleMap {
		if role.IsSpy {
			spy = nickname
		}
	}

	round := &models.RoundState{
		RoundNumber:    roundNumber,
		Phase:          machine.Current(),
		Location:       location,
		SpyNickname:    spy,
		Roles:          roleMap,
		RoundScores:    make(map[string]int),
		VoteInitiators: make(map[string]bool),
	}

	if o.cfg.Game.FirstAsker != "" {
		round.CurrentAsker = o.cfg.Game.FirstAsker
	} else {
		round.CurrentAsker = o.players[o.rng.Intn(len(o.players))]
	}

	if err := o.transitionRound(round, machine, state.RoundQuestioning); err != nil {
		return round, err
	}

	logger.Log.Infow("Round started", "game_id", gs.GameID, "round", roundNumber, "first_asker", round.CurrentAsker)
	o.broadcaster.Publish(Event{Type: EventRoundStart, GameID: gs.GameID, Round: roundNumber, Payload: map[string]any{
		"round_number": roundNumber,
		"first_asker":  round.CurrentAsker,
	}})

	for turnSlot := 0; turnSlot < o.cfg.Game.MaxTurnsPerRound && round.EndingCondition == ""; turnSlot++ {
		if err := ctx.Err(); err != nil {
			return round, err
		}

		if round.CurrentAsker == spy {
			done, err := o.offerSpyGuess(ctx, gs, round, machine)
			if err != nil {
				return round, err
			}
			if done {
				break
			}
		}

		done, err := o.offerVote(ctx, gs, round, machine)
		if err != nil {
			return round, err
		}
		if done {
			break
		}

		if err := o.playTurn(ctx, gs, round); err != nil {
			return round, err
		}
	}

	if round.EndingCondition == "" {
		round.EndingCondition = models.EndingTurnLimit
		if err := o.transitionRound(round, machine, state.RoundScoring); err != nil {
			return round, err
		}
	}

	round.RoundScores = o.scoring.Score(round)
	if err := o.transitionRound(round, machine, state.RoundCompleted); err != nil {
		return round, err
	}

	logger.Log.Infow("Round completed",
		"game_id", gs.GameID,
		"round", roundNumber,
		"ending", round.EndingCondition,
		"scores", round.RoundScores,
	)
	o.broadcaster.Publish(Event{Type: EventRoundEnd, GameID: gs.GameID, Round: roundNumber, Payload: RoundEndPayload{
		EndingCondition: round.EndingCondition,
		Location:        round.Location,
		SpyNickname:     round.SpyNickname,
		RoundScores:     round.RoundScores,
	}})
	return round, nil
}

// offerSpyGuess gives the spy the option to end the round. Reports done
// when the round ended.
func (o *Orchestrator) offerSpyGuess(ctx context.Context, gs *models.GameState, round *models.RoundState, machine *state.Machine) (bool, error) {
	guess, err := o.guesses.CheckGuess(ctx, round, round.CurrentAsker)
	if err != nil {
		o.recordSkip(gs, models.GameError{
			Type:      errType(err),
			Message:   err.Error(),
			Player:    round.CurrentAsker,
			Round:     round.RoundNumber,
			Turn:      len(round.Turns) + 1,
			Recovered: true,
		})
		return false, nil
	}
	if guess == nil {
		return false, nil
	}

	round.SpyGuess = guess
	round.EndingCondition = models.EndingSpyGuess
	if err := o.transitionRound(round, machine, state.RoundScoring); err != nil {
		return false, err
	}

	logger.Log.Infow("Spy guessed the location",
		"game_id", gs.GameID,
		"round", round.RoundNumber,
		"guess", guess.GuessedLocation,
		"correct", guess.Correct,
	)
	o.broadcaster.Publish(Event{Type: EventSpyGuess, GameID: gs.GameID, Round: round.RoundNumber, Payload: guess})
	return true, nil
}

// offerVote gives the current player the chance to open an indictment vote
// and, if opened, runs it to resolution. Reports done when a passing vote
// ended the round.
func (o *Orchestrator) offerVote(ctx context.Context, gs *models.GameState, round *models.RoundState, machine *state.Machine) (bool, error) {
	current := round.CurrentAsker

	suspect, ok, err := o.votes.CheckInitiation(ctx, round, current)
	if err != nil && ruleViolation(err) {
		// Misbehaving agent response: one re-prompt, then skip the
		// initiation entirely.
		o.recordError(gs, violationError(err, current, round))
		suspect, ok, err = o.votes.CheckInitiation(ctx, round, current)
	}
	if err != nil {
		if ruleViolation(err) {
			o.recordError(gs, violationError(err, current, round))
		} else {
			o.recordSkip(gs, models.GameError{
				Type:      errType(err),
				Message:   err.Error(),
				Player:    current,
				Round:     round.RoundNumber,
				Turn:      len(round.Turns) + 1,
				Recovered: true,
			})
		}
		return false, nil
	}
	if !ok {
		return false, nil
	}

	if err := o.transitionRound(round, machine, state.RoundVoting); err != nil {
		return false, err
	}
	logger.Log.Infow("Vote opened", "game_id", gs.GameID, "round", round.RoundNumber, "initiator", current, "suspect", suspect)
	o.broadcaster.Publish(Event{Type: EventVoteOpened, GameID: gs.GameID, Round: round.RoundNumber, Payload: map[string]string{
		"initiator": current,
		"suspect":   suspect,
	}})

	attempt, failures := o.votes.ConductVote(ctx, round, current, suspect)
	for _, failure := range failures {
		o.recordSkip(gs, models.GameError{
			Type:      ErrTypeAgentUnavailable,
			Message:   fmt.Sprintf("ballot defaulted to no: %v", failure.Err),
			Player:    failure.Player,
			Round:     round.RoundNumber,
			Turn:      len(round.Turns) + 1,
			Recovered: true,
		})
	}
	if o.metrics != nil {
		o.metrics.IncVotesConducted()
	}

	o.broadcaster.Publish(Event{Type: EventVoteResolved, GameID: gs.GameID, Round: round.RoundNumber, Payload: attempt})

	if !attempt.Passed {
		logger.Log.Infow("Vote failed, questioning continues", "game_id", gs.GameID, "round", round.RoundNumber, "suspect", suspect)
		return false, o.transitionRound(round, machine, state.RoundQuestioning)
	}

	if suspect == round.SpyNickname {
		round.EndingCondition = models.EndingIndictment
	} else {
		round.EndingCondition = models.EndingWrongIndictment
	}
	logger.Log.Infow("Vote passed", "game_id", gs.GameID, "round", round.RoundNumber, "suspect", suspect, "ending", round.EndingCondition)
	return true, o.transitionRound(round, machine, state.RoundScoring)
}

// playTurn runs one question-and-answer exchange, re-prompting once on an
// invalid target and recording a skipped turn when the exchange cannot be
// completed.
func (o *Orchestrator) playTurn(ctx context.Context, gs *models.GameState, round *models.RoundState) error {
	asker := round.CurrentAsker

	turn, err := o.turns.ExecuteTurn(ctx, round)
	if err != nil && ruleViolation(err) {
		o.recordError(gs, violationError(err, asker, round))
		turn, err = o.turns.ExecuteTurn(ctx, round)
	}
	if err != nil {
		o.recordSkip(gs, models.GameError{
			Type:      errType(err),
			Message:   err.Error(),
			Player:    asker,
			Round:     round.RoundNumber,
			Turn:      len(round.Turns) + 1,
			Recovered: true,
		})
		o.turns.RecordSkippedTurn(round, asker, "", "")
		return nil
	}

	o.turns.RecordTurn(round, turn)
	logger.Log.Debugw("Turn recorded", "game_id", gs.GameID, "round", round.RoundNumber, "turn", turn.TurnNumber, "asker", turn.Asker, "answerer", turn.Answerer)
	o.broadcaster.Publish(Event{Type: EventTurnRecorded, GameID: gs.GameID, Round: round.RoundNumber, Payload: turn})
	return nil
}

func (o *Orchestrator) transitionRound(round *models.RoundState, machine *state.Machine, to state.Phase) error {
	if err := machine.Transition(to); err != nil {
		return err
	}
	round.Phase = machine.Current()
	return nil
}

func (o *Orchestrator) transitionGame(gs *models.GameState, machine *state.Machine, to state.Phase) error {
	if err := machine.Transition(to); err != nil {
		return err
	}
	gs.Phase = machine.Current()
	return nil
}

// abort finalizes the game state after a fatal failure, preserving all
// rounds and errors recorded so far.
func (o *Orchestrator) abort(gs *models.GameState, machine *state.Machine, cause error) *models.GameState {
	logger.Log.Errorw("Game aborted", "game_id", gs.GameID, "error", cause)
	gs.Status = models.StatusError
	if machine.Current() != state.GameError {
		if err := machine.Transition(state.GameError); err == nil {
			gs.Phase = machine.Current()
		}
	}
	now := time.Now().UTC()
	gs.CompletedAt = &now
	if o.metrics != nil {
		o.metrics.IncGamesCompleted(string(models.StatusError))
	}
	return gs
}

func (o *Orchestrator) recordError(gs *models.GameState, gameErr models.GameError) {
	gameErr.Timestamp = time.Now().UTC()
	gs.Errors = append(gs.Errors, gameErr)
	logger.Log.Warnw("Engine error recorded",
		"type", gameErr.Type,
		"player", gameErr.Player,
		"round", gameErr.Round,
		"turn", gameErr.Turn,
		"recovered", gameErr.Recovered,
		"message", gameErr.Message,
	)
}

// recordSkip records a recovered failure that forced the engine to skip an
// action, which downgrades a finished game to partial success.
func (o *Orchestrator) recordSkip(gs *models.GameState, gameErr models.GameError) {
	o.skipped = true
	if o.metrics != nil {
		o.metrics.IncSkippedActions()
	}
	o.recordError(gs, gameErr)
}

func violationError(err error, player string, round *models.RoundState) models.GameError {
	return models.GameError{
		Type:      errType(err),
		Message:   err.Error(),
		Player:    player,
		Round:     round.RoundNumber,
		Turn:      len(round.Turns) + 1,
		Recovered: true,
	}
}

func errTypeForFatal(err error) string {
	if errors.Is(err, state.ErrTransitionNotAllowed) {
		return ErrTypeInvalidStateTransition
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrTypeCanceled
	}
	return ErrTypeConfiguration
}
