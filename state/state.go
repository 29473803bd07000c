package state

import (
	"errors"
	"fmt"
	"sync"
)

// Phase identifies a state in a phase machine.
type Phase string

// Round-level phases.
const (
	RoundRoleAssignment Phase = "role_assignment"
	RoundQuestioning    Phase = "questioning"
	RoundVoting         Phase = "voting"
	RoundScoring        Phase = "scoring"
	RoundCompleted      Phase = "completed"
)

// Game-level phases.
const (
	GameInitializing Phase = "initializing"
	GameInProgress   Phase = "in_progress"
	GameCompleted    Phase = "completed"
	GameError        Phase = "error"
)

// ErrTransitionNotAllowed is returned when a phase transition is not in the
// machine's table. Callers treat it as a fatal consistency fault.
var ErrTransitionNotAllowed = errors.New("state transition not allowed")

// Machine validates every mutation of a phase against an explicit
// transition table.
type Machine struct {
	current Phase
	table   map[Phase][]Phase
	mutex   sync.RWMutex
}

func NewMachine(initial Phase, table map[Phase][]Phase) *Machine {
	return &Machine{
		current: initial,
		table:   table,
	}
}

// Transition moves the machine to the target phase, or fails without
// changing anything when the edge is not in the table.
func (m *Machine) Transition(to Phase) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, allowed := range m.table[m.current] {
		if allowed == to {
			m.current = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, m.current, to)
}

// Current returns the machine's current phase.
func (m *Machine) Current() Phase {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.current
}

// roundTransitions is the authoritative edge set for one round. The direct
// questioning -> scoring edge covers both the spy-guess shortcut and the
// turn-limit ending.
var roundTransitions = map[Phase][]Phase{
	RoundRoleAssignment: {RoundQuestioning},
	RoundQuestioning:    {RoundVoting, RoundScoring},
	RoundVoting:         {RoundQuestioning, RoundScoring},
	RoundScoring:        {RoundCompleted},
	RoundCompleted:      {},
}

var gameTransitions = map[Phase][]Phase{
	GameInitializing: {GameInProgress, GameError},
	GameInProgress:   {GameCompleted, GameError},
	GameCompleted:    {},
	GameError:        {},
}

// NewRoundMachine returns a phase machine for a single round, starting in
// role assignment.
func NewRoundMachine() *Machine {
	return NewMachine(RoundRoleAssignment, roundTransitions)
}

// NewGameMachine returns the game-level phase machine.
func NewGameMachine() *Machine {
	return NewMachine(GameInitializing, gameTransitions)
}
