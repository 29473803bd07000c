// arena composes the engine with its collaborators and runs one game to
// completion.
package arena

import (
	"context"
	"sync"

	"github.com/wfunc/spyarena/agent"
	"github.com/wfunc/spyarena/config"
	"github.com/wfunc/spyarena/game"
	"github.com/wfunc/spyarena/logger"
	"github.com/wfunc/spyarena/models"
	"github.com/wfunc/spyarena/persistence"
	"github.com/wfunc/spyarena/prompts"
)

// Status tracks where a run currently is.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusCompleted
	StatusError
)

// Arena owns the lifecycle of one game run: engine construction, execution,
// and persistence of the final record.
type Arena struct {
	cfg         *config.Config
	roster      agent.Roster
	builder     *prompts.Builder
	sink        persistence.Sink
	broadcaster game.Broadcaster
	metrics     game.Metrics

	status      Status
	statusMutex sync.RWMutex
}

func New(cfg *config.Config, roster agent.Roster, builder *prompts.Builder, sink persistence.Sink, broadcaster game.Broadcaster, metrics game.Metrics) *Arena {
	return &Arena{
		cfg:         cfg,
		roster:      roster,
		builder:     builder,
		sink:        sink,
		broadcaster: broadcaster,
		metrics:     metrics,
		status:      StatusIdle,
	}
}

// Run plays the game and persists the result, including partial results
// after an abort. The record is returned alongside any persistence error.
func (a *Arena) Run(ctx context.Context) (*models.GameState, error) {
	a.setStatus(StatusRunning)

	orchestrator := game.NewOrchestrator(a.cfg, a.roster, a.builder, a.broadcaster, a.metrics)
	gs := orchestrator.RunGame(ctx)

	if gs.Status == models.StatusError {
		a.setStatus(StatusError)
	} else {
		a.setStatus(StatusCompleted)
	}

	if err := a.sink.SaveGameState(gs); err != nil {
		logger.Log.Errorf("Failed to persist game %s: %v", gs.GameID, err)
		return gs, err
	}
	logger.Log.Infof("Game %s persisted", gs.GameID)
	return gs, nil
}

func (a *Arena) Status() Status {
	a.statusMutex.RLock()
	defer a.statusMutex.RUnlock()
	return a.status
}

func (a *Arena) setStatus(status Status) {
	a.statusMutex.Lock()
	defer a.statusMutex.Unlock()
	a.status = status
}
