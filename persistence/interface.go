// persistence writes finished (or aborted) game records out. The engine
// hands over a fully populated GameState and is unaware of file naming,
// schemas, or connection management.
package persistence

import (
	"fmt"

	"github.com/wfunc/spyarena/models"
)

// Sink stores game records.
type Sink interface {
	SaveGameState(gs *models.GameState) error
	LoadGameState(gameID string) (*models.GameState, error)
	ListGameIDs() ([]string, error)
	Close() error
}

var ErrRecordNotFound = fmt.Errorf("record not found")

// MultiSink fans one save out to several sinks, e.g. a JSON file plus a
// database. The first error aborts the fan-out.
type MultiSink []Sink

func (m MultiSink) SaveGameState(gs *models.GameState) error {
	for _, sink := range m {
		if err := sink.SaveGameState(gs); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiSink) LoadGameState(gameID string) (*models.GameState, error) {
	for _, sink := range m {
		gs, err := sink.LoadGameState(gameID)
		if err == nil {
			return gs, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (m MultiSink) ListGameIDs() ([]string, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return m[0].ListGameIDs()
}

func (m MultiSink) Close() error {
	var firstErr error
	for _, sink := range m {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
