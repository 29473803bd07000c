package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wfunc/spyarena/models"
)

// JSONFileSink writes one pretty-printed JSON file per game under the
// configured output directory. Writes go through a temp file and rename so
// an interrupted save never leaves a half-written record.
type JSONFileSink struct {
	outputDir string
}

func NewJSONFileSink(outputDir string) (*JSONFileSink, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", outputDir, err)
	}
	return &JSONFileSink{outputDir: outputDir}, nil
}

func (s *JSONFileSink) SaveGameState(gs *models.GameState) error {
	data, err := json.MarshalIndent(gs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal game state: %w", err)
	}

	path := s.pathFor(gs.GameID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write game log: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("finalize game log: %w", err)
	}
	return nil
}

func (s *JSONFileSink) LoadGameState(gameID string) (*models.GameState, error) {
	data, err := os.ReadFile(s.pathFor(gameID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("read game log: %w", err)
	}

	var gs models.GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		return nil, fmt.Errorf("unmarshal game log: %w", err)
	}
	return &gs, nil
}

func (s *JSONFileSink) ListGameIDs() ([]string, error) {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		return nil, fmt.Errorf("read output dir: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}

func (s *JSONFileSink) Close() error {
	return nil
}

func (s *JSONFileSink) pathFor(gameID string) string {
	return filepath.Join(s.outputDir, gameID+".json")
}
