package persistence

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/wfunc/spyarena/models"
)

// PostgreSQL is the plain database/sql variant of the PostgreSQL sink, for
// deployments that do not want the ORM in the loop.
type PostgreSQL struct {
	db *sql.DB
}

func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(5)
	db.SetMaxOpenConns(20)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	p := &PostgreSQL{db: db}
	if err := p.migrate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *PostgreSQL) migrate() error {
	_, err := p.db.Exec(`
		CREATE TABLE IF NOT EXISTS game_records (
			id         SERIAL PRIMARY KEY,
			game_id    TEXT UNIQUE NOT NULL,
			status     TEXT NOT NULL,
			winner     TEXT,
			data       JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	return err
}

func (p *PostgreSQL) SaveGameState(gs *models.GameState) error {
	data, err := json.Marshal(gs)
	if err != nil {
		return fmt.Errorf("marshal game state: %w", err)
	}

	_, err = p.db.Exec(`
		INSERT INTO game_records (game_id, status, winner, data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (game_id) DO UPDATE
		SET status = EXCLUDED.status,
		    winner = EXCLUDED.winner,
		    data = EXCLUDED.data,
		    updated_at = NOW()`,
		gs.GameID, string(gs.Status), gs.Winner, data)
	return err
}

func (p *PostgreSQL) LoadGameState(gameID string) (*models.GameState, error) {
	var data []byte
	err := p.db.QueryRow(
		`SELECT data FROM game_records WHERE game_id = $1`, gameID,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	var gs models.GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		return nil, fmt.Errorf("unmarshal game state: %w", err)
	}
	return &gs, nil
}

func (p *PostgreSQL) ListGameIDs() ([]string, error) {
	rows, err := p.db.Query(`SELECT game_id FROM game_records ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
