package persistence

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/spyarena/models"
)

// GormPostgreSQL stores game records in PostgreSQL through GORM, with the
// full game state as a jsonb document.
type GormPostgreSQL struct {
	db *gorm.DB
}

// JSONMap stores an arbitrary JSON document in a jsonb column.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	raw, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("unexpected jsonb column type %T", value)
	}
	return json.Unmarshal(raw, m)
}

// GameRecordModel is the GORM schema for one finished game.
type GameRecordModel struct {
	ID        uint    `gorm:"primaryKey"`
	GameID    string  `gorm:"uniqueIndex;not null"`
	Status    string  `gorm:"index;not null"`
	Winner    string  `gorm:"index"`
	NumRounds int     `gorm:"not null"`
	Data      JSONMap `gorm:"type:jsonb"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&GameRecordModel{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

func (p *GormPostgreSQL) SaveGameState(gs *models.GameState) error {
	data, err := stateToDocument(gs)
	if err != nil {
		return err
	}

	record := GameRecordModel{
		GameID:    gs.GameID,
		Status:    string(gs.Status),
		Winner:    gs.Winner,
		NumRounds: len(gs.Rounds),
		Data:      data,
	}

	var existing GameRecordModel
	result := p.db.Where("game_id = ?", gs.GameID).First(&existing)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return p.db.Create(&record).Error
	} else if result.Error != nil {
		return result.Error
	}

	existing.Status = record.Status
	existing.Winner = record.Winner
	existing.NumRounds = record.NumRounds
	existing.Data = record.Data
	existing.UpdatedAt = time.Now()
	return p.db.Save(&existing).Error
}

func (p *GormPostgreSQL) LoadGameState(gameID string) (*models.GameState, error) {
	var record GameRecordModel
	if err := p.db.Where("game_id = ?", gameID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return documentToState(record.Data)
}

func (p *GormPostgreSQL) ListGameIDs() ([]string, error) {
	var ids []string
	if err := p.db.Model(&GameRecordModel{}).Order("created_at").Pluck("game_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (p *GormPostgreSQL) Transaction(fn func(tx *gorm.DB) error) error {
	return p.db.Transaction(fn)
}

// WinCounts tallies how many stored games each player won, via a raw query
// over the jsonb documents.
func (p *GormPostgreSQL) WinCounts() (map[string]int, error) {
	rows, err := p.db.Raw(
		`SELECT winner, COUNT(*) FROM game_record_models
		 WHERE winner <> '' AND winner <> ?
		 GROUP BY winner`,
		models.NoSingleWinner,
	).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var winner string
		var count int
		if err := rows.Scan(&winner, &count); err != nil {
			return nil, err
		}
		counts[winner] = count
	}
	return counts, rows.Err()
}

func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func stateToDocument(gs *models.GameState) (map[string]interface{}, error) {
	raw, err := json.Marshal(gs)
	if err != nil {
		return nil, fmt.Errorf("marshal game state: %w", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("convert game state to document: %w", err)
	}
	return doc, nil
}

func documentToState(doc map[string]interface{}) (*models.GameState, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var gs models.GameState
	if err := json.Unmarshal(raw, &gs); err != nil {
		return nil, fmt.Errorf("convert document to game state: %w", err)
	}
	return &gs, nil
}
