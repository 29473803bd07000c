package game

import "github.com/wfunc/spyarena/models"

// EventType labels an engine event published to spectators.
type EventType string

const (
	EventGameStart    EventType = "game_start"
	EventRoundStart   EventType = "round_start"
	EventTurnRecorded EventType = "turn"
	EventVoteOpened   EventType = "vote_opened"
	EventVoteResolved EventType = "vote_resolved"
	EventSpyGuess     EventType = "spy_guess"
	EventRoundEnd     EventType = "round_end"
	EventGameEnd      EventType = "game_end"
)

// Event is one engine occurrence. Role secrecy holds for in-round events:
// roles and the location appear only in round_end and game_end payloads,
// after the round can no longer be influenced. Ballot contents likewise
// appear only in vote_resolved, never while a vote is open.
type Event struct {
	Type    EventType `json:"type"`
	GameID  string    `json:"game_id"`
	Round   int       `json:"round,omitempty"`
	Payload any       `json:"payload,omitempty"`
}

// Broadcaster receives engine events. The engine never blocks on it and is
// unaware of how (or whether) events reach spectators.
type Broadcaster interface {
	Publish(event Event)
}

// NopBroadcaster drops every event. Used when the watch server is disabled.
type NopBroadcaster struct{}

func (NopBroadcaster) Publish(Event) {}

// RoundEndPayload reveals a finished round to spectators.
type RoundEndPayload struct {
	EndingCondition models.EndingCondition `json:"ending_condition"`
	Location        string                 `json:"location"`
	SpyNickname     string                 `json:"spy_nickname"`
	RoundScores     map[string]int         `json:"round_scores"`
}

// GameEndPayload closes out a game for spectators.
type GameEndPayload struct {
	Status       models.GameStatus `json:"status"`
	PlayerScores map[string]int    `json:"player_scores"`
	Winner       string            `json:"winner"`
}
