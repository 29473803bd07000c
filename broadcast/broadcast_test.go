package broadcast

import (
	"encoding/json"
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/wfunc/spyarena/game"
	"github.com/wfunc/spyarena/logger"
	"github.com/wfunc/spyarena/network"
	"github.com/wfunc/spyarena/session"
)

func TestMain(m *testing.M) {
	logger.InitWithLevel("error", false)
	os.Exit(m.Run())
}

// MockConnection records every packet sent to one spectator.
type MockConnection struct {
	msgIDs   []uint16
	payloads [][]byte
	sendErr  error
}

func (m *MockConnection) Send(msgID uint16, data []byte) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.msgIDs = append(m.msgIDs, msgID)
	m.payloads = append(m.payloads, data)
	return nil
}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }
func (m *MockConnection) SetIdleTimeout(timeout time.Duration) {}
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) Close() error                         { return nil }

func TestEventBroadcaster_Publish(t *testing.T) {
	sessions := session.NewManager()
	conn := &MockConnection{}
	sessions.Add(session.NewSession("spectator1", conn))

	b := NewEventBroadcaster(sessions)
	b.Publish(game.Event{
		Type:   game.EventRoundStart,
		GameID: "game_bc1",
		Round:  1,
		Payload: map[string]any{
			"first_asker": "A",
		},
	})

	if len(conn.msgIDs) != 1 || conn.msgIDs[0] != network.MsgTypeRoundStart {
		t.Fatalf("Expected one round start packet, got %v", conn.msgIDs)
	}

	var event game.Event
	if err := json.Unmarshal(conn.payloads[0], &event); err != nil {
		t.Fatalf("Payload is not JSON: %v", err)
	}
	if event.GameID != "game_bc1" || event.Round != 1 {
		t.Errorf("Payload lost event fields: %+v", event)
	}
}

func TestEventBroadcaster_FailedSpectatorDoesNotBlockOthers(t *testing.T) {
	sessions := session.NewManager()
	broken := &MockConnection{sendErr: errors.New("connection reset")}
	healthy := &MockConnection{}
	sessions.Add(session.NewSession("broken", broken))
	sessions.Add(session.NewSession("healthy", healthy))

	b := NewEventBroadcaster(sessions)
	b.Publish(game.Event{Type: game.EventGameEnd, GameID: "game_bc2"})

	if len(healthy.msgIDs) != 1 || healthy.msgIDs[0] != network.MsgTypeGameEnd {
		t.Errorf("Healthy spectator should still receive the event, got %v", healthy.msgIDs)
	}
}

func TestMsgIDFor_CoversAllEventTypes(t *testing.T) {
	types := []game.EventType{
		game.EventGameStart,
		game.EventRoundStart,
		game.EventTurnRecorded,
		game.EventVoteOpened,
		game.EventVoteResolved,
		game.EventSpyGuess,
		game.EventRoundEnd,
		game.EventGameEnd,
	}
	seen := make(map[uint16]bool)
	for _, eventType := range types {
		msgID, ok := msgIDFor(eventType)
		if !ok {
			t.Errorf("No message ID for event type %s", eventType)
			continue
		}
		if seen[msgID] {
			t.Errorf("Duplicate message ID %d for %s", msgID, eventType)
		}
		seen[msgID] = true
	}

	if _, ok := msgIDFor(game.EventType("unknown")); ok {
		t.Error("Unknown event types must not map to a message ID")
	}
}
