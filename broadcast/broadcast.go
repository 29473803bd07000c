// broadcast fans engine events out to spectator sessions as framed JSON
// packets.
package broadcast

import (
	"encoding/json"

	"github.com/wfunc/spyarena/game"
	"github.com/wfunc/spyarena/logger"
	"github.com/wfunc/spyarena/network"
	"github.com/wfunc/spyarena/session"
)

// EventBroadcaster implements game.Broadcaster over a session manager.
// Send failures drop the event for that spectator only; the engine is
// never blocked or failed by the feed.
type EventBroadcaster struct {
	sessions *session.Manager
}

func NewEventBroadcaster(sessions *session.Manager) *EventBroadcaster {
	return &EventBroadcaster{sessions: sessions}
}

func (b *EventBroadcaster) Publish(event game.Event) {
	msgID, ok := msgIDFor(event.Type)
	if !ok {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Log.Errorf("Failed to marshal %s event: %v", event.Type, err)
		return
	}

	for _, s := range b.sessions.All() {
		if err := s.Send(msgID, data); err != nil {
			logger.Log.Debugf("Dropping event for spectator %s: %v", s.ID, err)
		}
	}
}

func msgIDFor(eventType game.EventType) (uint16, bool) {
	switch eventType {
	case game.EventGameStart:
		return network.MsgTypeGameStart, true
	case game.EventRoundStart:
		return network.MsgTypeRoundStart, true
	case game.EventTurnRecorded:
		return network.MsgTypeTurn, true
	case game.EventVoteOpened:
		return network.MsgTypeVoteOpened, true
	case game.EventVoteResolved:
		return network.MsgTypeVoteResolved, true
	case game.EventSpyGuess:
		return network.MsgTypeSpyGuess, true
	case game.EventRoundEnd:
		return network.MsgTypeRoundEnd, true
	case game.EventGameEnd:
		return network.MsgTypeGameEnd, true
	default:
		return 0, false
	}
}
