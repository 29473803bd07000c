// server hosts the spectator websocket endpoint. Spectators are read-only:
// the only inbound message is the heartbeat.
package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wfunc/spyarena/logger"
	"github.com/wfunc/spyarena/network"
	"github.com/wfunc/spyarena/session"
)

const (
	idleTimeout   = 5 * time.Minute
	sweepInterval = 30 * time.Second
)

type WatchServer struct {
	addr           string
	upgrader       websocket.Upgrader
	sessionManager *session.Manager
	shutdownChan   chan struct{}
}

func NewWatchServer(addr string, sessions *session.Manager) *WatchServer {
	return &WatchServer{
		addr:           addr,
		sessionManager: sessions,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Start serves the watch endpoint until the process exits. It runs in its
// own goroutines and never blocks the engine.
func (s *WatchServer) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/watch", s.handleWebSocket)

	go s.sweepLoop()
	go func() {
		logger.Log.Infof("Watch server listening on %s", s.addr)
		if err := http.ListenAndServe(s.addr, mux); err != nil {
			logger.Log.Errorf("Watch server stopped: %v", err)
		}
	}()
}

func (s *WatchServer) Shutdown() {
	close(s.shutdownChan)
	for _, sess := range s.sessionManager.All() {
		sess.Close()
	}
}

func (s *WatchServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Warnf("Failed to upgrade spectator connection: %v", err)
		return
	}

	wsConn := network.NewWSConnection(conn)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	logger.Log.Infof("Spectator connected from %s, session %s", wsConn.RemoteAddr(), sess.ID)

	defer func() {
		logger.Log.Infof("Spectator disconnected, session %s", sess.ID)
		s.sessionManager.Remove(sess.ID)
		wsConn.Close()
	}()

	wsConn.SetIdleTimeout(idleTimeout)
	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			if packet.MsgID == network.MsgTypeHeartbeat {
				sess.Touch()
				wsConn.SetIdleTimeout(idleTimeout)
			}
		}
	}
}

func (s *WatchServer) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if dropped := s.sessionManager.SweepIdle(idleTimeout); dropped > 0 {
				logger.Log.Infof("Swept %d idle spectator sessions", dropped)
			}
		case <-s.shutdownChan:
			return
		}
	}
}
