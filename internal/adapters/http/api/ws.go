package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/mockmate/rehearse/internal/adapters/transcribe"
	"github.com/mockmate/rehearse/pkg/logger"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The UI is served from a different origin during development.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleEvents streams session snapshots to the UI. The current
// snapshot is sent on connect, then every state change until the
// client disconnects or the session ends.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Session(mux.Vars(r)["sessionID"])
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}
	defer conn.Close()

	updates, unsubscribe := sess.Controller.Subscribe()
	defer unsubscribe()

	// Read pump: we never expect client frames, but reading is what
	// surfaces the close frame and broken connections.
	readErr := make(chan struct{})
	go func() {
		defer close(readErr)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Subscribe seeds the channel with the current snapshot, so the
	// client's first frame is the state at connect time.
	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := writeSnapshot(conn, snap); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-readErr:
			return
		case <-sess.Controller.Done():
			// Flush the terminal snapshot before closing.
			_ = writeSnapshot(conn, sess.Controller.Snapshot())
			return
		case <-r.Context().Done():
			return
		}
	}
}

func writeSnapshot(conn *websocket.Conn, v any) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(v)
}

// handleTranscriptionStream accepts speech-to-text fragments as text
// frames and feeds them into the session's transcription source.
func (s *Server) handleTranscriptionStream(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Session(mux.Vars(r)["sessionID"])
	if err != nil {
		writeError(w, err)
		return
	}
	if sess.Ingest == nil {
		writeError(w, transcribe.ErrUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}
	defer conn.Close()

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.TextMessage || len(data) == 0 {
			continue
		}
		// Dropped when transcription is toggled off; the counter is
		// bumped by the controller for fragments it accepts.
		sess.Ingest.Push(string(data))
	}
}
