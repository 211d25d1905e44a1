package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jrsteele09/go-bank-backoffice/notify"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

type notificationsView struct {
	Unread        int                   `json:"unread"`
	Notifications []notify.Notification `json:"notifications"`
}

func (s *Server) NotificationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, notificationsView{
			Unread:        s.console.Center.Unread(),
			Notifications: s.console.Center.List(),
		})
	}
}

func (s *Server) NotificationsReadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.console.Center.MarkAllRead()
		w.WriteHeader(http.StatusNoContent)
	}
}

// streamEvent is one websocket frame.
type streamEvent struct {
	Event string `json:"event"` // "notification" or "session"
	Data  any    `json:"data"`
}

// NotificationsStreamHandler pushes notifications and session changes to
// the console over a websocket. The current session is sent first.
func (s *Server) NotificationsStreamHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}
		defer conn.Close()

		notifications, stopNotifications := s.console.Throttle.Subscribe()
		defer stopNotifications()
		snapshots, stopSnapshots := s.console.Sessions.Subscribe()
		defer stopSnapshots()

		closed := make(chan struct{})
		go s.readUntilClosed(conn, closed)

		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			var ev streamEvent
			select {
			case <-closed:
				return
			case <-r.Context().Done():
				return
			case n, ok := <-notifications:
				if !ok {
					return
				}
				ev = streamEvent{Event: "notification", Data: n}
			case _, ok := <-snapshots:
				if !ok {
					return
				}
				ev = streamEvent{Event: "session", Data: s.currentSession()}
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
				continue
			}

			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				s.log.Debug().Err(err).Msg("websocket write failed")
				return
			}
		}
	}
}

// readUntilClosed drains client frames so pongs and close frames are
// processed, and closes done when the connection goes away.
func (s *Server) readUntilClosed(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
