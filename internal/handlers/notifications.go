package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/AnshRaj112/fitcoach-backend/internal/apperror"
	"github.com/AnshRaj112/fitcoach-backend/internal/middleware"
	"github.com/AnshRaj112/fitcoach-backend/internal/realtime"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 90 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsReadLimit  = 4 << 10
)

// NotificationHandler upgrades /ws/notifications and streams the caller's
// notifications from the hub. Clients only read; anything they send is discarded.
type NotificationHandler struct {
	Hub            *realtime.Hub
	Tokens         middleware.AccessTokenParser
	AllowedOrigins []string
	Log            zerolog.Logger
}

func (h NotificationHandler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// non-browser clients
				return true
			}
			for _, o := range h.AllowedOrigins {
				if strings.EqualFold(strings.TrimSpace(o), origin) {
					return true
				}
			}
			return false
		},
	}
}

// Serve authenticates with a bearer header or ?token= since browsers cannot
// set headers on websocket requests.
func (h NotificationHandler) Serve(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" {
		respondError(r.Context(), w, apperror.Unauthorized("missing access token"))
		return
	}
	claims, err := h.Tokens.ParseAccessToken(token)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	up := h.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		h.Log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := h.Hub.Register(claims.UserID)
	log := h.Log.With().Str("user_id", claims.UserID).Logger()
	log.Debug().Int("connections", h.Hub.Connections(claims.UserID)).Msg("notification socket opened")

	done := make(chan struct{})
	go h.writeLoop(conn, client, done, log)
	h.readLoop(conn)

	h.Hub.Unregister(client)
	<-done
	log.Debug().Msg("notification socket closed")
}

// readLoop keeps the read deadline moving on pongs and returns once the peer
// goes away.
func (h NotificationHandler) readLoop(conn *websocket.Conn) {
	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

// writeLoop is the only writer on conn. It exits when the hub closes
// client.Send or a write fails.
func (h NotificationHandler) writeLoop(conn *websocket.Conn, client *realtime.Client, done chan<- struct{}, log zerolog.Logger) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
		close(done)
	}()

	for {
		select {
		case n, ok := <-client.Send:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(n); err != nil {
				log.Debug().Err(err).Msg("notification write failed")
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
