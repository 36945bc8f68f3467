package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"streamflow/pkg/logger"
	"streamflow/pkg/models"
	"streamflow/pkg/telemetry"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 45 * time.Second
)

// clientFrame is the only shape a viewer connection may send. Frames are
// decoded and validated at the boundary; anything malformed closes the
// connection rather than being cast into shape.
type clientFrame struct {
	Type string `json:"type"`
}

func (f clientFrame) validate() error {
	switch f.Type {
	case "ping":
		return nil
	default:
		return fmt.Errorf("unknown frame type %q", f.Type)
	}
}

// WSConfig tunes the websocket endpoint.
type WSConfig struct {
	AllowedOrigins  []string
	MaxMessageBytes int64
}

// WSHandler upgrades the request to a websocket, subscribes the connection
// to the stream channel and tracks it in the presence set. The subscription
// and presence entry are released on every exit path.
func WSHandler(h *Hub, cfg WSConfig, identity func(r *http.Request) (userID, username string)) func(w http.ResponseWriter, r *http.Request, streamID string) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if len(cfg.AllowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, o := range cfg.AllowedOrigins {
				if o == "*" || strings.EqualFold(o, origin) {
					return true
				}
			}
			return false
		},
	}

	return func(w http.ResponseWriter, r *http.Request, streamID string) {
		userID, username := identity(r)
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("ws_upgrade_failed", "stream", streamID, "error", err)
			return
		}

		connID := uuid.NewString()
		telemetry.WSOpened()
		defer telemetry.WSClosed()
		sub := h.Subscribe(streamID)
		h.Join(streamID, connID, models.PresenceEntry{
			UserID:   userID,
			Username: username,
			JoinedAt: time.Now().UTC(),
		})
		defer func() {
			h.Leave(streamID, connID)
			sub.Unsubscribe()
			_ = conn.Close()
		}()
		logger.Info("ws_connected", "stream", streamID, "user", userID, "conn", connID)

		if cfg.MaxMessageBytes > 0 {
			conn.SetReadLimit(cfg.MaxMessageBytes)
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})

		// read pump: viewers only send control frames; a malformed frame
		// terminates the connection.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				_, data, err := conn.ReadMessage()
				if err != nil {
					return
				}
				var f clientFrame
				if err := json.Unmarshal(data, &f); err != nil {
					logger.Warn("ws_malformed_frame", "stream", streamID, "conn", connID, "error", err)
					return
				}
				if err := f.validate(); err != nil {
					logger.Warn("ws_rejected_frame", "stream", streamID, "conn", connID, "error", err)
					return
				}
				_ = conn.SetReadDeadline(time.Now().Add(pongWait))
			}
		}()

		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case ev, ok := <-sub.Events():
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if !ok {
					// dropped as a slow consumer; tell the client to resubscribe
					_ = conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "subscription lapsed"))
					return
				}
				if err := conn.WriteJSON(ev); err != nil {
					logger.Warn("ws_write_failed", "stream", streamID, "conn", connID, "error", err)
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
		}
	}
}
