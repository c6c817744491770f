package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"service-dispatch/internal/logx"
)

const (
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// WSHandler upgrades courier connections and attaches them to the offer stream.
type WSHandler struct {
	couriers courierUsecase
	sessions sessionRegistry
	logger   logx.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(logger logx.Logger, couriers courierUsecase, sessions sessionRegistry) *WSHandler {
	return &WSHandler{
		couriers: couriers,
		sessions: sessions,
		logger:   loggerOrNop(logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// courier apps are not browsers
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Stream handles GET /couriers/{id}/ws. The connection lives until the client goes away.
func (h *WSHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ref, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	c, err := h.couriers.Get(r.Context(), ref)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", logx.String("courier_id", string(c.ID)), logx.Err(err))
		return
	}
	h.sessions.Register(c.ID, conn)
	h.logger.Info("courier connected", logx.String("courier_id", string(c.ID)))

	done := make(chan struct{})
	go h.keepAlive(conn, done)

	defer func() {
		close(done)
		h.sessions.Unregister(c.ID, conn)
		h.logger.Info("courier disconnected", logx.String("courier_id", string(c.ID)))
	}()

	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		// inbound frames are ignored, reading keeps control frames flowing
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *WSHandler) keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	t := time.NewTicker(wsPingPeriod)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			deadline := time.Now().Add(5 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}
