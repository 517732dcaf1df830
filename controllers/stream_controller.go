// File: /controllers/stream_controller.go
package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"net/http"
	"squadrun-api/services"
	"time"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // auth happens at the JWT layer before the upgrade
	},
}

// StreamController upgrades session viewers to a websocket fed by the live hub
type StreamController struct {
	hub *services.LiveHub
}

func NewStreamController(hub *services.LiveHub) *StreamController {
	return &StreamController{hub: hub}
}

func (sc *StreamController) LiveSession(c *gin.Context) {
	sessionID := c.Param("id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := sc.hub.Register(sessionID)

	go sc.writePump(conn, client)
	go sc.readPump(conn, client)
}

func (sc *StreamController) writePump(conn *websocket.Conn, client *services.LiveClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case payload, ok := <-client.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (sc *StreamController) readPump(conn *websocket.Conn, client *services.LiveClient) {
	defer func() {
		sc.hub.Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Viewers only listen; any read error means the peer is gone.
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
