package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"storefront/internal/notify"
)

const (
	notificationBuffer = 32
	writeWait          = 10 * time.Second
	pongWait           = 60 * time.Second
	pingPeriod         = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NotificationHandler streams new-order events to admin browsers.
type NotificationHandler struct {
	events notify.Subscriber
}

func NewNotificationHandler(events notify.Subscriber) *NotificationHandler {
	return &NotificationHandler{events: events}
}

func (h *NotificationHandler) Stream(c echo.Context) error {
	admin, err := session(c)
	if err != nil {
		return respondError(c, err)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the error response.
		logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return nil
	}
	defer conn.Close()

	sub := h.events.Subscribe(notificationBuffer)
	defer sub.Cancel()
	logger.Info().Msgf("Admin %d subscribed to order notifications", admin.ID())

	// The read loop only exists to notice the client going away.
	closed := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return nil
		case ev, ok := <-sub.C:
			if !ok {
				return nil
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return nil
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}
