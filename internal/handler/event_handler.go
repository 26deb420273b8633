package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/projeval-api/internal/middleware"
	"github.com/noah-isme/projeval-api/internal/service"
)

const (
	eventWriteWait    = 10 * time.Second
	eventPingInterval = 30 * time.Second
)

// EventHandler streams realtime events to the signed-in user over a websocket.
type EventHandler struct {
	service service.EventService
	logger  zerolog.Logger
}

// NewEventHandler constructs the handler.
func NewEventHandler(service service.EventService, logger zerolog.Logger) *EventHandler {
	return &EventHandler{
		service: service,
		logger:  logger.With().Str("component", "event_handler").Logger(),
	}
}

// Register mounts the websocket stream under the router group.
func (h *EventHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		if _, ok := c.Locals(middleware.LocalUserID).(uint); !ok {
			return fiber.ErrUnauthorized
		}
		return c.Next()
	})

	router.Get("/ws", websocket.New(h.stream))
}

func (h *EventHandler) stream(conn *websocket.Conn) {
	userID, _ := conn.Locals(middleware.LocalUserID).(uint)
	logger := h.logger.With().Uint("user_id", userID).Logger()

	events, cleanup := h.service.Subscribe(userID)
	defer cleanup()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(eventPingInterval)
	defer ticker.Stop()

	logger.Info().Msg("event stream connected")
	defer logger.Info().Msg("event stream disconnected")

	for {
		select {
		case <-closed:
			return
		case event := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			if err := conn.WriteJSON(event); err != nil {
				logger.Debug().Err(err).Msg("failed to write event")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(eventWriteWait)); err != nil {
				return
			}
		}
	}
}
