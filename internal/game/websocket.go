package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/scythe504/trivia-backend/internal"
	"github.com/scythe504/trivia-backend/internal/auth"
	"github.com/scythe504/trivia-backend/internal/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 << 10
	sendBuffer     = 64
)

// =============================================================================
// WEBSOCKET CONNECTION HANDLING
// =============================================================================

type Client struct {
	id     string
	userID string
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
}

func (c *Client) ID() string     { return c.id }
func (c *Client) UserID() string { return c.userID }

// Send queues payload without blocking; a full buffer drops it.
func (c *Client) Send(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

type WebSocketHandler struct {
	coord    *Coordinator
	hub      *Hub
	verifier auth.Verifier
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewWebSocketHandler(coord *Coordinator, hub *Hub, verifier auth.Verifier, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	allowAll := len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*")
	return &WebSocketHandler{
		coord:    coord,
		hub:      hub,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
		logger: logger,
	}
}

// ServeHTTP authenticates, upgrades the connection and serves it until the
// client goes away. Disconnecting never removes the player from a room.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := h.verifier.Verify(r.Context(), auth.Credential(r))
	if err != nil {
		h.logger.Info("[HandleWebSocket] rejected connection", "error", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("[HandleWebSocket] upgrade failed", "error", err)
		return
	}

	client := &Client{
		id:     utils.NewConnectionID(),
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
	h.hub.Register(client)
	h.logger.Info("[HandleWebSocket] client connected", "conn", client.id, "user", userID)

	go h.writePump(client)
	h.readPump(client)
}

func (h *WebSocketHandler) readPump(c *Client) {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		close(c.done)
		h.hub.Unregister(c)
		c.conn.Close()
		h.logger.Info("[HandleWebSocket] client disconnected", "conn", c.id, "user", c.userID)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("[HandleWebSocket] read error", "conn", c.id, "error", err)
			}
			return
		}

		var msg internal.Message[json.RawMessage]
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.reply(c, fmt.Errorf("%w: malformed message", ErrInvalidArgument))
			continue
		}

		h.logger.Debug("[HandleWebSocket] received", "type", msg.Type, "conn", c.id, "user", c.userID)
		if err := h.dispatch(ctx, c, msg); err != nil {
			h.logger.Info("[HandleWebSocket] action failed", "type", msg.Type, "user", c.userID, "error", err)
			// start failures were already broadcast to the whole room
			if !errors.Is(err, ErrQuestionSource) {
				h.reply(c, err)
			}
		}
	}
}

func (h *WebSocketHandler) dispatch(ctx context.Context, c *Client, msg internal.Message[json.RawMessage]) error {
	switch msg.Type {
	case internal.MsgJoinRoom:
		d, err := decode[internal.RoomCodeData](msg.Data)
		if err != nil {
			return err
		}
		return h.coord.Subscribe(ctx, d.Code, c)

	case internal.MsgLeaveRoom:
		d, err := decode[internal.RoomCodeData](msg.Data)
		if err != nil {
			return err
		}
		h.coord.Unsubscribe(d.Code, c)
		return nil

	case internal.MsgPlayerReady:
		d, err := decode[internal.PlayerReadyData](msg.Data)
		if err != nil {
			return err
		}
		return h.coord.SetReady(ctx, d.Code, c.userID, d.Ready)

	case internal.MsgStartGame:
		d, err := decode[internal.RoomCodeData](msg.Data)
		if err != nil {
			return err
		}
		return h.coord.StartGame(ctx, d.Code, c.userID)

	case internal.MsgSubmitAnswer:
		d, err := decode[internal.SubmitAnswerData](msg.Data)
		if err != nil {
			return err
		}
		return h.coord.SubmitAnswer(ctx, d.Code, c.userID, d.QuestionIndex, d.Answer, d.TimeTaken)
	}
	return fmt.Errorf("%w: unknown message type %q", ErrInvalidArgument, msg.Type)
}

func (h *WebSocketHandler) reply(c *Client, err error) {
	h.hub.Send(c, userEvent(c.userID, internal.EventGameError, internal.GameErrorData{Message: err.Error()}))
}

func (h *WebSocketHandler) writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.logger.Warn("[HandleWebSocket] write failed", "conn", c.id, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}

func decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return v, nil
}
