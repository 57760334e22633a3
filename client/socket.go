package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"sparked-server/game"
)

// socket is the secondary sync path: a websocket subscription to the room.
// Everything it delivers is also obtainable over HTTP, so losing it only
// costs liveness, never correctness.
type socket struct {
	conn *websocket.Conn
	done chan struct{}
}

// Connect opens the websocket, joins the current room and starts dispatching
// server pushes into the event stream. Token is the identity provider bearer
// token; the server derives the session tier from it and arms the countdown
// for free accounts.
func (c *Client) Connect(ctx context.Context, token string) error {
	roomCode, err := c.roomCode()
	if err != nil {
		return err
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dialing websocket: %w", err)
	}

	join := map[string]string{
		"type":     "joinRoom",
		"gameId":   roomCode,
		"playerId": c.Slot().String(),
	}
	if token != "" {
		join["token"] = token
	}
	if err := conn.WriteJSON(join); err != nil {
		conn.Close()
		return err
	}

	s := &socket{conn: conn, done: make(chan struct{})}
	c.sock = s
	go c.readLoop(s)
	return nil
}

func (s *socket) close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	s.conn.Close()
}

func (c *Client) readLoop(s *socket) {
	defer s.conn.Close()
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
			default:
				c.emit(Event{Kind: "error", Err: "connection lost"})
			}
			return
		}
		c.dispatch(data)
	}
}

func (c *Client) dispatch(data []byte) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return
	}

	switch head.Type {
	case "gameState":
		var msg struct {
			Game *game.Snapshot `json:"game"`
		}
		if err := json.Unmarshal(data, &msg); err == nil && msg.Game != nil {
			c.apply(msg.Game)
		}
	case "newMessage":
		var msg struct {
			Message game.ChatMessage `json:"message"`
		}
		if err := json.Unmarshal(data, &msg); err == nil {
			c.appendChat(msg.Message)
		}
	case "playerJoined", "playerLeft":
		var msg struct {
			PlayerID string `json:"playerId"`
		}
		_ = json.Unmarshal(data, &msg)
		c.emit(Event{Kind: head.Type, PlayerID: msg.PlayerID})
	case "gameDeleted":
		c.dropSeat()
		c.emit(Event{Kind: "roomDeleted"})
	case "partnerTyping":
		c.emit(Event{Kind: "typing"})
	case "freeSessionDeadline":
		var msg struct {
			Deadline time.Time `json:"deadline"`
		}
		if err := json.Unmarshal(data, &msg); err == nil {
			c.emit(Event{Kind: "freeDeadline", Deadline: msg.Deadline})
		}
	case "freeSessionExpired":
		c.emit(Event{Kind: "freeExpired"})
	case "error":
		var msg struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &msg)
		if strings.Contains(strings.ToLower(msg.Message), "not found") {
			c.dropSeat()
		}
		c.emit(Event{Kind: "error", Err: msg.Message})
	}
}

// SendTyping relays a typing indicator over the socket, if connected.
func (c *Client) SendTyping() {
	if c.sock == nil {
		return
	}
	_ = c.sock.conn.WriteJSON(map[string]string{"type": "typing"})
}
