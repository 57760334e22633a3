package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"sparked-server/game"
	"sparked-server/gameerrors"
	"sparked-server/wsutil"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte

	// RoomCode, Slot and Role are set on join and cleared on leave, always
	// from the read pump. The hub only reads them, and only after a channel
	// handoff, so the pump stays the single writer.
	RoomCode string
	Slot     game.Slot
	Role     string
}

// ReadPump pumps messages from the websocket connection to the hub.
// It runs in its own goroutine per connection.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("websocket read", "tag", "ws", "err", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// WritePump pumps messages from the send channel to the websocket connection.
// It runs in its own goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	var envelope InboundEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.sendError("Invalid message format.")
		return
	}

	switch envelope.Type {
	case "joinRoom":
		c.handleJoinRoom(envelope.Raw)
	case "leaveRoom":
		c.handleLeaveRoom()
	case "chatMessage":
		c.handleChatMessage(envelope.Raw)
	case "typing":
		c.handleTyping()
	case "refreshGame":
		c.handleRefresh()
	default:
		c.sendError("Unknown message type: " + envelope.Type)
	}
}

func (c *Client) handleJoinRoom(raw json.RawMessage) {
	var msg JoinRoomMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid joinRoom message.")
		return
	}

	slot, err := game.ParseSlot(msg.PlayerID)
	if err != nil {
		c.sendError("Invalid player slot.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	g, err := c.Hub.Registry.View(ctx, msg.RoomCode)
	if err != nil {
		if errors.Is(err, gameerrors.ErrRoomNotFound) {
			c.sendError("Game not found.")
		} else {
			slog.Error("joining room", "tag", "ws", "room", msg.RoomCode, "err", err)
			c.sendError("Failed to join room.")
		}
		return
	}

	role := "free"
	if c.Hub.Tiers != nil {
		role = c.Hub.Tiers.Tier(msg.Token)
	}

	c.RoomCode = msg.RoomCode
	c.Slot = slot
	c.Role = role
	c.Hub.join <- c

	slog.Info("player joined room", "tag", "ws", "room", msg.RoomCode, "player", slot.String(), "tier", role)

	// Fresh snapshot to the joiner, then to the rest of the room with a
	// joined notice (the snapshot is an idempotent overwrite for them).
	c.sendJSON(GameStateMsg{Type: "gameState", Game: g.Snapshot()})
	c.Hub.castToRoom(msg.RoomCode, GameStateMsg{Type: "gameState", Game: g.Snapshot()}, c)
	c.Hub.castToRoom(msg.RoomCode, PlayerEventMsg{Type: "playerJoined", PlayerID: slot.String()}, c)

	if role == "free" {
		deadline, err := c.Hub.Registry.StartFreeSession(ctx, msg.RoomCode, slot, func() {
			c.sendJSON(FreeSessionExpiredMsg{Type: "freeSessionExpired"})
		})
		if err != nil {
			slog.Error("starting free session", "tag", "ws", "room", msg.RoomCode, "err", err)
		} else if !deadline.IsZero() {
			c.sendJSON(FreeSessionDeadlineMsg{Type: "freeSessionDeadline", Deadline: deadline})
		}
	}
}

func (c *Client) handleLeaveRoom() {
	if c.RoomCode == "" {
		return
	}
	// Clear the fields here, on the read pump, before handing the membership
	// to the hub. Later frames on this connection then see the cleared state
	// without racing the hub goroutine.
	roomCode, slot := c.RoomCode, c.Slot
	c.RoomCode = ""
	c.Role = ""
	c.Hub.leave <- roomLeave{client: c, roomCode: roomCode, slot: slot}
}

func (c *Client) handleChatMessage(raw json.RawMessage) {
	if c.RoomCode == "" {
		c.sendError("You are not in a game.")
		return
	}

	var msg ChatMessageMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid chatMessage message.")
		return
	}
	contentType := msg.ContentType
	if contentType == "" {
		contentType = "text"
	}

	chatMsg := game.ChatMessage{
		Sender:    c.Slot,
		Text:      msg.Text,
		Type:      contentType,
		URL:       msg.URL,
		Timestamp: time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := c.Hub.Registry.Update(ctx, c.RoomCode, func(g *game.Game) error {
		g.AppendChat(chatMsg, c.Hub.Config.ChatLimit)
		return nil
	})
	if err != nil {
		slog.Error("appending chat", "tag", "ws", "room", c.RoomCode, "err", err)
		c.sendError("Failed to send message.")
		return
	}

	c.Hub.BroadcastChat(c.RoomCode, chatMsg)
}

func (c *Client) handleTyping() {
	if c.RoomCode == "" {
		return
	}
	c.Hub.castToRoom(c.RoomCode, PlayerEventMsg{Type: "partnerTyping", PlayerID: c.Slot.String()}, c)
}

func (c *Client) handleRefresh() {
	if c.RoomCode == "" {
		c.sendError("You are not in a game.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	g, err := c.Hub.Registry.View(ctx, c.RoomCode)
	if err != nil {
		c.sendError("Game not found.")
		return
	}
	c.sendJSON(GameStateMsg{Type: "gameState", Game: g.Snapshot()})
}

func (c *Client) sendJSON(payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshaling message", "tag", "ws", "err", err)
		return
	}
	wsutil.SafeSend(c.Send, data)
}

func (c *Client) sendError(message string) {
	c.sendJSON(ErrorMsg{Type: "error", Message: message})
}
