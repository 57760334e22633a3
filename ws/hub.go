package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"sparked-server/config"
	"sparked-server/game"
	"sparked-server/rooms"
	"sparked-server/wsutil"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for development; restrict in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// roomCast is a broadcast request processed by the hub loop.
type roomCast struct {
	roomCode string
	data     []byte
	exclude  *Client // nil = everyone in the room
}

// roomLeave carries the room membership to drop. The read pump clears the
// client's own fields before sending one, so the hub never touches them.
type roomLeave struct {
	client   *Client
	roomCode string
	slot     game.Slot
}

// TierResolver maps a bearer token to a session tier ("free" or "premium").
// The auth package provides the JWKS-backed implementation.
type TierResolver interface {
	Tier(token string) string
}

// Hub maintains the set of active clients, their room membership, and routes
// broadcasts. Membership is only touched inside Run, so no lock is needed.
type Hub struct {
	Clients  map[*Client]bool
	Rooms    map[string]map[*Client]bool
	Registry *rooms.Registry
	Config   *config.Config
	Tiers    TierResolver

	register   chan *Client
	unregister chan *Client
	join       chan *Client
	leave      chan roomLeave
	cast       chan roomCast
}

// NewHub creates a new Hub.
func NewHub(cfg *config.Config, registry *rooms.Registry, tiers TierResolver) *Hub {
	return &Hub{
		Clients:    make(map[*Client]bool),
		Rooms:      make(map[string]map[*Client]bool),
		Registry:   registry,
		Config:     cfg,
		Tiers:      tiers,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan *Client),
		leave:      make(chan roomLeave),
		cast:       make(chan roomCast, 64),
	}
}

// Run starts the hub's main loop. Should be run as a goroutine.
// When ctx is cancelled (e.g. on server shutdown), Run returns and no longer
// accepts new registrations.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			slog.Info("shutdown signal received, stopping", "tag", "ws")
			return

		case client := <-h.register:
			h.Clients[client] = true
			slog.Info("client connected", "tag", "ws", "total", len(h.Clients))

		case client := <-h.unregister:
			if _, ok := h.Clients[client]; ok {
				// The read pump has exited by the time it unregisters,
				// so reading the client's fields here cannot race it.
				h.detach(client, client.RoomCode, client.Slot, true)
				delete(h.Clients, client)
				close(client.Send)
				slog.Info("client disconnected", "tag", "ws", "total", len(h.Clients))
			}

		case client := <-h.join:
			members, ok := h.Rooms[client.RoomCode]
			if !ok {
				members = make(map[*Client]bool)
				h.Rooms[client.RoomCode] = members
			}
			members[client] = true

		case lv := <-h.leave:
			h.detach(lv.client, lv.roomCode, lv.slot, true)

		case msg := <-h.cast:
			for member := range h.Rooms[msg.roomCode] {
				if member == msg.exclude {
					continue
				}
				wsutil.SafeSend(member.Send, msg.data)
			}
		}
	}
}

// detach removes a client from its room, cancels its free-session timer and
// optionally tells the partner it left. It never writes the client's own
// fields: the read pump owns those, and may still be reading them.
func (h *Hub) detach(client *Client, roomCode string, slot game.Slot, notify bool) {
	if roomCode == "" {
		return
	}
	if members, ok := h.Rooms[roomCode]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.Rooms, roomCode)
		}
	}
	h.Registry.CancelFreeSession(roomCode, slot)
	if notify {
		h.castToRoom(roomCode, PlayerEventMsg{Type: "playerLeft", PlayerID: slot.String()}, client)
	}
}

func (h *Hub) castToRoom(roomCode string, payload interface{}, exclude *Client) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshaling broadcast", "tag", "ws", "err", err)
		return
	}
	h.cast <- roomCast{roomCode: roomCode, data: data, exclude: exclude}
}

// BroadcastGameState sends a full snapshot to every participant of the room.
// Called after every engine-accepted transition.
func (h *Hub) BroadcastGameState(roomCode string, snap *game.Snapshot) {
	h.castToRoom(roomCode, GameStateMsg{Type: "gameState", Game: snap}, nil)
}

// BroadcastChat sends only the new chat message to the room.
func (h *Hub) BroadcastChat(roomCode string, msg game.ChatMessage) {
	h.castToRoom(roomCode, NewMessageMsg{Type: "newMessage", Message: msg}, nil)
}

// BroadcastPlayerJoined announces a newly seated player to the room.
func (h *Hub) BroadcastPlayerJoined(roomCode string, slot game.Slot) {
	h.castToRoom(roomCode, PlayerEventMsg{Type: "playerJoined", PlayerID: slot.String()}, nil)
}

// BroadcastRoomDeleted tells the room the game is gone; clients clear their
// saved credential on receipt.
func (h *Hub) BroadcastRoomDeleted(roomCode string) {
	h.castToRoom(roomCode, RoomDeletedMsg{Type: "gameDeleted", RoomCode: roomCode}, nil)
}

// ServeWS handles WebSocket upgrade requests and creates a new Client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade", "tag", "ws", "err", err)
		return
	}

	client := &Client{
		Hub:  h,
		Conn: conn,
		Send: make(chan []byte, 256),
	}

	h.register <- client

	go client.WritePump()
	go client.ReadPump()
}
