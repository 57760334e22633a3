package ws

import (
	"encoding/json"
	"time"

	"sparked-server/game"
)

// InboundEnvelope is the generic envelope for all client-to-server messages.
// The Type field is used for routing; Raw holds the full JSON payload.
type InboundEnvelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON implements custom unmarshaling to capture the raw payload.
func (e *InboundEnvelope) UnmarshalJSON(data []byte) error {
	type typeOnly struct {
		Type string `json:"type"`
	}
	var t typeOnly
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	e.Type = t.Type
	e.Raw = json.RawMessage(data)
	return nil
}

// --- Client-to-Server message payloads ---

// JoinRoomMsg attaches the connection to a game room. Token is the bearer
// token from the identity provider; the server derives the tier from its
// claims and arms the session countdown for free accounts. The client never
// states its own tier.
type JoinRoomMsg struct {
	Type     string `json:"type"`
	RoomCode string `json:"gameId"`
	PlayerID string `json:"playerId"`
	Token    string `json:"token,omitempty"`
}

// LeaveRoomMsg detaches the connection from its room.
type LeaveRoomMsg struct {
	Type string `json:"type"`
}

// ChatMessageMsg sends a chat message, optionally referencing uploaded media.
// ContentType is the message kind (text, image, video, audio, file);
// the envelope's "type" field stays reserved for routing.
type ChatMessageMsg struct {
	Type        string `json:"type"`
	Text        string `json:"text"`
	ContentType string `json:"contentType,omitempty"`
	URL         string `json:"url,omitempty"`
}

// TypingMsg relays a typing indicator to the partner.
type TypingMsg struct {
	Type string `json:"type"`
}

// RefreshMsg requests a fresh snapshot for this connection only.
type RefreshMsg struct {
	Type string `json:"type"`
}

// --- Server-to-Client messages ---

// ErrorMsg is sent when a client action is invalid.
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// GameStateMsg carries a full game snapshot. Snapshots are idempotent
// overwrites; duplicates and redeliveries are safe to apply.
type GameStateMsg struct {
	Type string         `json:"type"`
	Game *game.Snapshot `json:"game"`
}

// NewMessageMsg carries a single new chat message (not a full snapshot).
type NewMessageMsg struct {
	Type    string           `json:"type"`
	Message game.ChatMessage `json:"message"`
}

// PlayerEventMsg announces a player joining or leaving the room.
type PlayerEventMsg struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
}

// RoomDeletedMsg announces that the room was deleted.
type RoomDeletedMsg struct {
	Type     string `json:"type"`
	RoomCode string `json:"gameId"`
}

// FreeSessionDeadlineMsg tells a free-tier participant when their session
// ends, sent at join time so the client can render a countdown.
type FreeSessionDeadlineMsg struct {
	Type     string    `json:"type"`
	Deadline time.Time `json:"deadline"`
}

// FreeSessionExpiredMsg tells one participant (not the room) that their
// free-tier session ended.
type FreeSessionExpiredMsg struct {
	Type string `json:"type"`
}
