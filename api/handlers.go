package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"sparked-server/config"
	"sparked-server/game"
	"sparked-server/gameerrors"
	"sparked-server/media"
	"sparked-server/rooms"
)

// Broadcaster pushes room events to connected websocket clients. The api
// package calls it after every accepted mutation; the ws Hub implements it.
type Broadcaster interface {
	BroadcastGameState(roomCode string, snap *game.Snapshot)
	BroadcastChat(roomCode string, msg game.ChatMessage)
	BroadcastPlayerJoined(roomCode string, slot game.Slot)
	BroadcastRoomDeleted(roomCode string)
}

// Handler holds dependencies for API handlers.
type Handler struct {
	Config   *config.Config
	Registry *rooms.Registry
	Media    media.Store
	Notify   Broadcaster
}

// NewHandler creates a new API handler with the given dependencies.
func NewHandler(cfg *config.Config, registry *rooms.Registry, mediaStore media.Store, notify Broadcaster) *Handler {
	return &Handler{
		Config:   cfg,
		Registry: registry,
		Media:    mediaStore,
		Notify:   notify,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encoding response", "tag", "api", "err", err)
	}
}

// writeGame sends the canonical success envelope: the full snapshot, never
// a delta, so retried or reordered responses stay safe to apply.
func writeGame(w http.ResponseWriter, g *game.Game) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"game":    g.Snapshot(),
	})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, gameerrors.ErrRoomNotFound) {
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"reason":  err.Error(),
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, errors.New("invalid request body"))
		return false
	}
	return true
}

func (h *Handler) slotFromRequest(w http.ResponseWriter, playerID string) (game.Slot, bool) {
	slot, err := game.ParseSlot(playerID)
	if err != nil {
		writeError(w, err)
		return 0, false
	}
	return slot, true
}

func (h *Handler) cleanName(name string) string {
	name = strings.TrimSpace(name)
	if len(name) > h.Config.MaxNameLength {
		name = name[:h.Config.MaxNameLength]
	}
	return name
}

// CreateGame allocates a room code, deals both hands and returns the waiting
// game with the creator seated as player1.
func (h *Handler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerName string `json:"playerName"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	name := h.cleanName(req.PlayerName)
	if name == "" {
		writeError(w, errors.New("playerName is required"))
		return
	}

	g, err := h.Registry.CreateRoom(r.Context(), name)
	if err != nil {
		slog.Error("creating room", "tag", "api", "err", err)
		writeError(w, err)
		return
	}
	slog.Info("room created", "tag", "api", "room", g.RoomCode)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"roomCode": g.RoomCode,
		"playerId": game.Player1.String(),
		"game":     g.Snapshot(),
	})
}

// JoinGame seats the second player and flips the room to playing.
func (h *Handler) JoinGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomCode   string `json:"roomCode"`
		PlayerName string `json:"playerName"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	name := h.cleanName(req.PlayerName)
	if name == "" {
		writeError(w, errors.New("playerName is required"))
		return
	}

	g, err := h.Registry.Update(r.Context(), strings.TrimSpace(req.RoomCode), func(g *game.Game) error {
		return g.Join(name)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	slog.Info("player joined", "tag", "api", "room", g.RoomCode)
	h.Notify.BroadcastGameState(g.RoomCode, g.Snapshot())
	h.Notify.BroadcastPlayerJoined(g.RoomCode, game.Player2)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"playerId": game.Player2.String(),
		"game":     g.Snapshot(),
	})
}

// GetGame returns the current snapshot. Clients use it as the one-shot
// reconnect path before opening a socket.
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	roomCode := muxVar(r, "roomCode")
	g, err := h.Registry.View(r.Context(), roomCode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeGame(w, g)
}

// DeleteGame removes the room and tells everyone still connected.
func (h *Handler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	roomCode := muxVar(r, "roomCode")
	if err := h.Registry.DeleteRoom(r.Context(), roomCode); err != nil {
		writeError(w, err)
		return
	}
	h.Notify.BroadcastRoomDeleted(roomCode)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// mutate runs fn under the room lock and, on success, responds with the new
// snapshot and broadcasts it.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, fn func(*game.Game) error) {
	roomCode := muxVar(r, "roomCode")
	g, err := h.Registry.Update(r.Context(), roomCode, fn)
	if err != nil {
		writeError(w, err)
		return
	}
	h.Notify.BroadcastGameState(roomCode, g.Snapshot())
	writeGame(w, g)
}

// PlayCard plays a card from the actor's hand onto the discard pile.
func (h *Handler) PlayCard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string `json:"playerId"`
		CardUID  string `json:"cardUid"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	actor, ok := h.slotFromRequest(w, req.PlayerID)
	if !ok {
		return
	}
	h.mutate(w, r, func(g *game.Game) error {
		return g.PlayCard(actor, req.CardUID)
	})
}

// PickColor resolves a pending wild-card color choice.
func (h *Handler) PickColor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string `json:"playerId"`
		Color    string `json:"color"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	actor, ok := h.slotFromRequest(w, req.PlayerID)
	if !ok {
		return
	}
	h.mutate(w, r, func(g *game.Game) error {
		return g.PickColor(actor, game.Color(req.Color))
	})
}

// SubmitProof attaches task proof and hands judgment to the opponent.
func (h *Handler) SubmitProof(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID  string `json:"playerId"`
		ProofURL  string `json:"proofUrl"`
		ProofType string `json:"proofType"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	actor, ok := h.slotFromRequest(w, req.PlayerID)
	if !ok {
		return
	}
	h.mutate(w, r, func(g *game.Game) error {
		return g.SubmitProof(actor, req.ProofURL, req.ProofType)
	})
}

// SkipProof abandons the pending task for a two-card penalty.
func (h *Handler) SkipProof(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string `json:"playerId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	actor, ok := h.slotFromRequest(w, req.PlayerID)
	if !ok {
		return
	}
	h.mutate(w, r, func(g *game.Game) error {
		return g.SkipProof(actor)
	})
}

// VerifyTask records the target's judgment on the submitted proof.
func (h *Handler) VerifyTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string `json:"playerId"`
		Success  bool   `json:"success"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	actor, ok := h.slotFromRequest(w, req.PlayerID)
	if !ok {
		return
	}
	h.mutate(w, r, func(g *game.Game) error {
		return g.VerifyChallenge(actor, req.Success)
	})
}

// DrawCard pops one card off the deck and hands it to the client, which holds
// it until add-to-hand confirms it.
func (h *Handler) DrawCard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string `json:"playerId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	actor, ok := h.slotFromRequest(w, req.PlayerID)
	if !ok {
		return
	}
	roomCode := muxVar(r, "roomCode")
	var drawn game.Card
	g, err := h.Registry.Update(r.Context(), roomCode, func(g *game.Game) error {
		var err error
		drawn, err = g.DrawCard(actor)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.Notify.BroadcastGameState(roomCode, g.Snapshot())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"card":    drawn,
		"game":    g.Snapshot(),
	})
}

// AddToHand finalizes a drawn card into the actor's hand and passes the turn.
func (h *Handler) AddToHand(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string    `json:"playerId"`
		Card     game.Card `json:"card"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	actor, ok := h.slotFromRequest(w, req.PlayerID)
	if !ok {
		return
	}
	h.mutate(w, r, func(g *game.Game) error {
		return g.AddDrawnCardToHand(actor, req.Card)
	})
}

// PostChat appends a chat message and broadcasts only the delta.
func (h *Handler) PostChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string `json:"playerId"`
		Text     string `json:"text"`
		Type     string `json:"type"`
		URL      string `json:"url"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	actor, ok := h.slotFromRequest(w, req.PlayerID)
	if !ok {
		return
	}
	if req.Type == "" {
		req.Type = "text"
	}
	msg := game.ChatMessage{
		Sender:    actor,
		Text:      req.Text,
		Type:      req.Type,
		URL:       req.URL,
		Timestamp: time.Now().UTC(),
	}
	roomCode := muxVar(r, "roomCode")
	_, err := h.Registry.Update(r.Context(), roomCode, func(g *game.Game) error {
		g.AppendChat(msg, h.Config.ChatLimit)
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.Notify.BroadcastChat(roomCode, msg)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": msg,
	})
}

// UploadMedia stores a video or audio blob and returns its URL.
func (h *Handler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(h.Config.UploadMaxMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeError(w, errors.New("file too large or malformed upload"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, errors.New("file field is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	url, mediaType, err := h.Media.Save(file, header.Filename, contentType)
	if err != nil {
		writeError(w, err)
		return
	}
	slog.Info("media uploaded", "tag", "api", "type", mediaType, "size", header.Size)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"url":     url,
		"type":    mediaType,
	})
}
