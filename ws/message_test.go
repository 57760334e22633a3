package ws

import (
	"encoding/json"
	"testing"
)

func TestInboundEnvelopeKeepsRawPayload(t *testing.T) {
	data := []byte(`{"type":"joinRoom","gameId":"1234","playerId":"player2","token":"abc"}`)

	var env InboundEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.Type != "joinRoom" {
		t.Errorf("type = %q", env.Type)
	}

	var msg JoinRoomMsg
	if err := json.Unmarshal(env.Raw, &msg); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if msg.RoomCode != "1234" || msg.PlayerID != "player2" || msg.Token != "abc" {
		t.Errorf("payload = %+v", msg)
	}
}

func TestInboundEnvelopeRejectsGarbage(t *testing.T) {
	var env InboundEnvelope
	if err := json.Unmarshal([]byte(`not json`), &env); err == nil {
		t.Error("expected error")
	}
}
