package wsutil

import "log/slog"

// SafeSend sends data to a client channel without panicking if the channel
// is closed, which can happen when the hub unregisters a client between the
// lookup and the send. A full channel drops the message; snapshots are
// idempotent so the next one covers the loss.
func SafeSend(ch chan []byte, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("send to closed client channel", "tag", "ws", "recovered", r)
		}
	}()
	select {
	case ch <- data:
	default:
	}
}
