package events

import (
	"context"
	"log/slog"
)

const previewRunes = 120

// LogEvent logs an event at INFO (name, fan-out) and its payload size at
// DEBUG with a short preview.
func LogEvent(e Event, subscribers int) {
	slog.Info("event", "name", e.Name, "subscribers", subscribers)

	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) || len(e.Payload) == 0 {
		return
	}
	slog.Debug("event payload", "name", e.Name, "size_bytes", len(e.Payload), "preview", payloadPreview(e.Payload))
}

// payloadPreview cuts on a rune boundary so the log line stays valid UTF-8.
func payloadPreview(payload []byte) string {
	r := []rune(string(payload))
	if len(r) <= previewRunes {
		return string(r)
	}
	return string(r[:previewRunes]) + "…"
}
