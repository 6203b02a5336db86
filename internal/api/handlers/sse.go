package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// SSEWriter streams named events as text/event-stream frames.
type SSEWriter struct {
	w   http.ResponseWriter
	rc  *http.ResponseController
	ctx context.Context
}

// NewSSEWriter commits the event-stream headers; nothing else may be written to w afterwards.
func NewSSEWriter(w http.ResponseWriter, r *http.Request) *SSEWriter {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	return &SSEWriter{w: w, rc: http.NewResponseController(w), ctx: r.Context()}
}

// Send writes one frame. Strings go out verbatim, anything else as JSON.
// It fails once the client has gone away.
func (s *SSEWriter) Send(event string, data any) error {
	if err := s.ctx.Err(); err != nil {
		return err
	}
	payload, ok := data.(string)
	if !ok {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("encode %s event: %w", event, err)
		}
		payload = string(raw)
	}

	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(event)
	b.WriteByte('\n')
	for _, line := range strings.Split(payload, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	if _, err := s.w.Write([]byte(b.String())); err != nil {
		return err
	}
	return s.rc.Flush()
}
