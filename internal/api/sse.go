package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"comment-insights-go/internal/types"
)

// sseWriter writes each event as one "data: {json}" frame and flushes it.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	log     *logrus.Entry
	failed  bool
}

func newSSEWriter(w http.ResponseWriter, log *logrus.Entry) *sseWriter {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	f, _ := w.(http.Flusher)
	return &sseWriter{w: w, flusher: f, log: log}
}

func (s *sseWriter) Emit(e types.Event) {
	if s.failed {
		return
	}
	b, err := json.Marshal(e)
	if err != nil {
		s.log.WithError(err).Error("encode event")
		return
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", b); err != nil {
		// client went away; the request context stops the flow
		s.failed = true
		s.log.WithError(err).Debug("event stream closed")
		return
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
}
