package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// streamHeartbeat keeps intermediaries from closing an idle SSE connection.
const streamHeartbeat = 25 * time.Second

// handleTallyStream pushes tally snapshots over Server-Sent Events. The
// client gets one snapshot immediately, then a fresh one after every
// committed vote. Signals coalesce, so a burst of votes produces a single
// rebuilt snapshot.
func (h *handler) handleTallyStream(w http.ResponseWriter, r *http.Request) {

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := h.subs.Subscribe()
	defer cancel()

	positionID := r.URL.Query().Get("position_id")

	send := func() bool {
		snap, err := h.tally.Build(r.Context(), positionID)
		if err != nil {
			h.logger.Error(r.Context(), "tally stream build failed", "error", err.Error())
			return false
		}
		payload, err := json.Marshal(tallyToResponse(snap))
		if err != nil {
			return false
		}
		if _, err := fmt.Fprintf(w, "event: tally\ndata: %s\n\n", payload); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !send() {
		return
	}

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ch:
			if !send() {
				return
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
