package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// handleEvents streams the session's track-screen events over SSE. EventSource
// can't set headers, so auth rides the token query parameter.
func handleEvents(logger *slog.Logger, store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := sessionFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		flusher.Flush()

		ch := broker.Subscribe(st.ID)
		defer broker.Unsubscribe(st.ID, ch)

		logger.Info("sse subscriber connected", "session_id", st.ID)

		// Comment pings keep intermediaries from closing an idle stream.
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				logger.Info("sse subscriber disconnected", "session_id", st.ID)
				return
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
				flusher.Flush()
			case data := <-ch:
				fmt.Fprintf(w, "data: %s\n\n", data)
				flusher.Flush()
			}
		}
	}
}
