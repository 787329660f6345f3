package server

import (
	"net/http"
)

// handleLogIntervention records one analytics event. The endpoint always
// answers 202: logging must never block or fail the shooting flow.
func handleLogIntervention(store Store) http.HandlerFunc {
	type request struct {
		RunID     string `json:"runId"`
		Kind      string `json:"kind"`
		Payload   string `json:"payload"`
		ElapsedMS int    `json:"elapsedMs"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		st, err := sessionFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		var req request
		if err := readJSON(r, &req); err != nil || req.Kind == "" {
			writeError(w, http.StatusBadRequest, "kind is required")
			return
		}

		// Best effort: a storage error is not the client's problem.
		_ = store.LogIntervention(r.Context(), st.ID, req.RunID, req.Kind, req.Payload, req.ElapsedMS)

		w.WriteHeader(http.StatusAccepted)
	}
}
