package server

import (
	"errors"
	"net/http"

	"github.com/forkreel/forkreel/internal/session"
)

// CreateSessionResponse returns the bearer token the client uses for all
// subsequent session calls.
type CreateSessionResponse struct {
	Token   string         `json:"token"`
	Session *session.State `json:"session"`
}

// SessionResponse wraps the current session state.
type SessionResponse struct {
	Session *session.State `json:"session"`
}

func handleCreateSession(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, token, err := store.CreateSession(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, CreateSessionResponse{Token: token, Session: st})
	}
}

func handleGetSession(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := sessionFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}
		writeJSON(w, http.StatusOK, SessionResponse{Session: st})
	}
}

func handleEndSession(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := sessionFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}
		// Fire-and-forget from the client's perspective; an error here must
		// not block teardown.
		if err := store.EndSession(r.Context(), st.ID); err != nil && !errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
