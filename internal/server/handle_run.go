package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/forkreel/forkreel/internal/session"
)

// handleCreateRun starts a new recording attempt. Any previous run is
// replaced; only the latest run is tracked.
func handleCreateRun(store Store, broker *Broker) http.HandlerFunc {
	type request struct {
		ForkNodeID string `json:"forkNodeId"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		st, err := sessionFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		var req request
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		runID := uuid.NewString()
		st.SetRunCreated(runID, req.ForkNodeID, time.Now().UTC())
		st.AdvancePhase(session.PhaseShoot)

		if err := store.SaveSession(r.Context(), st); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(st.ID, SessionEvent{Type: "run_created", RunID: runID})
		writeJSON(w, http.StatusCreated, SessionResponse{Session: st})
	}
}

// handleRunStatus advances the run lifecycle. Backward transitions are
// rejected and the stored status is untouched; a run that started shooting
// can never report idle again.
func handleRunStatus(logger *slog.Logger, store Store, broker *Broker) http.HandlerFunc {
	type request struct {
		Status session.RunStatus `json:"status"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		st, err := sessionFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		var req request
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		switch err := st.AdvanceRunStatus(req.Status); {
		case errors.Is(err, session.ErrNoRun):
			writeError(w, http.StatusConflict, "no active run")
			return
		case errors.Is(err, session.ErrInvalidStatus):
			writeError(w, http.StatusBadRequest, "unknown run status")
			return
		case errors.Is(err, session.ErrStatusRegression):
			logger.Warn("run status regression ignored",
				"session_id", st.ID,
				"run_id", st.Run.ID,
				"current", st.Run.Status,
				"requested", req.Status,
			)
			writeError(w, http.StatusConflict, "run status cannot move backward")
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if req.Status == session.RunSubmitted {
			st.AdvancePhase(session.PhaseSubmit)
		}

		if err := store.SaveSession(r.Context(), st); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(st.ID, SessionEvent{
			Type:   "run_status",
			RunID:  st.Run.ID,
			Status: string(st.Run.Status),
		})
		writeJSON(w, http.StatusOK, SessionResponse{Session: st})
	}
}
