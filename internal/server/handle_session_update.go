package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/forkreel/forkreel/internal/session"
)

// saveAndRespond persists the mutated state and writes it back to the client.
func saveAndRespond(w http.ResponseWriter, r *http.Request, store Store, st *session.State) {
	if err := store.SaveSession(r.Context(), st); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{Session: st})
}

// handleRoute applies deep-link context (shared pattern link, track tab) to
// the session. Safe to repeat: the funnel never regresses.
func handleRoute(store Store) http.HandlerFunc {
	type request struct {
		PatternID string `json:"patternId"`
		Tab       string `json:"tab"`
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

		st.InitFromRoute(req.PatternID, req.Tab)

		// Hydrate a bare deep-link ref from the catalog when we can; a miss
		// is fine, the ID alone is enough to load the guide later.
		if st.SelectedPattern != nil && st.SelectedPattern.Title == "" {
			if doc, err := store.GetPattern(r.Context(), st.SelectedPattern.ID); err == nil {
				st.SelectedPattern.Title = doc.Title
				st.SelectedPattern.Tier = doc.Tier
			}
		}

		saveAndRespond(w, r, store, st)
	}
}

func handleAdvancePhase(logger *slog.Logger, store Store) http.HandlerFunc {
	type request struct {
		Phase session.Phase `json:"phase"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		st, err := sessionFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		var req request
		if err := readJSON(r, &req); err != nil || !req.Phase.Valid() {
			writeError(w, http.StatusBadRequest, "unknown phase")
			return
		}

		if !st.AdvancePhase(req.Phase) {
			logger.Info("phase advance ignored", "session_id", st.ID, "current", st.Phase, "requested", req.Phase)
		}

		saveAndRespond(w, r, store, st)
	}
}

func handleSetMode(store Store) http.HandlerFunc {
	type request struct {
		Mode session.Mode `json:"mode"`
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

		st.SetMode(req.Mode)
		saveAndRespond(w, r, store, st)
	}
}

// handleSelectPattern replaces the session's selected pattern wholesale and
// loads the pack's mutation slots as the session's customization slots.
func handleSelectPattern(store Store) http.HandlerFunc {
	type request struct {
		PatternID string `json:"patternId"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		st, err := sessionFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		var req request
		if err := readJSON(r, &req); err != nil || req.PatternID == "" {
			writeError(w, http.StatusBadRequest, "patternId is required")
			return
		}

		doc, err := store.GetPattern(r.Context(), req.PatternID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "pattern not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		st.SetSelectedPattern(session.PatternRef{
			ID:    doc.ID,
			Title: doc.Title,
			Tier:  doc.Tier,
		})

		var slots []session.Slot
		if doc.DirectorPack != nil {
			for _, ms := range doc.DirectorPack.MutationSlots {
				slots = append(slots, session.Slot{
					ID:    ms.SlotID,
					Kind:  session.SlotText,
					Value: "",
				})
			}
		}
		st.SetSlots(slots)
		st.AdvancePhase(session.PhaseSetup)

		saveAndRespond(w, r, store, st)
	}
}

func handleAcceptQuest(store Store, broker *Broker) http.HandlerFunc {
	type request struct {
		ID           string `json:"id"`
		RewardPoints int    `json:"rewardPoints"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		st, err := sessionFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		var req request
		if err := readJSON(r, &req); err != nil || req.ID == "" {
			writeError(w, http.StatusBadRequest, "quest id is required")
			return
		}

		// A second accept is silently ignored; the session keeps its first
		// quest.
		if st.AcceptQuest(session.Quest{ID: req.ID, RewardPoints: req.RewardPoints}) {
			broker.Publish(st.ID, SessionEvent{Type: "quest_accepted", QuestID: req.ID})
		}

		saveAndRespond(w, r, store, st)
	}
}

func handlePatchSlot(store Store) http.HandlerFunc {
	type request struct {
		Value any `json:"value"`
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

		// Unknown slot ids are a no-op: the UI may be patching against a
		// stale slot set.
		st.PatchSlot(chi.URLParam(r, "slotID"), req.Value)
		saveAndRespond(w, r, store, st)
	}
}
