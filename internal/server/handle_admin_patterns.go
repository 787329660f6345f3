package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/forkreel/forkreel/internal/guide"
)

func handleAdminListPatterns(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patterns, err := store.ListPatterns(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, patterns)
	}
}

func handleAdminGetPattern(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := store.GetPattern(r.Context(), chi.URLParam(r, "patternID"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "pattern not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, doc)
	}
}

// handleAdminUpsertPattern creates or replaces one catalog document. The body
// is the full document; partial updates are not supported.
func handleAdminUpsertPattern(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var doc guide.PatternResponse
		if err := readJSON(r, &doc); err != nil {
			writeError(w, http.StatusBadRequest, "invalid pattern document")
			return
		}

		if id := chi.URLParam(r, "patternID"); id != "" {
			doc.ID = id
		}
		if doc.ID == "" {
			writeError(w, http.StatusBadRequest, "pattern id is required")
			return
		}

		if err := store.UpsertPattern(r.Context(), doc); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, doc)
	}
}

func handleAdminDeletePattern(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.DeletePattern(r.Context(), chi.URLParam(r, "patternID"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "pattern not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
