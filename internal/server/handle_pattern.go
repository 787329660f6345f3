package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleGetPattern serves one catalog document. Both the for-you feed and the
// outlier detail screen read the same shape.
func handleGetPattern(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "patternID")

		doc, err := store.GetPattern(r.Context(), id)
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

// handleListPatterns serves the catalog list view.
func handleListPatterns(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patterns, err := store.ListPatterns(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, patterns)
	}
}
