package server

import (
	"errors"
	"net/http"

	"github.com/forkreel/forkreel/internal/directorpack"
	"github.com/forkreel/forkreel/internal/guide"
)

// GuideResponse always carries a renderable guide. Notice is the user-legible
// advisory for degraded cases; it is empty when the curated pack loaded.
type GuideResponse struct {
	Guide           directorpack.GuideData   `json:"guide"`
	StepsByPriority []directorpack.GuideStep `json:"stepsByPriority"`
	Notice          string                   `json:"notice,omitempty"`
	Retryable       bool                     `json:"retryable"`
}

// handleSessionGuide resolves the session's selected pattern into a shooting
// guide. This endpoint never 500s on catalog problems: any failure degrades
// to the static fallback guide plus an advisory notice.
func handleSessionGuide(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := sessionFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		patternID := ""
		if st.SelectedPattern != nil {
			patternID = st.SelectedPattern.ID
		}
		if q := r.URL.Query().Get("patternId"); q != "" {
			patternID = q
		}

		var (
			g        directorpack.GuideData
			advisory error
		)
		switch {
		case patternID == "":
			g = directorpack.FallbackGuide()
			advisory = guide.ErrNoPattern
		default:
			doc, err := store.GetPattern(r.Context(), patternID)
			switch {
			case errors.Is(err, ErrNotFound):
				g = directorpack.FallbackGuide()
				advisory = guide.ErrNotFound
			case err != nil:
				g = directorpack.FallbackGuide()
				advisory = err
			default:
				g = guide.Normalize(doc)
			}
		}

		writeJSON(w, http.StatusOK, GuideResponse{
			Guide:           g,
			StepsByPriority: directorpack.Sorted(g.Steps),
			Notice:          guide.UserMessage(advisory),
			Retryable:       guide.Retryable(advisory),
		})
	}
}
