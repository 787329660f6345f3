// Package guide turns a raw pattern document into displayable GuideData,
// degrading through fallback tiers so the shoot screen always has a guide to
// render, and provides the HTTP fetcher the capture clients use against the
// pattern API.
package guide

import (
	"encoding/json"

	"github.com/forkreel/forkreel/internal/directorpack"
)

// PatternResponse is the wire shape of GET /api/v1/for-you/{patternId} and
// GET /api/v1/outliers/items/{id}. Every enrichment field is optional and
// handled independently — see the tier chain in normalize.go.
type PatternResponse struct {
	ID            string             `json:"id"`
	Title         string             `json:"title"`
	Tier          string             `json:"tier,omitempty"`
	Category      string             `json:"category,omitempty"`
	Evidence      json.RawMessage    `json:"evidence,omitempty"`
	DirectorPack  *directorpack.Pack `json:"director_pack,omitempty"`
	Analysis      *Analysis          `json:"analysis,omitempty"`
	ShootingGuide *ShootingGuide     `json:"shooting_guide,omitempty"`
}

// Analysis carries heuristic checkpoints produced by video analysis when no
// curated DirectorPack exists yet.
type Analysis struct {
	DurationSec int                  `json:"duration_sec,omitempty"`
	Checkpoints []AnalysisCheckpoint `json:"checkpoints"`
}

// AnalysisCheckpoint is a bare time window with a note; no rules attached.
type AnalysisCheckpoint struct {
	TWindow [2]float64 `json:"t_window"`
	Note    string     `json:"note"`
}

// ShootingGuide carries viral "kicks": raw moments worth hitting, in
// milliseconds from clip start.
type ShootingGuide struct {
	Kicks []Kick `json:"kicks"`
}

// Kick is one such moment.
type Kick struct {
	TimeMS int    `json:"time_ms"`
	Label  string `json:"label"`
}
