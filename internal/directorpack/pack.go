// Package directorpack defines the DirectorPack document model and the pure
// projection that turns a pack into the displayable shooting guide.
package directorpack

// Priority is the four-level urgency scale shared by DNA invariants and live
// coaching messages.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Rank returns the sort rank for a priority. Unknown or unset priorities sort
// after low.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// Pack is a versioned DirectorPack document as supplied by the catalog. It is
// read-only to this package; extraction never mutates it.
type Pack struct {
	Version           string         `json:"version"`
	Title             string         `json:"title"`
	BPM               int            `json:"bpm"`
	DurationTargetSec int            `json:"duration_target_sec"`
	Goal              string         `json:"goal"`
	DNAInvariants     []DNAInvariant `json:"dna_invariants"`
	Checkpoints       []Checkpoint   `json:"checkpoints"`
	MutationSlots     []MutationSlot `json:"mutation_slots"`
}

// DNAInvariant is a rule that stays constant across all remixes of a pattern.
type DNAInvariant struct {
	RuleID    string   `json:"rule_id"`
	Domain    string   `json:"domain"`
	Priority  Priority `json:"priority"`
	CheckHint string   `json:"check_hint"`
	// CoachLines maps a persona ("friendly", "neutral") to a coaching line.
	CoachLines map[string]string `json:"coach_line_templates"`
}

// Checkpoint is a fractional time window tagged with the invariant rules
// active during that window. TWindow values are fractions of
// DurationTargetSec in [0,1].
type Checkpoint struct {
	CheckpointID string     `json:"checkpoint_id"`
	TWindow      [2]float64 `json:"t_window"`
	ActiveRules  []string   `json:"active_rules"`
	Note         string     `json:"note"`
}

// MutationSlot is a pack-defined customization point. Only Guide feeds the
// extracted tips; the slot value itself lives on the session.
type MutationSlot struct {
	SlotID string `json:"slot_id"`
	Label  string `json:"label"`
	Guide  string `json:"guide"`
}

// GuideData is the normalized guide consumed by the pre-shoot screen and the
// in-camera overlay. It is a view projection: recomputed on every pack load,
// never patched in place.
type GuideData struct {
	Title    string      `json:"title"`
	BPM      int         `json:"bpm"`
	Duration int         `json:"duration"`
	Goal     string      `json:"goal"`
	IsLive   bool        `json:"isLive"`
	Steps    []GuideStep `json:"steps"`
	Tips     []string    `json:"tips"`
}

// GuideStep is one displayable instruction. Priority, RuleID and Reason are
// optional; an absent Reason means the UI skips that line entirely.
type GuideStep struct {
	Time     string   `json:"time"`
	Action   string   `json:"action"`
	Icon     string   `json:"icon"`
	Priority Priority `json:"priority,omitempty"`
	RuleID   string   `json:"ruleId,omitempty"`
	Reason   string   `json:"reason,omitempty"`
}
