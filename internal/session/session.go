// Package session models the remix-session funnel: where a user is between
// discovering an outlier and tracking a submitted remix, and the context that
// travels with that position.
//
// State is mutated only through the named operations below; callers never
// write fields directly. Operations are defensive: invariant violations are
// reported, not thrown, so a racing UI can never wedge a session.
package session

import (
	"errors"
	"time"
)

// Phase is the funnel position. Phases only ever advance within a session.
type Phase string

const (
	PhaseDiscover Phase = "discover"
	PhaseSetup    Phase = "setup"
	PhaseShoot    Phase = "shoot"
	PhaseSubmit   Phase = "submit"
	PhaseTrack    Phase = "track"
)

var phaseRank = map[Phase]int{
	PhaseDiscover: 0,
	PhaseSetup:    1,
	PhaseShoot:    2,
	PhaseSubmit:   3,
	PhaseTrack:    4,
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	_, ok := phaseRank[p]
	return ok
}

// Mode is the simple/pro toggle. It is orthogonal to Phase.
type Mode string

const (
	ModeSimple Mode = "simple"
	ModePro    Mode = "pro"
)

// RunStatus is the lifecycle of a recording attempt. Transitions are
// monotonic: idle → shooting → submitted, never backward.
type RunStatus string

const (
	RunIdle      RunStatus = "idle"
	RunShooting  RunStatus = "shooting"
	RunSubmitted RunStatus = "submitted"
)

var runStatusRank = map[RunStatus]int{
	RunIdle:      0,
	RunShooting:  1,
	RunSubmitted: 2,
}

// Valid reports whether s is a known run status.
func (s RunStatus) Valid() bool {
	_, ok := runStatusRank[s]
	return ok
}

var (
	// ErrStatusRegression is returned when a run status would move backward.
	// The store keeps the prior status; callers log and move on.
	ErrStatusRegression = errors.New("run status regression")

	// ErrNoRun is returned for run operations before a run exists.
	ErrNoRun = errors.New("no active run")

	// ErrInvalidStatus is returned for an unrecognized run status.
	ErrInvalidStatus = errors.New("invalid run status")
)

// PatternRef identifies the selected outlier/pattern. Set wholesale, never
// merged field-by-field.
type PatternRef struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Signature  string  `json:"signature,omitempty"`
	FitScore   float64 `json:"fitScore,omitempty"`
	Tier       string  `json:"tier,omitempty"`
	Recurrence string  `json:"recurrence,omitempty"`
}

// Quest is an accepted campaign. At most one per session.
type Quest struct {
	ID           string `json:"id"`
	RewardPoints int    `json:"rewardPoints"`
	Accepted     bool   `json:"accepted"`
}

// Run is the latest recording attempt. Only the latest run is kept.
type Run struct {
	ID         string    `json:"id"`
	ForkNodeID string    `json:"forkNodeId,omitempty"`
	Status     RunStatus `json:"status"`
	StartedAt  time.Time `json:"startedAt"`
}

// SlotKind is the value type of a customization slot.
type SlotKind string

const (
	SlotText   SlotKind = "text"
	SlotNumber SlotKind = "number"
	SlotToggle SlotKind = "toggle"
	SlotChoice SlotKind = "choice"
)

// Slot is a pre-shoot customization parameter. Slots are server-defined; the
// UI only patches values.
type Slot struct {
	ID       string   `json:"id"`
	Kind     SlotKind `json:"kind"`
	Value    any      `json:"value"`
	Required bool     `json:"required"`
}

// State is the single source of truth for one user session.
type State struct {
	ID              string      `json:"id"`
	Phase           Phase       `json:"phase"`
	Mode            Mode        `json:"mode"`
	SelectedPattern *PatternRef `json:"selectedPattern,omitempty"`
	Quest           *Quest      `json:"quest,omitempty"`
	Run             *Run        `json:"run,omitempty"`
	Slots           []Slot      `json:"slots"`
}

// New returns a fresh session at the top of the funnel.
func New(id string) *State {
	return &State{
		ID:    id,
		Phase: PhaseDiscover,
		Mode:  ModeSimple,
		Slots: []Slot{},
	}
}

// InitFromRoute applies deep-link context. Idempotent: re-applying the same
// route changes nothing, and the phase never regresses regardless of input.
func (s *State) InitFromRoute(patternID, tab string) {
	if patternID != "" && (s.SelectedPattern == nil || s.SelectedPattern.ID != patternID) {
		s.SelectedPattern = &PatternRef{ID: patternID}
	}

	switch {
	case s.Run != nil:
		s.AdvancePhase(PhaseShoot)
	case s.SelectedPattern != nil:
		s.AdvancePhase(PhaseSetup)
	}

	if tab == string(PhaseTrack) && s.Run != nil && s.Run.Status == RunSubmitted {
		s.AdvancePhase(PhaseTrack)
	}
}

// AdvancePhase moves the funnel forward. Backward or unknown targets are
// no-ops; the return value reports whether the phase changed.
func (s *State) AdvancePhase(p Phase) bool {
	rank, ok := phaseRank[p]
	if !ok || rank <= phaseRank[s.Phase] {
		return false
	}
	s.Phase = p
	return true
}

// SetMode toggles between simple and pro. Unknown modes are ignored.
func (s *State) SetMode(m Mode) {
	if m == ModeSimple || m == ModePro {
		s.Mode = m
	}
}

// SetSelectedPattern replaces the selection wholesale. Resetting quest or run
// is the caller's responsibility.
func (s *State) SetSelectedPattern(p PatternRef) {
	s.SelectedPattern = &p
}

// AcceptQuest records the session's quest. If one is already accepted the
// call is a no-op and returns false — at-most-one-active-quest is enforced
// here, not by callers.
func (s *State) AcceptQuest(q Quest) bool {
	if s.Quest != nil {
		return false
	}
	q.Accepted = true
	s.Quest = &q
	return true
}

// SetRunCreated starts a new recording attempt, replacing any previous run.
func (s *State) SetRunCreated(runID, forkNodeID string, startedAt time.Time) {
	s.Run = &Run{
		ID:         runID,
		ForkNodeID: forkNodeID,
		Status:     RunIdle,
		StartedAt:  startedAt,
	}
}

// AdvanceRunStatus moves the run status forward. Repeating the current status
// is a harmless no-op; moving backward leaves the status unchanged and
// returns ErrStatusRegression for the caller to log.
func (s *State) AdvanceRunStatus(status RunStatus) error {
	if s.Run == nil {
		return ErrNoRun
	}
	rank, ok := runStatusRank[status]
	if !ok {
		return ErrInvalidStatus
	}
	cur := runStatusRank[s.Run.Status]
	if rank < cur {
		return ErrStatusRegression
	}
	s.Run.Status = status
	return nil
}

// SetSlots replaces the slot definitions (server-defined, e.g. when a pack
// loads).
func (s *State) SetSlots(slots []Slot) {
	if slots == nil {
		slots = []Slot{}
	}
	s.Slots = slots
}

// PatchSlot applies a single value change. An unknown slot id is a no-op,
// not an error: slots are server-defined and the UI may be momentarily
// stale. The return value reports whether a slot was patched.
func (s *State) PatchSlot(slotID string, value any) bool {
	for i := range s.Slots {
		if s.Slots[i].ID == slotID {
			s.Slots[i].Value = value
			return true
		}
	}
	return false
}
