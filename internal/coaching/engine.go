package coaching

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/forkreel/forkreel/internal/directorpack"
)

// Cue is one scheduled coaching message, keyed to recording elapsed time.
type Cue struct {
	At      time.Duration
	Message Message
}

// Engine streams cues for one recording attempt. Cues are derived from the
// pattern's DirectorPack checkpoints: each window opens with a graphic guide
// and a text-coach line, and once the final window passes the strongest
// domain signal is promoted. Feedback frames get adaptive responses keyed to
// whichever checkpoint the elapsed time falls in.
type Engine struct {
	pack   directorpack.Pack
	rules  map[string]directorpack.DNAInvariant
	cues   []Cue
	logger *slog.Logger
}

// NewEngine builds the cue schedule for pack.
func NewEngine(pack directorpack.Pack, logger *slog.Logger) *Engine {
	e := &Engine{
		pack:   pack,
		rules:  make(map[string]directorpack.DNAInvariant, len(pack.DNAInvariants)),
		logger: logger,
	}
	for _, inv := range pack.DNAInvariants {
		e.rules[inv.RuleID] = inv
	}
	e.cues = e.buildCues()
	return e
}

// Cues returns the schedule, ordered by time.
func (e *Engine) Cues() []Cue {
	out := make([]Cue, len(e.cues))
	copy(out, e.cues)
	return out
}

// Run streams the schedule through send, measuring elapsed time from the
// moment of the call (the control start frame). It returns when the schedule
// is exhausted, send fails, or ctx is done.
func (e *Engine) Run(ctx context.Context, send func(Message) error) {
	start := time.Now()
	for _, cue := range e.cues {
		if wait := cue.At - time.Since(start); wait > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
		if err := send(cue.Message); err != nil {
			e.logger.Debug("cue send failed", "error", err)
			return
		}
	}
}

// Adapt answers a feedback frame relative to where the recording is.
func (e *Engine) Adapt(elapsedSec float64, text string) AdaptiveResponse {
	resp := AdaptiveResponse{
		Priority:   directorpack.PriorityMedium,
		ElapsedSec: elapsedSec,
		Text:       "좋아요, 그대로 이어가세요",
	}

	cp, ok := e.checkpointAt(elapsedSec)
	if !ok {
		return resp
	}

	if inv, ok := e.topRule(cp); ok {
		resp.Priority = inv.Priority
		resp.Text = fmt.Sprintf("지금 구간 포인트: %s", directorpack.ActionLine(inv))
	} else if cp.Note != "" {
		resp.Text = fmt.Sprintf("지금 구간 포인트: %s", cp.Note)
	}
	return resp
}

func (e *Engine) buildCues() []Cue {
	var cues []Cue
	duration := e.pack.DurationTargetSec
	var lastEnd time.Duration

	for _, cp := range e.pack.Checkpoints {
		at := fractionToDuration(cp.TWindow[0], duration)
		end := fractionToDuration(cp.TWindow[1], duration)
		if end > lastEnd {
			lastEnd = end
		}

		inv, ok := e.topRule(cp)
		if !ok && cp.Note == "" {
			continue
		}

		label := cp.Note
		priority := directorpack.PriorityMedium
		line := cp.Note
		if ok {
			priority = inv.Priority
			line = directorpack.ActionLine(inv)
			if label == "" {
				label = inv.Domain
			}
		}

		cues = append(cues, Cue{
			At: at,
			Message: GraphicGuide{
				Priority:   priority,
				Shape:      "frame",
				Anchor:     [2]float64{0.5, 0.5},
				Label:      label,
				DurationMS: int((end - at) / time.Millisecond),
			},
		})
		cues = append(cues, Cue{
			At: at,
			Message: TextCoach{
				ID:       cp.CheckpointID,
				Priority: priority,
				Text:     line,
			},
		})
	}

	if signal := e.dominantDomain(); signal != "" {
		cues = append(cues, Cue{
			At: lastEnd,
			Message: SignalPromotion{
				Priority: directorpack.PriorityHigh,
				Signal:   signal,
				Note:     "이번 런에서 가장 강하게 잡힌 시그널이에요",
			},
		})
	}
	return cues
}

// topRule picks the most urgent resolved rule of a checkpoint. Unresolved
// rule ids are dropped.
func (e *Engine) topRule(cp directorpack.Checkpoint) (directorpack.DNAInvariant, bool) {
	var (
		best  directorpack.DNAInvariant
		found bool
	)
	for _, id := range cp.ActiveRules {
		inv, ok := e.rules[id]
		if !ok {
			continue
		}
		if !found || inv.Priority.Rank() < best.Priority.Rank() {
			best = inv
			found = true
		}
	}
	return best, found
}

func (e *Engine) checkpointAt(elapsedSec float64) (directorpack.Checkpoint, bool) {
	if e.pack.DurationTargetSec <= 0 {
		return directorpack.Checkpoint{}, false
	}
	frac := elapsedSec / float64(e.pack.DurationTargetSec)
	for _, cp := range e.pack.Checkpoints {
		if frac >= cp.TWindow[0] && frac <= cp.TWindow[1] {
			return cp, true
		}
	}
	return directorpack.Checkpoint{}, false
}

// dominantDomain is the domain of the most urgent invariant, ties broken by
// declaration order.
func (e *Engine) dominantDomain() string {
	var (
		best string
		rank = math.MaxInt
	)
	for _, inv := range e.pack.DNAInvariants {
		if inv.Domain != "" && inv.Priority.Rank() < rank {
			best = inv.Domain
			rank = inv.Priority.Rank()
		}
	}
	return best
}

func fractionToDuration(frac float64, durationSec int) time.Duration {
	return time.Duration(math.Round(frac*float64(durationSec)*1000)) * time.Millisecond
}
