package coaching

import (
	"sync"
	"time"
)

// Display timing for queued text-coach messages.
const (
	DefaultDisplayDuration = 3000 * time.Millisecond
	FadeDuration           = 300 * time.Millisecond
)

// TextCoachQueue displays textual coaching messages sequentially: exactly one
// message is visible at a time, each auto-advances after its duration with a
// fade-out over the final 300ms, and completing a message invokes the
// completion callback with its id before the next one shows. An empty queue
// renders nothing.
//
// The queue owns its timers: Stop cancels them on teardown so no callback
// fires against unmounted state.
type TextCoachQueue struct {
	mu         sync.Mutex
	pending    []TextCoach
	current    *TextCoach
	fading     bool
	fadeTimer  *time.Timer
	advTimer   *time.Timer
	stopped    bool
	onComplete func(id string)
}

// NewTextCoachQueue returns a queue. onComplete may be nil; when set it is
// called with each message's id as the message finishes displaying.
func NewTextCoachQueue(onComplete func(id string)) *TextCoachQueue {
	return &TextCoachQueue{onComplete: onComplete}
}

// Push appends a message. If nothing is showing it becomes visible
// immediately; otherwise it waits its turn — a burst of messages is read
// one by one, never overwritten unread.
func (q *TextCoachQueue) Push(msg TextCoach) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return
	}
	if q.current == nil {
		q.showLocked(msg)
		return
	}
	q.pending = append(q.pending, msg)
}

// Current returns the visible message, if any, and whether it is in its
// fade-out window.
func (q *TextCoachQueue) Current() (TextCoach, bool, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current == nil {
		return TextCoach{}, false, false
	}
	return *q.current, true, q.fading
}

// Len returns the number of messages waiting behind the visible one.
func (q *TextCoachQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Advance completes the visible message immediately (manual skip).
func (q *TextCoachQueue) Advance() {
	q.advance()
}

// Stop cancels all timers and clears the queue. Pending messages complete
// silently: no callbacks fire after Stop returns.
func (q *TextCoachQueue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.stopped = true
	q.cancelTimersLocked()
	q.current = nil
	q.pending = nil
	q.fading = false
}

func (q *TextCoachQueue) showLocked(msg TextCoach) {
	duration := DefaultDisplayDuration
	if msg.DurationMS > 0 {
		duration = time.Duration(msg.DurationMS) * time.Millisecond
	}
	fadeAt := duration - FadeDuration
	if fadeAt < 0 {
		fadeAt = 0
	}

	q.current = &msg
	q.fading = false
	q.fadeTimer = time.AfterFunc(fadeAt, q.markFading)
	q.advTimer = time.AfterFunc(duration, q.advance)
}

func (q *TextCoachQueue) markFading() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.stopped && q.current != nil {
		q.fading = true
	}
}

func (q *TextCoachQueue) advance() {
	q.mu.Lock()
	if q.stopped || q.current == nil {
		q.mu.Unlock()
		return
	}

	done := q.current.ID
	cb := q.onComplete
	q.cancelTimersLocked()
	q.current = nil
	q.fading = false
	q.mu.Unlock()

	// Completion fires before the next message shows, outside the lock so
	// the callback may push new messages.
	if cb != nil {
		cb(done)
	}

	q.mu.Lock()
	if !q.stopped && q.current == nil && len(q.pending) > 0 {
		next := q.pending[0]
		q.pending = q.pending[1:]
		q.showLocked(next)
	}
	q.mu.Unlock()
}

func (q *TextCoachQueue) cancelTimersLocked() {
	if q.fadeTimer != nil {
		q.fadeTimer.Stop()
		q.fadeTimer = nil
	}
	if q.advTimer != nil {
		q.advTimer.Stop()
		q.advTimer = nil
	}
}
