package directorpack

import "sort"

// SortByPriority orders steps by urgency for display: critical first, then
// high, medium, low, then steps with no priority. The sort is stable so that
// equal-priority steps keep their checkpoint-chronological order — users read
// step order as checkpoint order within the same urgency band.
func SortByPriority(steps []GuideStep) {
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Priority.Rank() < steps[j].Priority.Rank()
	})
}

// Sorted returns a priority-ordered copy, leaving the input untouched.
func Sorted(steps []GuideStep) []GuideStep {
	out := make([]GuideStep, len(steps))
	copy(out, steps)
	SortByPriority(out)
	return out
}
