package directorpack

import (
	"fmt"
	"math"
)

// UntimedLabel marks a step that applies to the whole clip rather than a
// specific window.
const UntimedLabel = "전체"

const maxUntimedSteps = 5

var domainIcons = map[string]string{
	"hook":       "🪝",
	"pacing":     "⏱️",
	"audio":      "🎵",
	"visual":     "🎬",
	"caption":    "💬",
	"cta":        "👉",
	"energy":     "⚡",
	"transition": "🔀",
}

var priorityIcons = map[Priority]string{
	PriorityCritical: "🚨",
	PriorityHigh:     "🔥",
	PriorityMedium:   "⭐",
	PriorityLow:      "💡",
}

// PinIcon is the guaranteed icon fallback.
const PinIcon = "📍"

var domainReasons = map[string]string{
	"hook":    "첫 3초 이탈률이 조회수를 결정해요",
	"pacing":  "원본의 템포가 이 패턴의 핵심 시그널이에요",
	"audio":   "사운드 싱크가 어긋나면 추천 노출이 떨어져요",
	"visual":  "화면 구성이 원본과 닮을수록 리믹스로 인식돼요",
	"caption": "자막은 무음 시청자를 붙잡는 장치예요",
	"cta":     "행동 유도가 있는 영상이 팔로우 전환율이 높아요",
}

var priorityReasons = map[Priority]string{
	PriorityCritical: "이 규칙을 놓치면 패턴 적중률이 크게 떨어져요",
	PriorityHigh:     "상위 리믹스 대부분이 지키는 규칙이에요",
	PriorityMedium:   "지키면 완성도가 올라가는 보조 규칙이에요",
}

var genericTips = []string{
	"원본 영상의 템포를 그대로 유지하면 알고리즘 추천에 유리해요",
	"조명과 오디오 품질이 시청 유지율을 좌우해요",
}

// FormatWindow renders a fractional time window as absolute seconds against
// the pack's target duration, e.g. [0.0, 0.2] at 15s -> "0-3초".
func FormatWindow(tw [2]float64, durationSec int) string {
	start := int(math.Round(tw[0] * float64(durationSec)))
	end := int(math.Round(tw[1] * float64(durationSec)))
	return fmt.Sprintf("%d-%d초", start, end)
}

// Extract flattens a pack's rule graph into a linear, rationale-annotated
// step list. It is a pure function: the pack is never mutated, and the result
// always contains at least one step and one tip.
//
// Checkpoint entries whose rule id does not resolve in dna_invariants are
// dropped; callers that care should diff len(steps) against the pack.
func Extract(p Pack, fallbackTitle string) GuideData {
	title := p.Title
	if title == "" {
		title = fallbackTitle
	}

	rules := make(map[string]DNAInvariant, len(p.DNAInvariants))
	for _, inv := range p.DNAInvariants {
		rules[inv.RuleID] = inv
	}

	var steps []GuideStep
	for _, cp := range p.Checkpoints {
		for _, ruleID := range cp.ActiveRules {
			inv, ok := rules[ruleID]
			if !ok {
				continue
			}
			steps = append(steps, GuideStep{
				Time:     FormatWindow(cp.TWindow, p.DurationTargetSec),
				Action:   actionFor(inv),
				Icon:     iconFor(inv),
				Priority: inv.Priority,
				RuleID:   inv.RuleID,
				Reason:   reasonFor(inv),
			})
		}
	}

	// No usable checkpoints: surface the invariants themselves, untimed.
	if len(steps) == 0 {
		for i, inv := range p.DNAInvariants {
			if i == maxUntimedSteps {
				break
			}
			steps = append(steps, GuideStep{
				Time:     UntimedLabel,
				Action:   actionFor(inv),
				Icon:     iconFor(inv),
				Priority: inv.Priority,
				RuleID:   inv.RuleID,
			})
		}
	}

	if len(steps) == 0 {
		steps = fallbackSteps()
	}

	return GuideData{
		Title:    title,
		BPM:      p.BPM,
		Duration: p.DurationTargetSec,
		Goal:     p.Goal,
		IsLive:   true,
		Steps:    steps,
		Tips:     extractTips(p.MutationSlots),
	}
}

// ActionLine resolves the display text for an invariant: friendly coach
// line, then neutral, then check hint, then the rule id itself.
func ActionLine(inv DNAInvariant) string {
	return actionFor(inv)
}

func actionFor(inv DNAInvariant) string {
	if line := inv.CoachLines["friendly"]; line != "" {
		return line
	}
	if line := inv.CoachLines["neutral"]; line != "" {
		return line
	}
	if inv.CheckHint != "" {
		return inv.CheckHint
	}
	return inv.RuleID
}

func iconFor(inv DNAInvariant) string {
	if icon, ok := domainIcons[inv.Domain]; ok {
		return icon
	}
	if icon, ok := priorityIcons[inv.Priority]; ok {
		return icon
	}
	return PinIcon
}

func reasonFor(inv DNAInvariant) string {
	if reason, ok := domainReasons[inv.Domain]; ok {
		return reason
	}
	if reason, ok := priorityReasons[inv.Priority]; ok {
		return reason
	}
	return ""
}

func extractTips(slots []MutationSlot) []string {
	var tips []string
	for _, slot := range slots {
		if slot.Guide == "" {
			continue
		}
		tips = append(tips, slot.Guide)
		if len(tips) == 3 {
			break
		}
	}
	// Keep the tips section from looking sparse.
	if len(tips) < 2 {
		tips = append(tips, genericTips...)
	}
	return tips
}
