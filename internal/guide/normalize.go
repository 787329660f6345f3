package guide

import (
	"fmt"

	"github.com/forkreel/forkreel/internal/directorpack"
)

const maxKickSteps = 5

// A tier inspects the raw response and either claims it, returning a guide,
// or passes. Tiers are tried in strict precedence order; the first hit wins,
// which keeps the degrade path explicit and testable per tier.
type tier func(resp PatternResponse) (directorpack.GuideData, bool)

var tiers = []tier{
	directorPackTier,
	checkpointTier,
	kickTier,
	metadataFallbackTier,
}

// Normalize produces GuideData from whatever signal the response carries.
// It is total: any response, including the zero value, yields a guide with
// at least one step and one tip.
func Normalize(resp PatternResponse) directorpack.GuideData {
	for _, t := range tiers {
		if g, ok := t(resp); ok {
			return g
		}
	}
	// metadataFallbackTier always claims; unreachable.
	return directorpack.FallbackGuide()
}

// directorPackTier: a curated pack is present — the real thing.
func directorPackTier(resp PatternResponse) (directorpack.GuideData, bool) {
	if resp.DirectorPack == nil {
		return directorpack.GuideData{}, false
	}
	return directorpack.Extract(*resp.DirectorPack, resp.Title), true
}

// checkpointTier: no pack, but the analyzer produced timed checkpoints.
// Steps are synthesized directly: no rule lookup, no priority, no reason.
func checkpointTier(resp PatternResponse) (directorpack.GuideData, bool) {
	if resp.Analysis == nil || len(resp.Analysis.Checkpoints) == 0 {
		return directorpack.GuideData{}, false
	}

	duration := resp.Analysis.DurationSec
	if duration <= 0 {
		duration = 15
	}

	var steps []directorpack.GuideStep
	for _, cp := range resp.Analysis.Checkpoints {
		action := cp.Note
		if action == "" {
			action = "이 구간의 흐름을 따라가세요"
		}
		steps = append(steps, directorpack.GuideStep{
			Time:   directorpack.FormatWindow(cp.TWindow, duration),
			Action: action,
			Icon:   directorpack.PinIcon,
		})
	}

	title := resp.Title
	if title == "" {
		title = directorpack.FallbackTitle
	}
	return directorpack.GuideData{
		Title:    title,
		Duration: duration,
		IsLive:   len(steps) > 0,
		Steps:    steps,
		Tips:     directorpack.GenericTips(),
	}, true
}

// kickTier: only raw viral kicks are known. Up to five, with raw millisecond
// timestamps rendered in seconds.
func kickTier(resp PatternResponse) (directorpack.GuideData, bool) {
	if resp.ShootingGuide == nil || len(resp.ShootingGuide.Kicks) == 0 {
		return directorpack.GuideData{}, false
	}

	var steps []directorpack.GuideStep
	for _, k := range resp.ShootingGuide.Kicks {
		if len(steps) == maxKickSteps {
			break
		}
		action := k.Label
		if action == "" {
			action = "킥 포인트를 살리세요"
		}
		steps = append(steps, directorpack.GuideStep{
			Time:   fmt.Sprintf("%.1f초", float64(k.TimeMS)/1000),
			Action: action,
			Icon:   "⚡",
		})
	}

	title := resp.Title
	if title == "" {
		title = directorpack.FallbackTitle
	}
	return directorpack.GuideData{
		Title:  title,
		IsLive: true,
		Steps:  steps,
		Tips:   directorpack.GenericTips(),
	}, true
}

// metadataFallbackTier: nothing usable — static guide, title overridden from
// whatever metadata is available. Always claims.
func metadataFallbackTier(resp PatternResponse) (directorpack.GuideData, bool) {
	g := directorpack.FallbackGuide()
	if resp.Title != "" {
		g.Title = resp.Title
	}
	return g, true
}
