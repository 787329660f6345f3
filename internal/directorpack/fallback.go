package directorpack

// FallbackTitle is the title of the static guide shown when no pattern is
// selected or nothing usable could be fetched.
const FallbackTitle = "기본 촬영 가이드"

// FallbackGuide returns the static guide used whenever no real signal is
// available. The shoot screen must always render a guide, so this is the
// safety net at the bottom of every degrade path. A fresh copy is returned on
// each call; callers may override the title.
func FallbackGuide() GuideData {
	return GuideData{
		Title:    FallbackTitle,
		BPM:      120,
		Duration: 15,
		Goal:     "원본의 리듬을 살린 15초 리믹스",
		IsLive:   false,
		Steps:    fallbackSteps(),
		Tips:     append([]string(nil), genericTips...),
	}
}

// GenericTips returns the fixed tips used whenever a guide has no
// pack-supplied tips of its own.
func GenericTips() []string {
	return append([]string(nil), genericTips...)
}

func fallbackSteps() []GuideStep {
	return []GuideStep{
		{Time: "0-3초", Action: "첫 3초 안에 시선을 사로잡는 훅을 넣으세요", Icon: "🪝"},
		{Time: "3-8초", Action: "핵심 내용을 빠른 템포로 전개하세요", Icon: "⏱️"},
		{Time: "8-12초", Action: "변주 포인트에서 나만의 스타일을 보여주세요", Icon: "🎬"},
		{Time: "12-15초", Action: "팔로우를 유도하는 CTA로 마무리하세요", Icon: "👉"},
	}
}
