package server

import (
	"context"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/forkreel/forkreel/internal/directorpack"
	"github.com/forkreel/forkreel/internal/guide"
)

// SeedDemo loads a demo pattern with a full DirectorPack if the catalog is
// empty. Idempotent: does nothing once any pattern exists.
func SeedDemo(ctx context.Context, logger *slog.Logger, store Store) error {
	existing, err := store.ListPatterns(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	if err := store.UpsertPattern(ctx, demoPattern()); err != nil {
		return err
	}

	logger.Info("demo pattern seeded")
	return nil
}

// EnsureAdmin creates the bootstrap admin account from config credentials.
// No-op when either credential is empty.
func EnsureAdmin(ctx context.Context, logger *slog.Logger, store Store, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := store.EnsureAdmin(ctx, email, string(hash)); err != nil {
		return err
	}

	logger.Info("admin account ensured", "email", email)
	return nil
}

func demoPattern() guide.PatternResponse {
	return guide.PatternResponse{
		ID:       "demo-transition-hook",
		Title:    "3초 반전 후킹 챌린지",
		Tier:     "S",
		Category: "transition",
		DirectorPack: &directorpack.Pack{
			Version:           "1",
			Title:             "3초 반전 후킹 챌린지",
			BPM:               128,
			DurationTargetSec: 15,
			Goal:              "첫 3초 반전으로 이탈을 막고 끝까지 시청하게 만들기",
			DNAInvariants: []directorpack.DNAInvariant{
				{
					RuleID:    "hook-visual-flip",
					Domain:    "hook",
					Priority:  directorpack.PriorityCritical,
					CheckHint: "첫 컷에서 예상을 뒤집는 장면이 나오는지",
					CoachLines: map[string]string{
						"friendly": "시작하자마자 반전 컷을 보여주세요!",
						"neutral":  "첫 3초 안에 반전 컷을 배치하세요",
					},
				},
				{
					RuleID:    "pacing-beat-sync",
					Domain:    "pacing",
					Priority:  directorpack.PriorityHigh,
					CheckHint: "컷 전환이 비트에 맞는지",
					CoachLines: map[string]string{
						"friendly": "비트에 맞춰서 컷을 넘겨보세요!",
						"neutral":  "비트 단위로 컷을 전환하세요",
					},
				},
				{
					RuleID:    "cta-final-ask",
					Domain:    "cta",
					Priority:  directorpack.PriorityMedium,
					CheckHint: "마지막 컷에 행동 유도가 있는지",
					CoachLines: map[string]string{
						"neutral": "마지막 2초에 팔로우 유도를 넣으세요",
					},
				},
			},
			Checkpoints: []directorpack.Checkpoint{
				{
					CheckpointID: "cp-hook",
					TWindow:      [2]float64{0, 0.2},
					ActiveRules:  []string{"hook-visual-flip"},
					Note:         "오프닝 반전",
				},
				{
					CheckpointID: "cp-build",
					TWindow:      [2]float64{0.2, 0.8},
					ActiveRules:  []string{"pacing-beat-sync"},
					Note:         "비트 컷 구간",
				},
				{
					CheckpointID: "cp-close",
					TWindow:      [2]float64{0.8, 1},
					ActiveRules:  []string{"cta-final-ask"},
					Note:         "마무리",
				},
			},
			MutationSlots: []directorpack.MutationSlot{
				{
					SlotID: "slot-topic",
					Label:  "소재",
					Guide:  "반전의 소재를 내 일상에서 골라보세요",
				},
				{
					SlotID: "slot-caption",
					Label:  "캡션",
					Guide:  "첫 줄 캡션으로 궁금증을 던지세요",
				},
			},
		},
	}
}
