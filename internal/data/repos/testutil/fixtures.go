package testutil

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	types "github.com/yungbote/causalmap-backend/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func SeedUserGraph(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, payload any) *types.UserGraphDoc {
	tb.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		tb.Fatalf("marshal graph payload: %v", err)
	}
	row := &types.UserGraphDoc{
		ID:      uuid.New(),
		UserID:  userID,
		Payload: datatypes.JSON(raw),
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed user graph: %v", err)
	}
	return row
}

func SeedCanonicalSnapshot(tb testing.TB, ctx context.Context, tx *gorm.DB, label string, payload any, active bool) *types.CanonicalSnapshot {
	tb.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		tb.Fatalf("marshal snapshot payload: %v", err)
	}
	row := &types.CanonicalSnapshot{
		ID:      uuid.New(),
		Label:   label,
		Source:  "test",
		Payload: datatypes.JSON(raw),
		Active:  active,
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed canonical snapshot: %v", err)
	}
	return row
}

func SeedIntervention(tb testing.TB, ctx context.Context, tx *gorm.DB, key, nodeID string, pillars []string) *types.InterventionRecord {
	tb.Helper()
	pillarsJSON, err := json.Marshal(pillars)
	if err != nil {
		tb.Fatalf("marshal pillars: %v", err)
	}
	row := &types.InterventionRecord{
		ID:          uuid.New(),
		Key:         key,
		Title:       key,
		GraphNodeID: nodeID,
		Pillars:     datatypes.JSON(pillarsJSON),
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed intervention: %v", err)
	}
	return row
}

func SeedPillar(tb testing.TB, ctx context.Context, tx *gorm.DB, key string, rank int) *types.PillarRecord {
	tb.Helper()
	row := &types.PillarRecord{
		ID:    uuid.New(),
		Key:   key,
		Title: key,
		Rank:  rank,
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed pillar: %v", err)
	}
	return row
}

func SeedQuestion(tb testing.TB, ctx context.Context, tx *gorm.DB, key, prompt string) *types.QuestionRecord {
	tb.Helper()
	row := &types.QuestionRecord{
		ID:     uuid.New(),
		Key:    key,
		Prompt: prompt,
		Kind:   "outcome",
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed question: %v", err)
	}
	return row
}
