package graph

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/causalmap-backend/internal/domain"
	"github.com/yungbote/causalmap-backend/internal/platform/dbctx"
	"github.com/yungbote/causalmap-backend/internal/platform/logger"
)

type CanonicalSnapshotRepo interface {
	GetActive(dbc dbctx.Context) (*types.CanonicalSnapshot, error)
	GetByLabel(dbc dbctx.Context, label string) (*types.CanonicalSnapshot, error)
	Register(dbc dbctx.Context, row *types.CanonicalSnapshot) error
	SetActive(dbc dbctx.Context, label string) error
}

type canonicalSnapshotRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCanonicalSnapshotRepo(db *gorm.DB, baseLog *logger.Logger) CanonicalSnapshotRepo {
	return &canonicalSnapshotRepo{db: db, log: baseLog.With("repo", "CanonicalSnapshotRepo")}
}

func (r *canonicalSnapshotRepo) GetActive(dbc dbctx.Context) (*types.CanonicalSnapshot, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	row := &types.CanonicalSnapshot{}
	if err := t.WithContext(dbc.Ctx).
		Where("active = ?", true).
		Order("updated_at DESC").
		Limit(1).
		Find(row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return row, nil
}

func (r *canonicalSnapshotRepo) GetByLabel(dbc dbctx.Context, label string) (*types.CanonicalSnapshot, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, nil
	}
	row := &types.CanonicalSnapshot{}
	if err := t.WithContext(dbc.Ctx).
		Where("label = ?", label).
		Limit(1).
		Find(row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return row, nil
}

func (r *canonicalSnapshotRepo) Register(dbc dbctx.Context, row *types.CanonicalSnapshot) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || strings.TrimSpace(row.Label) == "" {
		return nil
	}
	now := time.Now().UTC()
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "label"}},
			DoUpdates: clause.Assignments(map[string]any{
				"source":     row.Source,
				"payload":    row.Payload,
				"updated_at": now,
			}),
		}).
		Create(row).Error
}

// SetActive flips the active flag to exactly one label. Runs both updates
// inside the caller's transaction when one is present.
func (r *canonicalSnapshotRepo) SetActive(dbc dbctx.Context, label string) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return nil
	}
	now := time.Now().UTC()
	if err := t.WithContext(dbc.Ctx).
		Model(&types.CanonicalSnapshot{}).
		Where("active = ?", true).
		Updates(map[string]any{"active": false, "updated_at": now}).Error; err != nil {
		return err
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.CanonicalSnapshot{}).
		Where("label = ?", label).
		Updates(map[string]any{"active": true, "updated_at": now}).Error
}
