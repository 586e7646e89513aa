package graph

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/causalmap-backend/internal/domain"
	"github.com/yungbote/causalmap-backend/internal/platform/dbctx"
	"github.com/yungbote/causalmap-backend/internal/platform/logger"
)

type RollbackRepo interface {
	Create(dbc dbctx.Context, row *types.RollbackEvent) error
	UpdateStatus(dbc dbctx.Context, id uuid.UUID, status string) error
	LatestForSnapshot(dbc dbctx.Context, snapshotLabel string) (*types.RollbackEvent, error)
}

type rollbackRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRollbackRepo(db *gorm.DB, baseLog *logger.Logger) RollbackRepo {
	return &rollbackRepo{db: db, log: baseLog.With("repo", "RollbackRepo")}
}

func (r *rollbackRepo) Create(dbc dbctx.Context, row *types.RollbackEvent) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || strings.TrimSpace(row.SnapshotLabel) == "" {
		return nil
	}
	now := time.Now().UTC()
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = now
	}
	return t.WithContext(dbc.Ctx).Create(row).Error
}

func (r *rollbackRepo) UpdateStatus(dbc dbctx.Context, id uuid.UUID, status string) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	status = strings.TrimSpace(status)
	if id == uuid.Nil || status == "" {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.RollbackEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *rollbackRepo) LatestForSnapshot(dbc dbctx.Context, snapshotLabel string) (*types.RollbackEvent, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	snapshotLabel = strings.TrimSpace(snapshotLabel)
	if snapshotLabel == "" {
		return nil, nil
	}
	row := &types.RollbackEvent{}
	if err := t.WithContext(dbc.Ctx).
		Where("snapshot_label = ?", snapshotLabel).
		Order("created_at DESC").
		Limit(1).
		Find(row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return row, nil
}
