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

type UserGraphRepo interface {
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.UserGraphDoc, error)
	Upsert(dbc dbctx.Context, row *types.UserGraphDoc) error
	SetVersion(dbc dbctx.Context, userID uuid.UUID, graphVersion string) error
	ListUserIDs(dbc dbctx.Context, limit int) ([]uuid.UUID, error)
}

type userGraphRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserGraphRepo(db *gorm.DB, baseLog *logger.Logger) UserGraphRepo {
	return &userGraphRepo{db: db, log: baseLog.With("repo", "UserGraphRepo")}
}

func (r *userGraphRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.UserGraphDoc, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	row := &types.UserGraphDoc{}
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Limit(1).
		Find(row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return row, nil
}

func (r *userGraphRepo) Upsert(dbc dbctx.Context, row *types.UserGraphDoc) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.UserID == uuid.Nil {
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
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"payload":       row.Payload,
				"graph_version": row.GraphVersion,
				"updated_at":    now,
			}),
		}).
		Create(row).Error
}

func (r *userGraphRepo) SetVersion(dbc dbctx.Context, userID uuid.UUID, graphVersion string) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	graphVersion = strings.TrimSpace(graphVersion)
	if userID == uuid.Nil || graphVersion == "" {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.UserGraphDoc{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"graph_version": graphVersion,
			"updated_at":    time.Now().UTC(),
		}).Error
}

func (r *userGraphRepo) ListUserIDs(dbc dbctx.Context, limit int) ([]uuid.UUID, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(dbc.Ctx).
		Model(&types.UserGraphDoc{}).
		Order("updated_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	ids := []uuid.UUID{}
	if err := q.Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
