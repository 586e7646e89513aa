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

type GraphVersionRepo interface {
	Create(dbc dbctx.Context, row *types.GraphVersionRecord) error
	Latest(dbc dbctx.Context, userID uuid.UUID) (*types.GraphVersionRecord, error)
	Get(dbc dbctx.Context, userID uuid.UUID, graphVersion string) (*types.GraphVersionRecord, error)
	SetStatus(dbc dbctx.Context, userID uuid.UUID, graphVersion, status string) error
}

type graphVersionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGraphVersionRepo(db *gorm.DB, baseLog *logger.Logger) GraphVersionRepo {
	return &graphVersionRepo{db: db, log: baseLog.With("repo", "GraphVersionRepo")}
}

func (r *graphVersionRepo) Create(dbc dbctx.Context, row *types.GraphVersionRecord) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.UserID == uuid.Nil || strings.TrimSpace(row.GraphVersion) == "" {
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

func (r *graphVersionRepo) Latest(dbc dbctx.Context, userID uuid.UUID) (*types.GraphVersionRecord, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	row := &types.GraphVersionRecord{}
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
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

func (r *graphVersionRepo) Get(dbc dbctx.Context, userID uuid.UUID, graphVersion string) (*types.GraphVersionRecord, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	graphVersion = strings.TrimSpace(graphVersion)
	if userID == uuid.Nil || graphVersion == "" {
		return nil, nil
	}
	row := &types.GraphVersionRecord{}
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ? AND graph_version = ?", userID, graphVersion).
		Limit(1).
		Find(row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return row, nil
}

func (r *graphVersionRepo) SetStatus(dbc dbctx.Context, userID uuid.UUID, graphVersion, status string) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	graphVersion = strings.TrimSpace(graphVersion)
	status = strings.TrimSpace(status)
	if userID == uuid.Nil || graphVersion == "" || status == "" {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.GraphVersionRecord{}).
		Where("user_id = ? AND graph_version = ?", userID, graphVersion).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}
