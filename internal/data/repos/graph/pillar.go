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

type PillarRepo interface {
	ListAll(dbc dbctx.Context) ([]*types.PillarRecord, error)
	Upsert(dbc dbctx.Context, row *types.PillarRecord) error
}

type pillarRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPillarRepo(db *gorm.DB, baseLog *logger.Logger) PillarRepo {
	return &pillarRepo{db: db, log: baseLog.With("repo", "PillarRepo")}
}

func (r *pillarRepo) ListAll(dbc dbctx.Context) ([]*types.PillarRecord, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	rows := []*types.PillarRecord{}
	if err := t.WithContext(dbc.Ctx).
		Order("rank ASC, key ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *pillarRepo) Upsert(dbc dbctx.Context, row *types.PillarRecord) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || strings.TrimSpace(row.Key) == "" {
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
			Columns: []clause.Column{{Name: "key"}},
			DoUpdates: clause.Assignments(map[string]any{
				"title":      row.Title,
				"rank":       row.Rank,
				"updated_at": now,
			}),
		}).
		Create(row).Error
}
