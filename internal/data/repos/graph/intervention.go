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

type InterventionRepo interface {
	ListAll(dbc dbctx.Context) ([]*types.InterventionRecord, error)
	GetByKey(dbc dbctx.Context, key string) (*types.InterventionRecord, error)
	Upsert(dbc dbctx.Context, row *types.InterventionRecord) error
}

type interventionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInterventionRepo(db *gorm.DB, baseLog *logger.Logger) InterventionRepo {
	return &interventionRepo{db: db, log: baseLog.With("repo", "InterventionRepo")}
}

func (r *interventionRepo) ListAll(dbc dbctx.Context) ([]*types.InterventionRecord, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	rows := []*types.InterventionRecord{}
	if err := t.WithContext(dbc.Ctx).
		Order("key ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *interventionRepo) GetByKey(dbc dbctx.Context, key string) (*types.InterventionRecord, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	row := &types.InterventionRecord{}
	if err := t.WithContext(dbc.Ctx).
		Where("key = ?", key).
		Limit(1).
		Find(row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return row, nil
}

func (r *interventionRepo) Upsert(dbc dbctx.Context, row *types.InterventionRecord) error {
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
				"title":         row.Title,
				"graph_node_id": row.GraphNodeID,
				"graph_edge_ids": row.GraphEdgeIDs,
				"target_nodes":  row.TargetNodes,
				"pillars":       row.Pillars,
				"planning_tags": row.PlanningTags,
				"updated_at":    now,
			}),
		}).
		Create(row).Error
}
