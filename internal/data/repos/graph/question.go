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

type QuestionRepo interface {
	ListAll(dbc dbctx.Context) ([]*types.QuestionRecord, error)
	Upsert(dbc dbctx.Context, row *types.QuestionRecord) error
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return &questionRepo{db: db, log: baseLog.With("repo", "QuestionRepo")}
}

func (r *questionRepo) ListAll(dbc dbctx.Context) ([]*types.QuestionRecord, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	rows := []*types.QuestionRecord{}
	if err := t.WithContext(dbc.Ctx).
		Order("key ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *questionRepo) Upsert(dbc dbctx.Context, row *types.QuestionRecord) error {
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
				"prompt":     row.Prompt,
				"kind":       row.Kind,
				"updated_at": now,
			}),
		}).
		Create(row).Error
}
