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

type AuditReportRepo interface {
	Create(dbc dbctx.Context, row *types.GraphAuditReport) error
	LatestForUser(dbc dbctx.Context, userID uuid.UUID, pillarKey string) (*types.GraphAuditReport, error)
	ListWindow(dbc dbctx.Context, pillarKey string, start, end time.Time, limit int) ([]*types.GraphAuditReport, error)
}

type auditReportRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAuditReportRepo(db *gorm.DB, baseLog *logger.Logger) AuditReportRepo {
	return &auditReportRepo{db: db, log: baseLog.With("repo", "AuditReportRepo")}
}

func (r *auditReportRepo) Create(dbc dbctx.Context, row *types.GraphAuditReport) error {
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
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = now
	}
	return t.WithContext(dbc.Ctx).Create(row).Error
}

func (r *auditReportRepo) LatestForUser(dbc dbctx.Context, userID uuid.UUID, pillarKey string) (*types.GraphAuditReport, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	q := t.WithContext(dbc.Ctx).
		Where("user_id = ?", userID)
	if strings.TrimSpace(pillarKey) != "" {
		q = q.Where("pillar_key = ?", pillarKey)
	}
	row := &types.GraphAuditReport{}
	if err := q.Order("created_at DESC").
		Limit(1).
		Find(row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return row, nil
}

func (r *auditReportRepo) ListWindow(dbc dbctx.Context, pillarKey string, start, end time.Time, limit int) ([]*types.GraphAuditReport, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(dbc.Ctx).
		Where("created_at >= ? AND created_at < ?", start, end)
	if strings.TrimSpace(pillarKey) != "" {
		q = q.Where("pillar_key = ?", pillarKey)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	rows := []*types.GraphAuditReport{}
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
