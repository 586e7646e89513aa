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

type DriftMetricRepo interface {
	Create(dbc dbctx.Context, row *types.GraphDriftMetric) error
	CreateMany(dbc dbctx.Context, rows []*types.GraphDriftMetric) ([]*types.GraphDriftMetric, error)
	ListWindow(dbc dbctx.Context, metricName string, start, end time.Time, limit int) ([]*types.GraphDriftMetric, error)
}

type driftMetricRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDriftMetricRepo(db *gorm.DB, baseLog *logger.Logger) DriftMetricRepo {
	return &driftMetricRepo{db: db, log: baseLog.With("repo", "DriftMetricRepo")}
}

func (r *driftMetricRepo) Create(dbc dbctx.Context, row *types.GraphDriftMetric) error {
	if row == nil {
		return nil
	}
	_, err := r.CreateMany(dbc, []*types.GraphDriftMetric{row})
	return err
}

func (r *driftMetricRepo) CreateMany(dbc dbctx.Context, rows []*types.GraphDriftMetric) ([]*types.GraphDriftMetric, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.GraphDriftMetric{}, nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row == nil {
			continue
		}
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *driftMetricRepo) ListWindow(dbc dbctx.Context, metricName string, start, end time.Time, limit int) ([]*types.GraphDriftMetric, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(dbc.Ctx).
		Where("window_end >= ? AND window_end < ?", start, end)
	if strings.TrimSpace(metricName) != "" {
		q = q.Where("metric_name = ?", metricName)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	rows := []*types.GraphDriftMetric{}
	if err := q.Order("window_end DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
