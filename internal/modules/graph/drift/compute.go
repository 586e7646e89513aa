// Package drift evaluates windowed audit health metrics over persisted
// graph audit reports and recommends a canonical snapshot rollback when
// sustained degradation crosses thresholds.
package drift

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/causalmap-backend/internal/domain"
	"github.com/yungbote/causalmap-backend/internal/observability"
	"github.com/yungbote/causalmap-backend/internal/platform/dbctx"
	"github.com/yungbote/causalmap-backend/internal/platform/logger"
)

type ComputeDeps struct {
	DB      *gorm.DB
	Log     *logger.Logger
	Metrics interface {
		CreateMany(dbc dbctx.Context, rows []*types.GraphDriftMetric) ([]*types.GraphDriftMetric, error)
	}
	RollbackRepo interface {
		Create(dbc dbctx.Context, row *types.RollbackEvent) error
	}
}

type ComputeInput struct {
	PillarKey   string
	WindowHours int
	MinSamples  int
	MaxSamples  int

	FailRateWarnMax float64
	FailRateCritMax float64

	MissingLinkRateWarnMax float64
	MissingLinkRateCritMax float64

	DisconnectedRateWarnMax float64
	DisconnectedRateCritMax float64

	ChurnRateWarnMax float64
	ChurnRateCritMax float64

	AlertOnWarn bool

	RecommendationStatus        string
	RecommendationCooldownHours int

	SnapshotLabel              string
	AllowFallbackSnapshotLabel bool

	TraceID string
}

type ComputeOutput struct {
	SnapshotLabel         string
	WindowStart           time.Time
	WindowEnd             time.Time
	ReportsSeen           int
	MetricsWritten        int
	Alerts                []string
	RecommendationWritten bool
	RollbackEventID       uuid.UUID
	TraceID               string
}

func Compute(ctx context.Context, deps ComputeDeps, input ComputeInput) (ComputeOutput, error) {
	out := ComputeOutput{}
	if deps.DB == nil || deps.Metrics == nil {
		return out, fmt.Errorf("drift: missing deps")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if input.WindowHours <= 0 {
		input.WindowHours = 168
	}
	if input.MinSamples <= 0 {
		input.MinSamples = 20
	}
	if input.MaxSamples <= 0 {
		input.MaxSamples = 5000
	}
	if input.RecommendationCooldownHours <= 0 {
		input.RecommendationCooldownHours = 24
	}

	snapshotLabel := strings.TrimSpace(input.SnapshotLabel)
	if snapshotLabel == "" && input.AllowFallbackSnapshotLabel {
		snapshotLabel = activeSnapshotLabel(ctx, deps.DB)
	}

	now := time.Now().UTC()
	window := time.Duration(input.WindowHours) * time.Hour
	windowStart := now.Add(-window)
	out.SnapshotLabel = snapshotLabel
	out.WindowStart = windowStart
	out.WindowEnd = now
	out.TraceID = strings.TrimSpace(input.TraceID)

	reports, err := listAuditReports(ctx, deps.DB, input.PillarKey, windowStart, now, input.MaxSamples)
	if err != nil {
		return out, err
	}
	out.ReportsSeen = len(reports)

	agg := analyzeReports(reports)
	metrics := []metricResult{
		buildRateMetric("audit_fail_rate", agg.failRate(), input.FailRateWarnMax, input.FailRateCritMax, agg.reportCount, input.MinSamples, "max").withMeta(map[string]any{
			"fail_count":   agg.failCount,
			"report_count": agg.reportCount,
		}),
		buildRateMetric("habit_edge_links_missing_rate", agg.missingLinkRate(), input.MissingLinkRateWarnMax, input.MissingLinkRateCritMax, agg.habitCount, input.MinSamples, "max").withMeta(map[string]any{
			"habit_count":         agg.habitCount,
			"missing_link_habits": agg.missingLinkHabits,
		}),
		buildRateMetric("disconnected_node_rate", agg.disconnectedRate(), input.DisconnectedRateWarnMax, input.DisconnectedRateCritMax, agg.nodeCount, input.MinSamples, "max").withMeta(map[string]any{
			"node_count":         agg.nodeCount,
			"disconnected_nodes": agg.disconnectedNodes,
		}),
	}

	churnRate, churnSamples, churnMeta, err := computeChurnRate(ctx, deps.DB, windowStart, now)
	if err != nil && deps.Log != nil {
		deps.Log.Warn("drift: churn rate compute failed", "error", err.Error())
	}
	metrics = append(metrics, buildRateMetric("graph_churn_rate", churnRate, input.ChurnRateWarnMax, input.ChurnRateCritMax, churnSamples, input.MinSamples, "max").withMeta(churnMeta))

	rows := make([]*types.GraphDriftMetric, 0, len(metrics))
	for _, metric := range metrics {
		meta := metric.Meta
		if meta == nil {
			meta = map[string]any{}
		}
		meta["samples"] = metric.Samples
		meta["trace_id"] = out.TraceID
		meta["warn_threshold"] = metric.Warn
		if metric.Crit > 0 {
			meta["crit_threshold"] = metric.Crit
		}
		if input.PillarKey != "" {
			meta["pillar_key"] = input.PillarKey
		}
		rows = append(rows, &types.GraphDriftMetric{
			MetricName:  metric.Name,
			WindowStart: windowStart,
			WindowEnd:   now,
			Value:       metric.Value,
			Threshold:   metric.Warn,
			Status:      metric.Status,
			Metadata:    datatypes.JSON(mustJSON(meta)),
		})
	}
	if len(rows) > 0 {
		if _, err := deps.Metrics.CreateMany(dbctx.Context{Ctx: ctx}, rows); err != nil {
			return out, err
		}
	}
	out.MetricsWritten = len(rows)

	alerts := collectAlerts(metrics, input.AlertOnWarn)
	out.Alerts = alerts
	if len(alerts) > 0 {
		observability.ReportAuditDegradation(ctx, deps.Log, toAlertMetrics(metrics), map[string]any{
			"snapshot_label": snapshotLabel,
			"pillar_key":     input.PillarKey,
			"window_start":   windowStart.Format(time.RFC3339),
			"window_end":     now.Format(time.RFC3339),
			"trace_id":       out.TraceID,
		})
	}

	if len(alerts) > 0 && snapshotLabel != "" && strings.TrimSpace(input.RecommendationStatus) != "" {
		if ok, id := maybeRecommendRollback(ctx, deps, snapshotLabel, input.RecommendationStatus, input.RecommendationCooldownHours, metrics, out.TraceID); ok {
			out.RecommendationWritten = true
			out.RollbackEventID = id
		}
	}

	return out, nil
}

type metricResult struct {
	Name    string
	Value   float64
	Warn    float64
	Crit    float64
	Status  string
	Samples int
	Meta    map[string]any
}

func (m metricResult) withMeta(meta map[string]any) metricResult {
	if len(meta) == 0 {
		return m
	}
	if m.Meta == nil {
		m.Meta = map[string]any{}
	}
	for k, v := range meta {
		m.Meta[k] = v
	}
	return m
}

func buildRateMetric(name string, value, warn, crit float64, samples, minSamples int, direction string) metricResult {
	status := "insufficient"
	if samples > 0 && samples >= minSamples {
		status = evalStatus(value, warn, crit, direction)
	}
	return metricResult{
		Name:    name,
		Value:   value,
		Warn:    warn,
		Crit:    crit,
		Status:  status,
		Samples: samples,
	}
}

func evalStatus(value, warn, crit float64, direction string) string {
	direction = strings.TrimSpace(strings.ToLower(direction))
	if warn <= 0 && crit <= 0 {
		return "ok"
	}
	if direction == "min" {
		if crit > 0 && value <= crit {
			return "critical"
		}
		if warn > 0 && value <= warn {
			return "warn"
		}
		return "ok"
	}
	if crit > 0 && value >= crit {
		return "critical"
	}
	if warn > 0 && value >= warn {
		return "warn"
	}
	return "ok"
}

func collectAlerts(metrics []metricResult, alertOnWarn bool) []string {
	alerts := []string{}
	for _, metric := range metrics {
		switch metric.Status {
		case "critical":
			alerts = append(alerts, metric.Name)
		case "warn":
			if alertOnWarn {
				alerts = append(alerts, metric.Name)
			}
		}
	}
	return alerts
}

func toAlertMetrics(metrics []metricResult) []observability.AuditAlertMetric {
	out := make([]observability.AuditAlertMetric, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, observability.AuditAlertMetric{
			Name:      m.Name,
			Status:    m.Status,
			Value:     m.Value,
			Threshold: m.Warn,
			Meta:      m.Meta,
		})
	}
	return out
}

type reportAggregate struct {
	reportCount       int
	failCount         int
	habitCount        int
	missingLinkHabits int
	nodeCount         int
	disconnectedNodes int
}

func (a reportAggregate) failRate() float64 {
	if a.reportCount == 0 {
		return 0
	}
	return float64(a.failCount) / float64(a.reportCount)
}

func (a reportAggregate) missingLinkRate() float64 {
	if a.habitCount == 0 {
		return 0
	}
	return float64(a.missingLinkHabits) / float64(a.habitCount)
}

func (a reportAggregate) disconnectedRate() float64 {
	if a.nodeCount == 0 {
		return 0
	}
	return float64(a.disconnectedNodes) / float64(a.nodeCount)
}

func analyzeReports(reports []*types.GraphAuditReport) reportAggregate {
	agg := reportAggregate{}
	for _, r := range reports {
		if r == nil {
			continue
		}
		facts, _ := extractReportFacts(r.Status, r.Payload)
		agg.reportCount++
		if facts.Failed {
			agg.failCount++
		}
		agg.habitCount += facts.HabitCount
		agg.missingLinkHabits += facts.MissingLinkHabits
		agg.nodeCount += facts.NodeCount
		agg.disconnectedNodes += facts.DisconnectedNodes
	}
	return agg
}

func listAuditReports(ctx context.Context, db *gorm.DB, pillarKey string, start, end time.Time, maxSamples int) ([]*types.GraphAuditReport, error) {
	if db == nil {
		return nil, nil
	}
	q := db.WithContext(ctx).Model(&types.GraphAuditReport{}).
		Where("created_at >= ? AND created_at < ?", start, end)
	if strings.TrimSpace(pillarKey) != "" {
		q = q.Where("pillar_key = ?", pillarKey)
	}
	if maxSamples > 0 {
		q = q.Limit(maxSamples)
	}
	q = q.Order("created_at DESC")
	rows := []*types.GraphAuditReport{}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// computeChurnRate measures how often user graphs changed fingerprint in
// the window: version rows written per distinct user. A rate well above 1
// means graphs keep churning between audits.
func computeChurnRate(ctx context.Context, db *gorm.DB, start, end time.Time) (float64, int, map[string]any, error) {
	if db == nil {
		return 0, 0, nil, nil
	}
	meta := map[string]any{}
	var versions int64
	if err := db.WithContext(ctx).
		Model(&types.GraphVersionRecord{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&versions).Error; err != nil {
		return 0, 0, nil, err
	}
	var users int64
	if err := db.WithContext(ctx).
		Model(&types.GraphVersionRecord{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Distinct("user_id").
		Count(&users).Error; err != nil {
		return 0, int(versions), nil, err
	}
	meta["version_rows"] = versions
	meta["distinct_users"] = users
	rate := 0.0
	if users > 0 {
		rate = float64(versions) / float64(users)
	}
	return rate, int(versions), meta, nil
}

func activeSnapshotLabel(ctx context.Context, db *gorm.DB) string {
	if db == nil {
		return ""
	}
	row := &types.CanonicalSnapshot{}
	if err := db.WithContext(ctx).
		Where("active = ?", true).
		Order("updated_at desc").
		Limit(1).
		Find(row).Error; err == nil && row.Label != "" {
		return row.Label
	}
	row = &types.CanonicalSnapshot{}
	if err := db.WithContext(ctx).
		Order("updated_at desc").
		Limit(1).
		Find(row).Error; err == nil && row.Label != "" {
		return row.Label
	}
	return ""
}

func maybeRecommendRollback(ctx context.Context, deps ComputeDeps, snapshotLabel, status string, cooldownHours int, metrics []metricResult, traceID string) (bool, uuid.UUID) {
	if deps.DB == nil || deps.RollbackRepo == nil {
		return false, uuid.Nil
	}
	cutoff := time.Now().UTC().Add(-time.Duration(cooldownHours) * time.Hour)
	var count int64
	_ = deps.DB.WithContext(ctx).
		Model(&types.RollbackEvent{}).
		Where("snapshot_label = ? AND trigger = ? AND created_at >= ?", snapshotLabel, "audit_degradation", cutoff).
		Count(&count).Error
	if count > 0 {
		return false, uuid.Nil
	}
	note := map[string]any{
		"metrics":  metricsSummary(metrics),
		"trace_id": traceID,
	}
	row := &types.RollbackEvent{
		ID:            uuid.New(),
		SnapshotLabel: snapshotLabel,
		Trigger:       "audit_degradation",
		Status:        status,
		Notes:         datatypes.JSON(mustJSON(note)),
	}
	if err := deps.RollbackRepo.Create(dbctx.Context{Ctx: ctx}, row); err != nil {
		return false, uuid.Nil
	}
	return true, row.ID
}

func metricsSummary(metrics []metricResult) []map[string]any {
	out := make([]map[string]any, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, map[string]any{
			"name":    m.Name,
			"status":  m.Status,
			"value":   m.Value,
			"warn":    m.Warn,
			"crit":    m.Crit,
			"samples": m.Samples,
		})
	}
	return out
}
