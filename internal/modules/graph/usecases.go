// Package graph is the operations facade over the reconciliation and
// audit core: it loads rows, runs the pure merge/audit engines, and
// persists what changed.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	datagraph "github.com/yungbote/causalmap-backend/internal/data/graph"
	repos "github.com/yungbote/causalmap-backend/internal/data/repos/graph"
	types "github.com/yungbote/causalmap-backend/internal/domain"
	"github.com/yungbote/causalmap-backend/internal/modules/graph/drift"
	"github.com/yungbote/causalmap-backend/internal/modules/graph/merge"
	"github.com/yungbote/causalmap-backend/internal/modules/graph/model"
	"github.com/yungbote/causalmap-backend/internal/modules/graph/pillar"
	"github.com/yungbote/causalmap-backend/internal/modules/graph/report"
	"github.com/yungbote/causalmap-backend/internal/pkg/errors"
	"github.com/yungbote/causalmap-backend/internal/platform/dbctx"
	"github.com/yungbote/causalmap-backend/internal/platform/logger"
	"github.com/yungbote/causalmap-backend/internal/platform/neo4jdb"
	"github.com/yungbote/causalmap-backend/internal/platform/snapshot"
)

// VersionCache gates re-audits on graph fingerprints. Nil disables the
// gate; failures read as misses.
type VersionCache interface {
	Get(ctx context.Context, userID uuid.UUID, pillarKey string) (string, bool)
	Put(ctx context.Context, userID uuid.UUID, pillarKey, graphVersion string) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

type Deps struct {
	DB  *gorm.DB
	Log *logger.Logger

	UserGraphs    repos.UserGraphRepo
	Snapshots     repos.CanonicalSnapshotRepo
	Interventions repos.InterventionRepo
	Pillars       repos.PillarRepo
	Questions     repos.QuestionRepo
	Reports       repos.AuditReportRepo
	Versions      repos.GraphVersionRepo
	DriftMetrics  repos.DriftMetricRepo
	Rollbacks     repos.RollbackRepo

	// Optional wiring.
	SnapshotSource snapshot.Source
	Cache          VersionCache
	Mirror         *neo4jdb.Client
}

type Usecases struct {
	deps Deps
}

func New(deps Deps) Usecases { return Usecases{deps: deps} }

func (u Usecases) WithLog(log *logger.Logger) Usecases {
	u.deps.Log = log
	return u
}

type PatchInput struct {
	UserID    uuid.UUID
	RulesPath string
	DryRun    bool
}

type PatchOutput struct {
	UserID       uuid.UUID `json:"user_id"`
	GraphVersion string    `json:"graph_version"`
	Changed      bool      `json:"changed"`
	Persisted    bool      `json:"persisted"`

	AddedNodeIDs              []string         `json:"added_node_ids,omitempty"`
	AddedEdgeSignatures       []string         `json:"added_edge_signatures,omitempty"`
	MissingCanonicalNodeIDs   []string         `json:"missing_canonical_node_ids,omitempty"`
	MissingCanonicalEdgeRules []merge.EdgeRule `json:"missing_canonical_edge_rules,omitempty"`
}

// PatchUserGraph reconciles one user graph against the active canonical
// snapshot. The stored document is rewritten only when the merge changed
// it; re-running on a patched graph is a no-op.
func (u Usecases) PatchUserGraph(ctx context.Context, in PatchInput) (PatchOutput, error) {
	out := PatchOutput{UserID: in.UserID}
	if u.deps.UserGraphs == nil || u.deps.Snapshots == nil {
		return out, fmt.Errorf("graph: missing deps")
	}
	if in.UserID == uuid.Nil {
		return out, fmt.Errorf("graph: missing user_id: %w", errors.ErrInvalidArgument)
	}

	dbc := dbctx.Context{Ctx: ctx}
	doc, err := u.deps.UserGraphs.GetByUserID(dbc, in.UserID)
	if err != nil {
		return out, err
	}
	if doc == nil {
		return out, fmt.Errorf("graph: user %s has no graph document: %w", in.UserID, errors.ErrNotFound)
	}

	canonical, err := u.loadCanonical(ctx)
	if err != nil {
		return out, err
	}

	req := merge.DefaultRequiredSet()
	if strings.TrimSpace(in.RulesPath) != "" {
		req, err = merge.LoadRequiredSet(in.RulesPath)
		if err != nil {
			return out, err
		}
	}

	userGraph := model.ParseDocument(doc.Payload)
	res := merge.Apply(userGraph, canonical, req)

	out.Changed = res.Changed
	out.AddedNodeIDs = res.AddedNodeIDs
	out.AddedEdgeSignatures = res.AddedEdgeSignatures
	out.MissingCanonicalNodeIDs = res.MissingCanonicalNodeIDs
	out.MissingCanonicalEdgeRules = res.MissingCanonicalEdgeRules
	out.GraphVersion = merge.ComputeGraphVersion(res.NextGraph)

	if in.DryRun {
		return out, nil
	}

	if !res.Changed {
		// Backfill the fingerprint on docs written before versioning.
		if doc.GraphVersion != out.GraphVersion {
			if err := u.deps.UserGraphs.SetVersion(dbc, in.UserID, out.GraphVersion); err != nil {
				return out, err
			}
			if err := u.recordVersion(dbc, in.UserID, out.GraphVersion); err != nil {
				return out, err
			}
		}
		return out, nil
	}

	raw, err := json.Marshal(res.NextGraph)
	if err != nil {
		return out, fmt.Errorf("graph: marshal merged graph: %w", err)
	}
	doc.Payload = datatypes.JSON(raw)
	doc.GraphVersion = out.GraphVersion
	if err := u.deps.UserGraphs.Upsert(dbc, doc); err != nil {
		return out, err
	}
	if err := u.recordVersion(dbc, in.UserID, out.GraphVersion); err != nil {
		return out, err
	}
	out.Persisted = true

	if u.deps.Cache != nil {
		_ = u.deps.Cache.Invalidate(ctx, in.UserID)
	}
	if u.deps.Mirror != nil {
		if err := datagraph.MirrorUserGraph(ctx, u.deps.Mirror, u.deps.Log, in.UserID, res.NextGraph, out.GraphVersion); err != nil && u.deps.Log != nil {
			u.deps.Log.Warn("graph mirror failed (continuing)", "user_id", in.UserID.String(), "error", err)
		}
	}
	if u.deps.Log != nil {
		u.deps.Log.Info("patched user graph",
			"user_id", in.UserID.String(),
			"graph_version", out.GraphVersion,
			"added_nodes", len(res.AddedNodeIDs),
			"added_edges", len(res.AddedEdgeSignatures),
		)
	}
	return out, nil
}

func (u Usecases) recordVersion(dbc dbctx.Context, userID uuid.UUID, graphVersion string) error {
	if u.deps.Versions == nil {
		return nil
	}
	existing, err := u.deps.Versions.Get(dbc, userID, graphVersion)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	return u.deps.Versions.Create(dbc, &types.GraphVersionRecord{
		UserID:       userID,
		GraphVersion: graphVersion,
		Status:       "active",
	})
}

// loadCanonical prefers the registered active snapshot; with none in the
// store it falls back to the configured snapshot source.
func (u Usecases) loadCanonical(ctx context.Context) (model.Graph, error) {
	dbc := dbctx.Context{Ctx: ctx}
	row, err := u.deps.Snapshots.GetActive(dbc)
	if err != nil {
		return model.Graph{}, err
	}
	if row != nil && len(row.Payload) > 0 {
		return model.ParseDocument(row.Payload), nil
	}
	if u.deps.SnapshotSource != nil {
		raw, err := u.deps.SnapshotSource.Load(ctx)
		if err != nil {
			return model.Graph{}, err
		}
		return model.ParseDocument(raw), nil
	}
	return model.Graph{}, fmt.Errorf("graph: no active canonical snapshot: %w", errors.ErrNotFound)
}

type AuditInput struct {
	UserID uuid.UUID
}

type AuditOutput struct {
	UserID       uuid.UUID        `json:"user_id"`
	GraphVersion string           `json:"graph_version"`
	Audit        pillar.FullAudit `json:"audit"`
	Envelope     report.Envelope  `json:"envelope"`
}

// BuildFullAudit assembles the whole-graph audit for one user.
func (u Usecases) BuildFullAudit(ctx context.Context, in AuditInput) (AuditOutput, error) {
	out := AuditOutput{UserID: in.UserID}
	full, b, graphVersion, err := u.buildFull(ctx, in.UserID)
	if err != nil {
		return out, err
	}
	out.GraphVersion = graphVersion
	out.Audit = full
	out.Envelope = b.Build(full.GeneratedAt, map[string]int{
		"nodes":     len(full.Nodes),
		"edges":     len(full.Edges),
		"habits":    len(full.Habits),
		"questions": len(full.Questions),
	}, full)
	return out, nil
}

func (u Usecases) buildFull(ctx context.Context, userID uuid.UUID) (pillar.FullAudit, *report.Builder, string, error) {
	if u.deps.UserGraphs == nil || u.deps.Interventions == nil || u.deps.Questions == nil {
		return pillar.FullAudit{}, nil, "", fmt.Errorf("graph: missing deps")
	}
	if userID == uuid.Nil {
		return pillar.FullAudit{}, nil, "", fmt.Errorf("graph: missing user_id: %w", errors.ErrInvalidArgument)
	}
	dbc := dbctx.Context{Ctx: ctx}

	doc, err := u.deps.UserGraphs.GetByUserID(dbc, userID)
	if err != nil {
		return pillar.FullAudit{}, nil, "", err
	}
	if doc == nil {
		return pillar.FullAudit{}, nil, "", fmt.Errorf("graph: user %s has no graph document: %w", userID, errors.ErrNotFound)
	}
	g := model.ParseDocument(doc.Payload)
	graphVersion := doc.GraphVersion
	if graphVersion == "" {
		graphVersion = merge.ComputeGraphVersion(g)
	}

	interventionRows, err := u.deps.Interventions.ListAll(dbc)
	if err != nil {
		return pillar.FullAudit{}, nil, "", err
	}
	questionRows, err := u.deps.Questions.ListAll(dbc)
	if err != nil {
		return pillar.FullAudit{}, nil, "", err
	}

	b := report.NewBuilder()
	b.RegisterSource(pillar.RefUserGraph, report.Source{
		Table:     types.UserGraphDoc{}.TableName(),
		Selector:  "user_id=" + userID.String(),
		UpdatedAt: doc.UpdatedAt,
	})
	b.RegisterSource(pillar.RefInterventions, report.Source{Table: types.InterventionRecord{}.TableName()})
	b.RegisterSource(pillar.RefQuestions, report.Source{Table: types.QuestionRecord{}.TableName()})

	full := pillar.BuildFullAudit(g, toInterventions(interventionRows), toQuestions(questionRows), time.Now().UTC(), b)
	return full, b, graphVersion, nil
}

type PillarAuditInput struct {
	UserID        uuid.UUID
	PillarKey     string
	Persist       bool
	SkipUnchanged bool
}

type PillarAuditOutput struct {
	UserID           uuid.UUID       `json:"user_id"`
	PillarKey        string          `json:"pillar_key"`
	GraphVersion     string          `json:"graph_version"`
	Status           string          `json:"status"`
	Report           pillar.Report   `json:"report"`
	Envelope         report.Envelope `json:"envelope"`
	Persisted        bool            `json:"persisted"`
	SkippedUnchanged bool            `json:"skipped_unchanged"`
}

// AuditPillar cuts the pillar scope from the full audit and wraps it in a
// report envelope. With SkipUnchanged the version cache short-circuits
// users whose fingerprint has not moved since the last audit.
func (u Usecases) AuditPillar(ctx context.Context, in PillarAuditInput) (PillarAuditOutput, error) {
	out := PillarAuditOutput{UserID: in.UserID, PillarKey: in.PillarKey}
	pillarKey := strings.TrimSpace(in.PillarKey)

	if in.SkipUnchanged && u.deps.Cache != nil && u.deps.UserGraphs != nil {
		doc, err := u.deps.UserGraphs.GetByUserID(dbctx.Context{Ctx: ctx}, in.UserID)
		if err == nil && doc != nil && doc.GraphVersion != "" {
			if cached, ok := u.deps.Cache.Get(ctx, in.UserID, pillarKey); ok && cached == doc.GraphVersion {
				out.GraphVersion = doc.GraphVersion
				out.SkippedUnchanged = true
				return out, nil
			}
		}
	}

	full, b, graphVersion, err := u.buildFull(ctx, in.UserID)
	if err != nil {
		return out, err
	}
	out.GraphVersion = graphVersion

	scoped := pillar.FilterToPillar(full, pillarKey)
	out.Report = scoped

	validation := b.Validation()
	out.Status = validation.Status
	out.Envelope = b.Build(full.GeneratedAt, map[string]int{
		"nodes":     scoped.Metrics.NodeCount,
		"edges":     scoped.Metrics.EdgeCount,
		"habits":    scoped.Metrics.HabitCount,
		"questions": scoped.Metrics.QuestionCount,
	}, scoped)

	if in.Persist && u.deps.Reports != nil {
		payload, err := json.Marshal(out.Envelope)
		if err != nil {
			return out, fmt.Errorf("graph: marshal audit envelope: %w", err)
		}
		row := &types.GraphAuditReport{
			UserID:       in.UserID,
			PillarKey:    pillarKey,
			GraphVersion: graphVersion,
			Status:       validation.Status,
			Payload:      datatypes.JSON(payload),
		}
		if err := u.deps.Reports.Create(dbctx.Context{Ctx: ctx}, row); err != nil {
			return out, err
		}
		out.Persisted = true
	}

	if u.deps.Cache != nil && graphVersion != "" {
		_ = u.deps.Cache.Put(ctx, in.UserID, pillarKey, graphVersion)
	}
	return out, nil
}

type AllPillarsInput struct {
	UserID        uuid.UUID
	Persist       bool
	SkipUnchanged bool
}

type AllPillarsOutput struct {
	UserID      uuid.UUID           `json:"user_id"`
	Reports     []PillarAuditOutput `json:"reports"`
	FailedCount int                 `json:"failed_count"`
}

// AuditAllPillars runs the pillar audit across the registered taxonomy in
// rank order.
func (u Usecases) AuditAllPillars(ctx context.Context, in AllPillarsInput) (AllPillarsOutput, error) {
	out := AllPillarsOutput{UserID: in.UserID}
	if u.deps.Pillars == nil {
		return out, fmt.Errorf("graph: missing deps")
	}
	rows, err := u.deps.Pillars.ListAll(dbctx.Context{Ctx: ctx})
	if err != nil {
		return out, err
	}
	for _, p := range rows {
		if p == nil || strings.TrimSpace(p.Key) == "" {
			continue
		}
		rep, err := u.AuditPillar(ctx, PillarAuditInput{
			UserID:        in.UserID,
			PillarKey:     p.Key,
			Persist:       in.Persist,
			SkipUnchanged: in.SkipUnchanged,
		})
		if err != nil {
			return out, err
		}
		out.Reports = append(out.Reports, rep)
		if rep.Status == report.StatusFail {
			out.FailedCount++
		}
	}
	return out, nil
}

// ComputeDrift evaluates windowed audit health metrics and, on sustained
// degradation, writes a rollback recommendation.
func (u Usecases) ComputeDrift(ctx context.Context, cfg drift.Config) (drift.ComputeOutput, error) {
	if cfg.Disabled {
		return drift.ComputeOutput{}, nil
	}
	return drift.Compute(ctx, drift.ComputeDeps{
		DB:           u.deps.DB,
		Log:          u.deps.Log,
		Metrics:      u.deps.DriftMetrics,
		RollbackRepo: u.deps.Rollbacks,
	}, cfg.Input())
}

func toInterventions(rows []*types.InterventionRecord) []pillar.Intervention {
	out := make([]pillar.Intervention, 0, len(rows))
	for _, r := range rows {
		if r == nil {
			continue
		}
		out = append(out, pillar.Intervention{
			Key:           r.Key,
			Title:         r.Title,
			GraphNodeID:   r.GraphNodeID,
			TargetNodeIDs: decodeStrings(r.TargetNodes),
			GraphEdgeIDs:  decodeStrings(r.GraphEdgeIDs),
			Pillars:       decodeStrings(r.Pillars),
			PlanningTags:  decodeStrings(r.PlanningTags),
		})
	}
	return out
}

func toQuestions(rows []*types.QuestionRecord) []pillar.Question {
	out := make([]pillar.Question, 0, len(rows))
	for _, r := range rows {
		if r == nil {
			continue
		}
		out = append(out, pillar.Question{Key: r.Key, Prompt: r.Prompt, Kind: r.Kind})
	}
	return out
}

func decodeStrings(raw datatypes.JSON) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var vals []string
	if err := json.Unmarshal(raw, &vals); err != nil {
		return nil
	}
	out := vals[:0]
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
