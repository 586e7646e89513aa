package graph

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	repos "github.com/yungbote/causalmap-backend/internal/data/repos/graph"
	"github.com/yungbote/causalmap-backend/internal/data/repos/testutil"
	"github.com/yungbote/causalmap-backend/internal/modules/graph/report"
	"github.com/yungbote/causalmap-backend/internal/platform/dbctx"
)

func dbctxOf(ctx context.Context) dbctx.Context { return dbctx.Context{Ctx: ctx} }

func TestDecodeStrings(t *testing.T) {
	if got := decodeStrings(nil); got != nil {
		t.Fatalf("nil payload: got %v", got)
	}
	if got := decodeStrings(datatypes.JSON(`null`)); got != nil {
		t.Fatalf("null payload: got %v", got)
	}
	if got := decodeStrings(datatypes.JSON(`{"not":"a list"}`)); got != nil {
		t.Fatalf("wrong shape: got %v", got)
	}
	got := decodeStrings(datatypes.JSON(`[" a ","","b"]`))
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("trimmed list: got %v", got)
	}
	if got := decodeStrings(datatypes.JSON(`["", "  "]`)); got != nil {
		t.Fatalf("all-blank list: got %v", got)
	}
}

func writeRules(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	return path
}

func testUsecases(t *testing.T) (Usecases, context.Context) {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	u := New(Deps{
		DB:            tx,
		Log:           log,
		UserGraphs:    repos.NewUserGraphRepo(tx, log),
		Snapshots:     repos.NewCanonicalSnapshotRepo(tx, log),
		Interventions: repos.NewInterventionRepo(tx, log),
		Pillars:       repos.NewPillarRepo(tx, log),
		Questions:     repos.NewQuestionRepo(tx, log),
		Reports:       repos.NewAuditReportRepo(tx, log),
		Versions:      repos.NewGraphVersionRepo(tx, log),
		DriftMetrics:  repos.NewDriftMetricRepo(tx, log),
		Rollbacks:     repos.NewRollbackRepo(tx, log),
	})
	return u, context.Background()
}

func seedCanonicalAndUser(t *testing.T, u Usecases, ctx context.Context, userID uuid.UUID) {
	t.Helper()
	tx := u.deps.DB
	canonical := map[string]any{
		"nodes": []map[string]any{
			{"id": "STRESS_LEVEL", "label": "Stress level"},
			{"id": "SLEEP_QUALITY", "label": "Sleep quality"},
		},
		"edges": []map[string]any{
			{"source": "STRESS_LEVEL", "target": "SLEEP_QUALITY", "edgeType": "forward"},
		},
	}
	testutil.SeedCanonicalSnapshot(t, ctx, tx, "canonical-"+uuid.NewString()[:8], canonical, true)
	user := map[string]any{
		"nodes": []map[string]any{{"id": "STRESS_LEVEL", "label": "My stress"}},
		"edges": []map[string]any{},
	}
	testutil.SeedUserGraph(t, ctx, tx, userID, user)
}

func TestPatchUserGraph(t *testing.T) {
	u, ctx := testUsecases(t)
	userID := uuid.New()
	seedCanonicalAndUser(t, u, ctx, userID)

	rules := writeRules(t, `
node_ids: [STRESS_LEVEL, SLEEP_QUALITY]
edge_rules:
  - source: STRESS_LEVEL
    target: SLEEP_QUALITY
    edge_type: forward
`)

	out, err := u.PatchUserGraph(ctx, PatchInput{UserID: userID, RulesPath: rules})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if !out.Changed || !out.Persisted {
		t.Fatalf("expected a persisted change, got %+v", out)
	}
	if len(out.AddedNodeIDs) != 1 || out.AddedNodeIDs[0] != "SLEEP_QUALITY" {
		t.Fatalf("added nodes: %v", out.AddedNodeIDs)
	}
	if len(out.AddedEdgeSignatures) != 1 {
		t.Fatalf("added edges: %v", out.AddedEdgeSignatures)
	}
	if out.GraphVersion == "" {
		t.Fatalf("expected a graph version")
	}

	again, err := u.PatchUserGraph(ctx, PatchInput{UserID: userID, RulesPath: rules})
	if err != nil {
		t.Fatalf("repatch: %v", err)
	}
	if again.Changed || again.Persisted {
		t.Fatalf("repatch should be a no-op, got %+v", again)
	}
	if again.GraphVersion != out.GraphVersion {
		t.Fatalf("graph version drifted across no-op: %s vs %s", again.GraphVersion, out.GraphVersion)
	}

	dbcUser, err := u.deps.UserGraphs.GetByUserID(dbctxOf(ctx), userID)
	if err != nil || dbcUser == nil {
		t.Fatalf("reload doc: %v", err)
	}
	if dbcUser.GraphVersion != out.GraphVersion {
		t.Fatalf("stored version %s, want %s", dbcUser.GraphVersion, out.GraphVersion)
	}
	rec, err := u.deps.Versions.Latest(dbctxOf(ctx), userID)
	if err != nil || rec == nil {
		t.Fatalf("version record: %v", err)
	}
	if rec.GraphVersion != out.GraphVersion {
		t.Fatalf("version record %s, want %s", rec.GraphVersion, out.GraphVersion)
	}
}

func TestPatchUserGraphDryRun(t *testing.T) {
	u, ctx := testUsecases(t)
	userID := uuid.New()
	seedCanonicalAndUser(t, u, ctx, userID)

	rules := writeRules(t, "node_ids: [SLEEP_QUALITY]\n")
	out, err := u.PatchUserGraph(ctx, PatchInput{UserID: userID, RulesPath: rules, DryRun: true})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !out.Changed || out.Persisted {
		t.Fatalf("dry run should report but not persist, got %+v", out)
	}
	doc, err := u.deps.UserGraphs.GetByUserID(dbctxOf(ctx), userID)
	if err != nil || doc == nil {
		t.Fatalf("reload doc: %v", err)
	}
	if doc.GraphVersion != "" {
		t.Fatalf("dry run wrote a version: %s", doc.GraphVersion)
	}
}

func TestAuditPillarPersists(t *testing.T) {
	u, ctx := testUsecases(t)
	userID := uuid.New()
	seedCanonicalAndUser(t, u, ctx, userID)
	tx := u.deps.DB

	testutil.SeedIntervention(t, ctx, tx, "stress_journal", "STRESS_LEVEL", []string{"sleep"})
	testutil.SeedQuestion(t, ctx, tx, "pillar.sleep", "How did you sleep?")
	testutil.SeedPillar(t, ctx, tx, "sleep", 1)

	out, err := u.AuditPillar(ctx, PillarAuditInput{UserID: userID, PillarKey: "sleep", Persist: true})
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if !out.Persisted {
		t.Fatalf("expected persisted report")
	}
	if out.Status != report.StatusPass {
		t.Fatalf("status %s, violations %+v", out.Status, out.Envelope.Validation.Violations)
	}
	if out.Report.Metrics.NodeCount != 1 || out.Report.Metrics.HabitCount != 1 {
		t.Fatalf("metrics: %+v", out.Report.Metrics)
	}
	if len(out.Report.Questions) != 1 || out.Report.Questions[0].Key != "pillar.sleep" {
		t.Fatalf("questions: %+v", out.Report.Questions)
	}

	row, err := u.deps.Reports.LatestForUser(dbctxOf(ctx), userID, "sleep")
	if err != nil || row == nil {
		t.Fatalf("stored report: %v", err)
	}
	if row.Status != report.StatusPass || row.PillarKey != "sleep" {
		t.Fatalf("stored row: %+v", row)
	}
}

func TestAuditAllPillars(t *testing.T) {
	u, ctx := testUsecases(t)
	userID := uuid.New()
	seedCanonicalAndUser(t, u, ctx, userID)
	tx := u.deps.DB

	testutil.SeedPillar(t, ctx, tx, "sleep", 1)
	testutil.SeedPillar(t, ctx, tx, "movement", 2)

	out, err := u.AuditAllPillars(ctx, AllPillarsInput{UserID: userID})
	if err != nil {
		t.Fatalf("audit all: %v", err)
	}
	if len(out.Reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(out.Reports))
	}
	if out.Reports[0].PillarKey != "sleep" || out.Reports[1].PillarKey != "movement" {
		t.Fatalf("pillar order: %+v", []string{out.Reports[0].PillarKey, out.Reports[1].PillarKey})
	}
	if out.FailedCount != 0 {
		t.Fatalf("unexpected failures: %d", out.FailedCount)
	}
}

func TestPatchUserGraphMissingDoc(t *testing.T) {
	u, ctx := testUsecases(t)
	if _, err := u.PatchUserGraph(ctx, PatchInput{UserID: uuid.New()}); err == nil {
		t.Fatalf("expected error for missing document")
	}
}
