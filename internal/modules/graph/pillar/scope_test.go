package pillar

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/yungbote/causalmap-backend/internal/modules/graph/model"
	"github.com/yungbote/causalmap-backend/internal/modules/graph/report"
)

func newBuilder() *report.Builder {
	b := report.NewBuilder()
	b.RegisterSource(RefUserGraph, report.Source{Table: "user_graph_doc"})
	b.RegisterSource(RefInterventions, report.Source{Table: "intervention_record"})
	b.RegisterSource(RefQuestions, report.Source{Table: "question_record"})
	return b
}

func sleepFixture(t *testing.T) FullAudit {
	t.Helper()
	g := model.Graph{
		Nodes: []model.Node{
			{ID: "SLEEP_HABIT", Label: "Wind-down routine"},
			{ID: "SLEEP_QUALITY", Label: "Sleep quality"},
			{ID: "STRESS", Label: "Stress"},
			{ID: "LONELY", Label: "Unrelated node"},
		},
		Edges: []model.Edge{
			{ID: "e-habit-quality", Source: "SLEEP_HABIT", Target: "SLEEP_QUALITY", EdgeType: "forward"},
			{ID: "e-stress-quality", Source: "STRESS", Target: "SLEEP_QUALITY", EdgeType: "forward"},
			{ID: "e-stress-lonely", Source: "STRESS", Target: "LONELY", EdgeType: "forward"},
		},
	}
	interventions := []Intervention{
		{
			Key:          "wind_down",
			Title:        "Wind-down routine",
			GraphNodeID:  "SLEEP_HABIT",
			GraphEdgeIDs: []string{"e-habit-quality"},
			Pillars:      []string{"sleep"},
		},
		{
			Key:           "stress_journal",
			Title:         "Evening journaling",
			GraphNodeID:   "STRESS",
			TargetNodeIDs: []string{"SLEEP_QUALITY"},
			Pillars:       []string{"sleep"},
		},
		{
			// Untagged but linked through the owned set via its node.
			Key:         "breathing",
			Title:       "Box breathing",
			GraphNodeID: "STRESS",
		},
		{
			Key:         "gardening",
			Title:       "Gardening",
			GraphNodeID: "OUTDOORS",
			Pillars:     []string{"movement"},
		},
	}
	questions := []Question{
		{Key: "pillar.sleep", Prompt: "How rested do you feel?", Kind: "outcome"},
		{Key: "pillar.movement", Prompt: "How active were you?", Kind: "outcome"},
	}
	return BuildFullAudit(g, interventions, questions, time.Unix(1700000000, 0), newBuilder())
}

func TestFilterToPillar_UnknownPillarIsEmptyValidReport(t *testing.T) {
	full := sleepFixture(t)
	got := FilterToPillar(full, "no_such_pillar")
	if got.Metrics.NodeCount != 0 || got.Metrics.EdgeCount != 0 || got.Metrics.HabitCount != 0 {
		t.Fatalf("expected all-zero metrics, got %+v", got.Metrics)
	}
	if len(got.Nodes) != 0 || len(got.Edges) != 0 || len(got.Habits) != 0 || len(got.Questions) != 0 {
		t.Fatalf("expected empty report, got %+v", got)
	}
}

func TestFilterToPillar_SeedingAndClosure(t *testing.T) {
	full := sleepFixture(t)
	got := FilterToPillar(full, "sleep")

	wantNodes := []string{"SLEEP_HABIT", "SLEEP_QUALITY", "STRESS"}
	var haveNodes []string
	for _, n := range got.Nodes {
		haveNodes = append(haveNodes, n.ID)
	}
	if !reflect.DeepEqual(haveNodes, wantNodes) {
		t.Fatalf("owned nodes = %v, want %v", haveNodes, wantNodes)
	}

	// e-stress-quality was never declared; both endpoints are owned, so
	// the closure pass pulls it in. e-stress-lonely keeps LONELY out.
	var haveEdges []string
	for _, e := range got.Edges {
		haveEdges = append(haveEdges, e.ID)
	}
	if !reflect.DeepEqual(haveEdges, []string{"e-habit-quality", "e-stress-quality"}) {
		t.Fatalf("owned edges = %v", haveEdges)
	}
}

func TestFilterToPillar_RecoversUntaggedIntervention(t *testing.T) {
	full := sleepFixture(t)
	got := FilterToPillar(full, "sleep")
	var keys []string
	for _, h := range got.Habits {
		keys = append(keys, h.Key)
	}
	if !reflect.DeepEqual(keys, []string{"breathing", "stress_journal", "wind_down"}) {
		t.Fatalf("habit keys = %v", keys)
	}
}

func TestFilterToPillar_QuestionConvention(t *testing.T) {
	full := sleepFixture(t)
	got := FilterToPillar(full, "sleep")
	if len(got.Questions) != 1 || got.Questions[0].Key != "pillar.sleep" {
		t.Fatalf("unexpected questions %+v", got.Questions)
	}
}

func TestFilterToPillar_StrictNarrowing(t *testing.T) {
	full := sleepFixture(t)
	got := FilterToPillar(full, "sleep")
	fullNodes := map[string]struct{}{}
	for _, n := range full.Nodes {
		fullNodes[n.ID] = struct{}{}
	}
	for _, n := range got.Nodes {
		if _, ok := fullNodes[n.ID]; !ok {
			t.Fatalf("scoped node %s not in full audit", n.ID)
		}
	}
}

func TestFilterToPillar_SinglePassClosureDoesNotChase(t *testing.T) {
	// A chain X -> Y -> Z where only X and Y are seeded: the single pass
	// owns edge X->Y, but must NOT then pull Z through Y->Z.
	g := model.Graph{
		Nodes: []model.Node{{ID: "X"}, {ID: "Y"}, {ID: "Z"}},
		Edges: []model.Edge{
			{ID: "xy", Source: "X", Target: "Y", EdgeType: "forward"},
			{ID: "yz", Source: "Y", Target: "Z", EdgeType: "forward"},
		},
	}
	interventions := []Intervention{{
		Key:           "seeded",
		GraphNodeID:   "X",
		TargetNodeIDs: []string{"Y"},
		Pillars:       []string{"p"},
	}}
	full := BuildFullAudit(g, interventions, nil, time.Unix(0, 0), newBuilder())
	got := FilterToPillar(full, "p")
	for _, n := range got.Nodes {
		if n.ID == "Z" {
			t.Fatalf("single-pass closure must not chase multi-hop chains")
		}
	}
	for _, e := range got.Edges {
		if e.ID == "yz" {
			t.Fatalf("edge yz must stay out of scope")
		}
	}
}

func TestFilterToPillar_MissingEdgeLinkMetrics(t *testing.T) {
	g := model.Graph{Nodes: []model.Node{{ID: "SLEEP_HABIT"}}}
	interventions := []Intervention{{
		Key:          "wind_down",
		GraphNodeID:  "SLEEP_HABIT",
		GraphEdgeIDs: []string{"e1"},
		Pillars:      []string{"sleep"},
	}}
	full := BuildFullAudit(g, interventions, nil, time.Unix(0, 0), newBuilder())
	got := FilterToPillar(full, "sleep")

	if len(got.Habits) != 1 {
		t.Fatalf("expected 1 habit, got %d", len(got.Habits))
	}
	h := got.Habits[0]
	if h.SourceEdgesExist {
		t.Fatalf("edge e1 does not exist; source_edges_exist must be false")
	}
	if !reflect.DeepEqual(h.MissingGraphEdgeIDs, []string{"e1"}) {
		t.Fatalf("missing_graph_edge_ids = %v", h.MissingGraphEdgeIDs)
	}
	if got.Metrics.HabitsMissingEdgeLinksCount != 1 {
		t.Fatalf("habits_missing_edge_links_count = %d", got.Metrics.HabitsMissingEdgeLinksCount)
	}
	if got.Metrics.HabitsLinkedCount != 1 {
		t.Fatalf("habits_linked_count = %d (primary node exists)", got.Metrics.HabitsLinkedCount)
	}
}

func TestFilterToPillar_DisconnectedNodes(t *testing.T) {
	g := model.Graph{Nodes: []model.Node{{ID: "A"}, {ID: "B"}}}
	interventions := []Intervention{{
		Key:           "only_nodes",
		GraphNodeID:   "A",
		TargetNodeIDs: []string{"B"},
		Pillars:       []string{"p"},
	}}
	full := BuildFullAudit(g, interventions, nil, time.Unix(0, 0), newBuilder())
	got := FilterToPillar(full, "p")
	if !reflect.DeepEqual(got.Metrics.DisconnectedNodeIDs, []string{"A", "B"}) {
		t.Fatalf("disconnected = %v", got.Metrics.DisconnectedNodeIDs)
	}
}

func TestFilterToPillar_ByteIdenticalAcrossRuns(t *testing.T) {
	first, err := json.Marshal(FilterToPillar(sleepFixture(t), "sleep"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := json.Marshal(FilterToPillar(sleepFixture(t), "sleep"))
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if string(first) != string(again) {
			t.Fatalf("output not byte-identical:\n%s\n%s", first, again)
		}
	}
}

func TestBuildFullAudit_FlagsDanglingEdgeEndpoints(t *testing.T) {
	g := model.Graph{
		Nodes: []model.Node{{ID: "A"}},
		Edges: []model.Edge{{ID: "dangling", Source: "A", Target: "GONE", EdgeType: "forward"}},
	}
	b := newBuilder()
	full := BuildFullAudit(g, nil, nil, time.Unix(0, 0), b)
	// The edge is kept in the audit, not dropped.
	if len(full.Edges) != 1 || !reflect.DeepEqual(full.Edges[0].MissingEndpoints, []string{"GONE"}) {
		t.Fatalf("unexpected edges %+v", full.Edges)
	}
	v := b.Validation()
	if v.Status != report.StatusFail {
		t.Fatalf("dangling endpoint must fail validation, got %q", v.Status)
	}
	if v.Violations[0].Code != "edge_endpoint_missing" {
		t.Fatalf("unexpected violation %+v", v.Violations[0])
	}
}

func TestBuildFullAudit_AssignsDerivedEdgeIDs(t *testing.T) {
	g := model.Graph{
		Nodes: []model.Node{{ID: "A"}, {ID: "B"}},
		Edges: []model.Edge{
			{Source: "A", Target: "B", EdgeType: "forward"},
			{Source: "A", Target: "B", EdgeType: "forward"},
		},
	}
	full := BuildFullAudit(g, nil, nil, time.Unix(0, 0), newBuilder())
	if full.Edges[0].ID != "edge:a|b|forward|#0" || full.Edges[1].ID != "edge:a|b|forward|#1" {
		t.Fatalf("unexpected derived ids %q %q", full.Edges[0].ID, full.Edges[1].ID)
	}
}
