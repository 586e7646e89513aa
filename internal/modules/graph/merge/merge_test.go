package merge

import (
	"reflect"
	"testing"

	"github.com/yungbote/causalmap-backend/internal/modules/graph/model"
)

func canonicalFixture() model.Graph {
	tier := 1
	return model.Graph{
		Nodes: []model.Node{
			{ID: "A", Label: "Factor A", StyleClass: model.StyleFoundation, Tier: &tier},
			{ID: "B", Label: "Symptom B", StyleClass: model.StyleSymptom},
		},
		Edges: []model.Edge{
			{Source: "A", Target: "B", EdgeType: "forward", Strength: 0.8, EdgeColor: "#333"},
		},
	}
}

func TestApply_AddsMissingNodeAndEdge(t *testing.T) {
	user := model.Graph{Nodes: []model.Node{{ID: "A", Label: "My A"}}}
	req := RequiredSet{
		NodeIDs:   []string{"A", "B"},
		EdgeRules: []EdgeRule{{Source: "A", Target: "B", EdgeType: "forward"}},
	}

	res := Apply(user, canonicalFixture(), req)
	if !res.Changed {
		t.Fatalf("expected Changed=true")
	}
	if !reflect.DeepEqual(res.AddedNodeIDs, []string{"B"}) {
		t.Fatalf("unexpected AddedNodeIDs %v", res.AddedNodeIDs)
	}
	if !reflect.DeepEqual(res.AddedEdgeSignatures, []string{"a|b|forward|"}) {
		t.Fatalf("unexpected AddedEdgeSignatures %v", res.AddedEdgeSignatures)
	}
	if len(res.NextGraph.Nodes) != 2 || len(res.NextGraph.Edges) != 1 {
		t.Fatalf("unexpected graph shape %+v", res.NextGraph)
	}
	// The copied edge carries the canonical cosmetic fields.
	if res.NextGraph.Edges[0].Strength != 0.8 || res.NextGraph.Edges[0].EdgeColor != "#333" {
		t.Fatalf("expected canonical edge copied verbatim, got %+v", res.NextGraph.Edges[0])
	}
	// The user's existing node label is untouched.
	if res.NextGraph.Nodes[0].Label != "My A" {
		t.Fatalf("user node mutated: %+v", res.NextGraph.Nodes[0])
	}
}

func TestApply_Idempotent(t *testing.T) {
	user := model.Graph{Nodes: []model.Node{{ID: "A", Label: "My A"}}}
	req := RequiredSet{
		NodeIDs:   []string{"A", "B"},
		EdgeRules: []EdgeRule{{Source: "A", Target: "B", EdgeType: "forward"}},
	}
	first := Apply(user, canonicalFixture(), req)
	second := Apply(first.NextGraph, canonicalFixture(), req)
	if second.Changed {
		t.Fatalf("second apply must be a no-op, got %+v", second)
	}
	if ComputeGraphVersion(first.NextGraph) != ComputeGraphVersion(second.NextGraph) {
		t.Fatalf("second apply changed the fingerprint")
	}
}

func TestApply_NoLoss(t *testing.T) {
	user := model.Graph{
		Nodes: []model.Node{
			{ID: "A", Label: "My A"},
			{ID: "CUSTOM", Label: "User-added"},
		},
		Edges: []model.Edge{
			{Source: "CUSTOM", Target: "A", EdgeType: "dashed", Label: "my note"},
		},
	}
	res := Apply(user, canonicalFixture(), DefaultRequiredSet())

	byID := model.NodeIndex(res.NextGraph)
	for _, n := range user.Nodes {
		got, ok := byID[n.ID]
		if !ok {
			t.Fatalf("merge dropped node %s", n.ID)
		}
		if got.Label != n.Label {
			t.Fatalf("merge mutated node %s label: %q", n.ID, got.Label)
		}
	}
	foundCustomEdge := false
	for _, e := range res.NextGraph.Edges {
		if e.Source == "CUSTOM" && e.Target == "A" {
			foundCustomEdge = true
		}
	}
	if !foundCustomEdge {
		t.Fatalf("merge dropped the user's edge")
	}
}

func TestApply_ReportsCanonicalDrift(t *testing.T) {
	user := model.Graph{}
	req := RequiredSet{
		NodeIDs:   []string{"A", "GONE"},
		EdgeRules: []EdgeRule{{Source: "A", Target: "GONE", EdgeType: "forward"}},
	}
	res := Apply(user, canonicalFixture(), req)
	if !reflect.DeepEqual(res.MissingCanonicalNodeIDs, []string{"GONE"}) {
		t.Fatalf("unexpected missing nodes %v", res.MissingCanonicalNodeIDs)
	}
	if len(res.MissingCanonicalEdgeRules) != 1 || res.MissingCanonicalEdgeRules[0].Target != "GONE" {
		t.Fatalf("unexpected missing edge rules %v", res.MissingCanonicalEdgeRules)
	}
	// Node A is still added; drift on one rule does not block the others.
	if !reflect.DeepEqual(res.AddedNodeIDs, []string{"A"}) {
		t.Fatalf("unexpected added nodes %v", res.AddedNodeIDs)
	}
}

func TestApply_EnrichesEmptyFieldsOnly(t *testing.T) {
	user := model.Graph{Nodes: []model.Node{{ID: "A"}, {ID: "B", Label: "Mine"}}}
	req := RequiredSet{NodeIDs: []string{"A", "B"}}
	res := Apply(user, canonicalFixture(), req)
	if !res.Changed {
		t.Fatalf("enrichment should mark Changed")
	}
	byID := model.NodeIndex(res.NextGraph)
	if byID["A"].Label != "Factor A" || byID["A"].Tier == nil {
		t.Fatalf("empty fields should be enriched from canonical: %+v", byID["A"])
	}
	if byID["B"].Label != "Mine" {
		t.Fatalf("non-empty user field overwritten: %+v", byID["B"])
	}
}

func TestApply_MatchesEdgesBySignatureNotCosmetics(t *testing.T) {
	user := model.Graph{
		Nodes: []model.Node{{ID: "A"}, {ID: "B"}},
		Edges: []model.Edge{
			// Same relationship, different strength/color than canonical.
			{Source: "a", Target: "B", EdgeType: "FORWARD", Strength: 0.1, EdgeColor: "#fff"},
		},
	}
	req := RequiredSet{EdgeRules: []EdgeRule{{Source: "A", Target: "B", EdgeType: "forward"}}}
	res := Apply(user, canonicalFixture(), req)
	if res.Changed || len(res.AddedEdgeSignatures) != 0 {
		t.Fatalf("signature match should block the add, got %+v", res)
	}
}
