package model

import (
	"encoding/json"
	"testing"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return doc
}

func TestParseGraph_DropsInvalidRecords(t *testing.T) {
	doc := decode(t, `{
		"nodes": [
			{"id": "SLEEP", "label": "Sleep quality", "tier": 2},
			{"label": "no id"},
			{"id": "", "label": "empty id"},
			"not an object",
			{"id": "STRESS", "isDeactivated": true}
		],
		"edges": [
			{"source": "STRESS", "target": "SLEEP", "edgeType": "forward", "strength": 0.7},
			{"source": "STRESS"},
			{"target": "SLEEP"},
			42
		]
	}`)
	g := ParseGraph(doc)
	if len(g.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(g.Nodes))
	}
	if g.Nodes[0].ID != "SLEEP" || g.Nodes[0].Tier == nil || *g.Nodes[0].Tier != 2 {
		t.Fatalf("unexpected first node: %+v", g.Nodes[0])
	}
	if !g.Nodes[1].IsDeactivated {
		t.Fatalf("expected STRESS deactivated")
	}
	if len(g.Edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(g.Edges))
	}
	if g.Edges[0].Strength != 0.7 {
		t.Fatalf("unexpected strength %v", g.Edges[0].Strength)
	}
}

func TestParseGraph_DuplicateNodeIDsLastWriteWins(t *testing.T) {
	doc := decode(t, `{
		"nodes": [
			{"id": "A", "label": "first"},
			{"id": "B"},
			{"id": "A", "label": "second"}
		],
		"edges": []
	}`)
	g := ParseGraph(doc)
	if len(g.Nodes) != 2 {
		t.Fatalf("expected collapse to 2 nodes, got %d", len(g.Nodes))
	}
	if g.Nodes[0].ID != "A" || g.Nodes[0].Label != "second" {
		t.Fatalf("expected last occurrence to win in place, got %+v", g.Nodes[0])
	}
}

func TestNormalize_UnwrapsContainerShapes(t *testing.T) {
	direct := decode(t, `{"nodes": [{"id": "A"}], "edges": []}`)
	wrapped := decode(t, `{"graphData": {"nodes": [{"id": "A"}], "edges": []}}`)
	nested := decode(t, `{"diagram": {"graphData": {"nodes": [{"id": "A"}], "edges": []}}}`)

	for name, doc := range map[string]any{"direct": direct, "graphData": wrapped, "diagram": nested} {
		g := ParseGraph(Normalize(doc))
		if len(g.Nodes) != 1 || g.Nodes[0].ID != "A" {
			t.Fatalf("%s: expected node A, got %+v", name, g.Nodes)
		}
	}
}

func TestParseDocument_NeverFails(t *testing.T) {
	for _, raw := range []string{"", "not json", "[1,2,3]", `{"nodes": "nope"}`} {
		g := ParseDocument([]byte(raw))
		if len(g.Nodes) != 0 || len(g.Edges) != 0 {
			t.Fatalf("expected empty graph for %q, got %+v", raw, g)
		}
	}
}

func TestClone_IsDeep(t *testing.T) {
	tier := 3
	g := Graph{
		Nodes: []Node{{ID: "A", Tier: &tier, ParentIDs: []string{"P"}}},
		Edges: []Edge{{Source: "A", Target: "B"}},
	}
	cp := Clone(g)
	*cp.Nodes[0].Tier = 9
	cp.Nodes[0].ParentIDs[0] = "Q"
	cp.Edges[0].Target = "C"
	if *g.Nodes[0].Tier != 3 || g.Nodes[0].ParentIDs[0] != "P" || g.Edges[0].Target != "B" {
		t.Fatalf("clone aliased the original: %+v", g)
	}
}
