package model

import (
	"encoding/json"
	"math"
	"strings"
)

// Parsing is deliberately permissive: the auditors run over a store of
// real-world, possibly corrupt documents, so a bad node or edge is
// dropped, never fatal. A node needs a non-empty string id; an edge needs
// non-empty source and target; everything else gets defaults.

// ParseDocument decodes raw JSON bytes, unwraps known container shapes,
// and parses the graph. An unreadable document parses as an empty graph.
func ParseDocument(raw []byte) Graph {
	if len(raw) == 0 {
		return Graph{}
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Graph{}
	}
	return ParseGraph(Normalize(doc))
}

// Normalize unwraps the document shapes seen in the store: the graph
// directly, wrapped under "graphData", or nested inside a diagram
// container ("diagram" / "diagramData"). Unwrapping recurses so a
// diagram container holding a graphData wrapper still resolves.
func Normalize(doc any) any {
	m, ok := doc.(map[string]any)
	if !ok {
		return doc
	}
	for _, key := range []string{"graphData", "diagram", "diagramData"} {
		if inner, ok := m[key]; ok {
			if _, isMap := inner.(map[string]any); isMap {
				return Normalize(inner)
			}
		}
	}
	return m
}

// ParseGraph parses an already-unmarshaled JSON value into a Graph.
// It never fails; invalid entries are silently excluded and duplicate
// node ids collapse to the last occurrence.
func ParseGraph(doc any) Graph {
	m, ok := doc.(map[string]any)
	if !ok {
		return Graph{}
	}

	g := Graph{}
	if rawNodes, ok := m["nodes"].([]any); ok {
		seen := map[string]int{}
		for _, rn := range rawNodes {
			node, ok := TryParseNode(rn)
			if !ok {
				continue
			}
			if at, dup := seen[node.ID]; dup {
				g.Nodes[at] = node
				continue
			}
			seen[node.ID] = len(g.Nodes)
			g.Nodes = append(g.Nodes, node)
		}
	}
	if rawEdges, ok := m["edges"].([]any); ok {
		for _, re := range rawEdges {
			edge, ok := TryParseEdge(re)
			if !ok {
				continue
			}
			g.Edges = append(g.Edges, edge)
		}
	}
	return g
}

// TryParseNode accepts any JSON value and reports whether it is a usable
// node record.
func TryParseNode(raw any) (Node, bool) {
	m, ok := raw.(map[string]any)
	if !ok {
		return Node{}, false
	}
	id := stringField(m, "id")
	if id == "" {
		return Node{}, false
	}
	n := Node{
		ID:            id,
		Label:         stringField(m, "label"),
		StyleClass:    stringField(m, "styleClass"),
		IsDeactivated: boolField(m, "isDeactivated"),
	}
	if tier, ok := intField(m, "tier"); ok {
		n.Tier = &tier
	}
	if rawParents, ok := m["parentIds"].([]any); ok {
		for _, rp := range rawParents {
			if p, ok := rp.(string); ok && strings.TrimSpace(p) != "" {
				n.ParentIDs = append(n.ParentIDs, strings.TrimSpace(p))
			}
		}
	}
	return n, true
}

// TryParseEdge accepts any JSON value and reports whether it is a usable
// edge record.
func TryParseEdge(raw any) (Edge, bool) {
	m, ok := raw.(map[string]any)
	if !ok {
		return Edge{}, false
	}
	source := stringField(m, "source")
	target := stringField(m, "target")
	if source == "" || target == "" {
		return Edge{}, false
	}
	e := Edge{
		ID:            stringField(m, "id"),
		Source:        source,
		Target:        target,
		EdgeType:      stringField(m, "edgeType"),
		Label:         stringField(m, "label"),
		EdgeColor:     stringField(m, "edgeColor"),
		IsDeactivated: boolField(m, "isDeactivated"),
	}
	if f, ok := floatField(m, "strength"); ok {
		e.Strength = f
	}
	return e, true
}

func stringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func boolField(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func intField(m map[string]any, key string) (int, bool) {
	f, ok := floatField(m, key)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

func floatField(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
