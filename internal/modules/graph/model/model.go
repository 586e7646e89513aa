package model

// Style classes carried on nodes. Unknown classes from raw documents are
// kept as-is; these constants only name the ones the canonical graph uses.
const (
	StyleDefault      = "default"
	StyleFoundation   = "foundation"
	StyleRobust       = "robust"
	StyleModerate     = "moderate"
	StylePreliminary  = "preliminary"
	StyleMechanism    = "mechanism"
	StyleSymptom      = "symptom"
	StyleIntervention = "intervention"
)

// Node is one factor, symptom, or intervention in a causal graph. ID is
// the stable join key across the store boundary; it stays a string on
// purpose so loosely related collections (interventions, questions) can
// reference nodes without in-memory pointers.
type Node struct {
	ID            string   `json:"id"`
	Label         string   `json:"label"`
	StyleClass    string   `json:"styleClass,omitempty"`
	Tier          *int     `json:"tier,omitempty"`
	IsDeactivated bool     `json:"isDeactivated,omitempty"`
	ParentIDs     []string `json:"parentIds,omitempty"`
}

// Edge is one causal relationship. ID may be empty in raw documents;
// identity.AssignIDs derives deterministic ids for those.
type Edge struct {
	ID            string  `json:"id,omitempty"`
	Source        string  `json:"source"`
	Target        string  `json:"target"`
	EdgeType      string  `json:"edgeType,omitempty"`
	Label         string  `json:"label,omitempty"`
	EdgeColor     string  `json:"edgeColor,omitempty"`
	Strength      float64 `json:"strength,omitempty"`
	IsDeactivated bool    `json:"isDeactivated,omitempty"`
}

// Graph holds two independent collections. An edge referencing a missing
// node endpoint is legal here; audits flag it instead of dropping it.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// NodeIndex builds an id -> Node lookup. Later duplicates win, matching
// the last-write-wins parse contract.
func NodeIndex(g Graph) map[string]Node {
	idx := make(map[string]Node, len(g.Nodes))
	for _, n := range g.Nodes {
		idx[n.ID] = n
	}
	return idx
}

// Clone returns a deep copy. Merge produces a new graph value from
// read-only inputs, so callers never see aliased slices.
func Clone(g Graph) Graph {
	out := Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: make([]Edge, len(g.Edges)),
	}
	copy(out.Edges, g.Edges)
	for i, n := range g.Nodes {
		cp := n
		if n.Tier != nil {
			t := *n.Tier
			cp.Tier = &t
		}
		if len(n.ParentIDs) > 0 {
			cp.ParentIDs = append([]string(nil), n.ParentIDs...)
		}
		out.Nodes[i] = cp
	}
	return out
}
