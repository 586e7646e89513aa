// Package merge reconciles a user graph against the canonical graph:
// it resolves a fixed required set of canonical nodes and edge rules and
// adds whatever the user graph is missing. Merges only ever add; a user's
// own nodes and edges are never removed or overwritten.
package merge

import (
	"strings"

	"github.com/yungbote/causalmap-backend/internal/modules/graph/identity"
	"github.com/yungbote/causalmap-backend/internal/modules/graph/model"
)

// Result is the structured diff of one merge application. Changed gates
// persistence: re-applying a merge to an already-patched graph yields
// Changed=false and an identical NextGraph.
type Result struct {
	NextGraph model.Graph `json:"next_graph"`

	AddedNodeIDs        []string `json:"added_node_ids"`
	AddedEdgeSignatures []string `json:"added_edge_signatures"`

	// Canonical drift: required entries the canonical graph itself lacks.
	// These are reported, never fatal.
	MissingCanonicalNodeIDs   []string   `json:"missing_canonical_node_ids"`
	MissingCanonicalEdgeRules []EdgeRule `json:"missing_canonical_edge_rules"`

	Changed bool `json:"changed"`
}

// Apply ensures the required canonical subgraph is present in the user
// graph. Inputs are read-only; the returned graph is a fresh value.
func Apply(user, canonical model.Graph, req RequiredSet) Result {
	res := Result{NextGraph: model.Clone(user)}

	canonicalNodes := model.NodeIndex(canonical)
	canonicalBySig := map[string]model.Edge{}
	for _, e := range canonical.Edges {
		sig := identity.Signature(e)
		if _, ok := canonicalBySig[sig]; !ok {
			canonicalBySig[sig] = e
		}
	}

	userNodes := map[string]int{}
	for i, n := range res.NextGraph.Nodes {
		userNodes[n.ID] = i
	}
	userSigs := identity.SignatureSet(res.NextGraph.Edges)

	for _, id := range req.NodeIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		canonicalNode, ok := canonicalNodes[id]
		if !ok {
			res.MissingCanonicalNodeIDs = append(res.MissingCanonicalNodeIDs, id)
			continue
		}
		if at, present := userNodes[id]; present {
			enriched, touched := enrichNode(res.NextGraph.Nodes[at], canonicalNode)
			if touched {
				res.NextGraph.Nodes[at] = enriched
				res.Changed = true
			}
			continue
		}
		userNodes[id] = len(res.NextGraph.Nodes)
		res.NextGraph.Nodes = append(res.NextGraph.Nodes, copyNode(canonicalNode))
		res.AddedNodeIDs = append(res.AddedNodeIDs, id)
		res.Changed = true
	}

	for _, rule := range req.EdgeRules {
		sig := identity.SignatureOf(rule.Source, rule.Target, rule.EdgeType, rule.Label)
		canonicalEdge, ok := canonicalBySig[sig]
		if !ok {
			res.MissingCanonicalEdgeRules = append(res.MissingCanonicalEdgeRules, rule)
			continue
		}
		if _, present := userSigs[sig]; present {
			continue
		}
		userSigs[sig] = struct{}{}
		res.NextGraph.Edges = append(res.NextGraph.Edges, canonicalEdge)
		res.AddedEdgeSignatures = append(res.AddedEdgeSignatures, sig)
		res.Changed = true
	}

	return res
}

// enrichNode fills empty fields of an existing user node from the
// canonical copy. Existing values always win; only empty label/style and
// nil tier are taken from canonical.
func enrichNode(existing, canonical model.Node) (model.Node, bool) {
	touched := false
	if strings.TrimSpace(existing.Label) == "" && strings.TrimSpace(canonical.Label) != "" {
		existing.Label = canonical.Label
		touched = true
	}
	if strings.TrimSpace(existing.StyleClass) == "" && strings.TrimSpace(canonical.StyleClass) != "" {
		existing.StyleClass = canonical.StyleClass
		touched = true
	}
	if existing.Tier == nil && canonical.Tier != nil {
		t := *canonical.Tier
		existing.Tier = &t
		touched = true
	}
	return existing, touched
}

func copyNode(n model.Node) model.Node {
	cp := n
	if n.Tier != nil {
		t := *n.Tier
		cp.Tier = &t
	}
	if len(n.ParentIDs) > 0 {
		cp.ParentIDs = append([]string(nil), n.ParentIDs...)
	}
	return cp
}
