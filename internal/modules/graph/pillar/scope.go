package pillar

import (
	"sort"
	"strings"
)

// Metrics are the integrity counters of one pillar scope.
type Metrics struct {
	NodeCount     int `json:"node_count"`
	EdgeCount     int `json:"edge_count"`
	HabitCount    int `json:"habit_count"`
	QuestionCount int `json:"question_count"`

	HabitsLinkedCount           int `json:"habits_linked_count"`
	HabitsMissingEdgeLinksCount int `json:"habits_missing_edge_links_count"`

	DisconnectedNodeIDs []string `json:"disconnected_node_ids,omitempty"`
}

// Report is the pillar-scoped view cut from a FullAudit.
type Report struct {
	PillarID  string        `json:"pillar_id"`
	Nodes     []NodeRow     `json:"graph_nodes"`
	Edges     []EdgeRow     `json:"graph_edges"`
	Habits    []HabitRow    `json:"habits"`
	Questions []QuestionRow `json:"questions"`

	// ExternalEndpointIDs are far endpoints of declared edges that fall
	// outside the owned node set. Recorded for visibility; never owned.
	ExternalEndpointIDs []string `json:"external_endpoint_ids,omitempty"`

	Metrics Metrics `json:"metrics"`
}

// FilterToPillar scopes a full audit to one pillar. Pure and total: an
// unknown pillar id yields an empty, valid report, never an error.
//
// Ownership is derived in a fixed order:
//  1. seeding from interventions tagged with the pillar (primary node,
//     declared target nodes, declared edge ids);
//  2. a single pass over the full edge list pulling in edges whose both
//     endpoints are already owned (this is deliberately one pass, not a
//     fixed point: edges only add nodes already known from seeding);
//  3. untagged interventions whose linkage intersects the owned set;
//  4. questions by the "pillar."+id key convention.
func FilterToPillar(full FullAudit, pillarID string) Report {
	out := Report{PillarID: pillarID}
	pillarID = strings.TrimSpace(pillarID)
	if pillarID == "" {
		return out
	}

	ownedNodes := map[string]struct{}{}
	ownedEdges := map[string]struct{}{}

	edgeByID := make(map[string]EdgeRow, len(full.Edges))
	for _, e := range full.Edges {
		edgeByID[e.ID] = e
	}

	// 1. Ownership seeding from tagged interventions.
	tagged := map[string]struct{}{}
	for _, h := range full.Habits {
		if !containsFold(h.Pillars, pillarID) {
			continue
		}
		tagged[h.Key] = struct{}{}
		seedHabit(h, ownedNodes, ownedEdges)
	}

	// 2. Single-pass edge closure over the full edge list.
	for _, e := range full.Edges {
		if _, done := ownedEdges[e.ID]; done {
			continue
		}
		_, srcOwned := ownedNodes[e.Source]
		_, dstOwned := ownedNodes[e.Target]
		if srcOwned && dstOwned {
			ownedEdges[e.ID] = struct{}{}
		}
	}

	// 3. Untagged interventions recovered through graph linkage.
	scopedHabits := map[string]struct{}{}
	for key := range tagged {
		scopedHabits[key] = struct{}{}
	}
	for _, h := range full.Habits {
		if len(h.Pillars) != 0 {
			continue
		}
		if _, dup := scopedHabits[h.Key]; dup {
			continue
		}
		linked := false
		if h.GraphNodeID != "" {
			_, linked = ownedNodes[h.GraphNodeID]
		}
		if !linked {
			for _, edgeID := range h.GraphEdgeIDs {
				if _, ok := ownedEdges[edgeID]; ok {
					linked = true
					break
				}
			}
		}
		if linked {
			scopedHabits[h.Key] = struct{}{}
			seedHabit(h, ownedNodes, ownedEdges)
		}
	}

	// Assemble rows; output stays a strict subset of the full audit.
	for _, n := range full.Nodes {
		if _, ok := ownedNodes[n.ID]; ok {
			out.Nodes = append(out.Nodes, n)
		}
	}
	touched := map[string]struct{}{}
	for _, e := range full.Edges {
		if _, ok := ownedEdges[e.ID]; !ok {
			continue
		}
		out.Edges = append(out.Edges, e)
		touched[e.Source] = struct{}{}
		touched[e.Target] = struct{}{}
		for _, endpoint := range []string{e.Source, e.Target} {
			if _, owned := ownedNodes[endpoint]; !owned {
				out.ExternalEndpointIDs = append(out.ExternalEndpointIDs, endpoint)
			}
		}
	}
	for _, h := range full.Habits {
		if _, ok := scopedHabits[h.Key]; ok {
			out.Habits = append(out.Habits, h)
		}
	}

	// 4. Questions by key convention.
	questionKey := QuestionKeyPrefix + pillarID
	for _, q := range full.Questions {
		if strings.EqualFold(q.Key, questionKey) {
			out.Questions = append(out.Questions, q)
		}
	}

	// 5. Metrics.
	out.Metrics.NodeCount = len(out.Nodes)
	out.Metrics.EdgeCount = len(out.Edges)
	out.Metrics.HabitCount = len(out.Habits)
	out.Metrics.QuestionCount = len(out.Questions)
	for _, h := range out.Habits {
		if h.NodeExists {
			out.Metrics.HabitsLinkedCount++
		}
		if !h.SourceEdgesExist {
			out.Metrics.HabitsMissingEdgeLinksCount++
		}
	}
	for _, n := range out.Nodes {
		if _, ok := touched[n.ID]; !ok {
			out.Metrics.DisconnectedNodeIDs = append(out.Metrics.DisconnectedNodeIDs, n.ID)
		}
	}

	sort.Strings(out.ExternalEndpointIDs)
	out.ExternalEndpointIDs = dedupeSorted(out.ExternalEndpointIDs)
	sort.Strings(out.Metrics.DisconnectedNodeIDs)
	sort.Slice(out.Nodes, func(i, j int) bool { return out.Nodes[i].ID < out.Nodes[j].ID })
	sort.Slice(out.Edges, func(i, j int) bool { return out.Edges[i].ID < out.Edges[j].ID })
	sort.Slice(out.Habits, func(i, j int) bool { return out.Habits[i].Key < out.Habits[j].Key })
	sort.Slice(out.Questions, func(i, j int) bool { return out.Questions[i].Key < out.Questions[j].Key })
	return out
}

// seedHabit marks an intervention's declared graph linkage as owned:
// primary node, declared target nodes, and declared edges that resolve in
// the full graph. Declared-edge endpoints are NOT pulled into the owned
// node set; the far side is surfaced via ExternalEndpointIDs instead.
func seedHabit(h HabitRow, ownedNodes, ownedEdges map[string]struct{}) {
	if h.GraphNodeID != "" {
		ownedNodes[h.GraphNodeID] = struct{}{}
	}
	for _, nodeID := range h.TargetNodeIDs {
		ownedNodes[nodeID] = struct{}{}
	}
	for _, edgeID := range h.GraphEdgeIDs {
		ownedEdges[edgeID] = struct{}{}
	}
}

func containsFold(list []string, want string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), want) {
			return true
		}
	}
	return false
}

func dedupeSorted(in []string) []string {
	if len(in) < 2 {
		return in
	}
	out := in[:1]
	for _, v := range in[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
