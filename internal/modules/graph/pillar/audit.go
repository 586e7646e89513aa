// Package pillar partitions a full-graph audit into ownership-scoped
// subgraphs per pillar and computes connectivity/integrity metrics. The
// audit reconciles three independently maintained sources: the user's
// graph document, the intervention catalog, and the question set.
package pillar

import (
	"sort"
	"strings"
	"time"

	"github.com/yungbote/causalmap-backend/internal/modules/graph/identity"
	"github.com/yungbote/causalmap-backend/internal/modules/graph/model"
	"github.com/yungbote/causalmap-backend/internal/modules/graph/report"
)

// Provenance refs cited by audit rows. Callers register them on the
// report builder before emitting rows.
const (
	RefUserGraph     = "store.user_graph_doc"
	RefInterventions = "catalog.intervention_record"
	RefQuestions     = "catalog.question_record"
)

// QuestionKeyPrefix is the id convention binding a question to a pillar:
// a question belongs to pillar P iff its key is "pillar."+P.
const QuestionKeyPrefix = "pillar."

// Intervention is the catalog entry as the audit consumes it. All ids are
// soft string references into the graph.
type Intervention struct {
	Key           string   `json:"key"`
	Title         string   `json:"title"`
	GraphNodeID   string   `json:"graph_node_id"`
	TargetNodeIDs []string `json:"target_node_ids,omitempty"`
	GraphEdgeIDs  []string `json:"graph_edge_ids,omitempty"`
	Pillars       []string `json:"pillars,omitempty"`
	PlanningTags  []string `json:"planning_tags,omitempty"`
}

// Question is one outcome/progress question.
type Question struct {
	Key    string `json:"key"`
	Prompt string `json:"prompt,omitempty"`
	Kind   string `json:"kind,omitempty"`
}

type NodeRow struct {
	ID            string `json:"id"`
	Label         string `json:"label,omitempty"`
	StyleClass    string `json:"style_class,omitempty"`
	Tier          *int   `json:"tier,omitempty"`
	IsDeactivated bool   `json:"is_deactivated,omitempty"`
	SourceRef     string `json:"source_ref"`
}

type EdgeRow struct {
	ID               string   `json:"id"`
	Source           string   `json:"source"`
	Target           string   `json:"target"`
	EdgeType         string   `json:"edge_type,omitempty"`
	Label            string   `json:"label,omitempty"`
	MissingEndpoints []string `json:"missing_endpoints,omitempty"`
	SourceRef        string   `json:"source_ref"`
}

type HabitRow struct {
	Key                 string   `json:"key"`
	Title               string   `json:"title,omitempty"`
	GraphNodeID         string   `json:"graph_node_id,omitempty"`
	TargetNodeIDs       []string `json:"target_node_ids,omitempty"`
	Pillars             []string `json:"pillars,omitempty"`
	GraphEdgeIDs        []string `json:"graph_edge_ids,omitempty"`
	NodeExists          bool     `json:"node_exists"`
	SourceEdgesExist    bool     `json:"source_edges_exist"`
	MissingGraphEdgeIDs []string `json:"missing_graph_edge_ids,omitempty"`
	SourceRef           string   `json:"source_ref"`
}

type QuestionRow struct {
	Key       string `json:"key"`
	Prompt    string `json:"prompt,omitempty"`
	Kind      string `json:"kind,omitempty"`
	SourceRef string `json:"source_ref"`
}

// FullAudit is the whole-graph audit every pillar scope is cut from.
// Graph edges carry assigned ids (identity.AssignIDs), so declared edge
// ids in the catalog resolve against it.
type FullAudit struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Graph       model.Graph   `json:"-"`
	Nodes       []NodeRow     `json:"graph_nodes"`
	Edges       []EdgeRow     `json:"graph_edges"`
	Habits      []HabitRow    `json:"habits"`
	Questions   []QuestionRow `json:"questions"`
}

// BuildFullAudit assembles the full audit and reports structural
// violations on the builder: edges referencing missing endpoints are
// flagged as errors (never silently dropped), habits with dangling edge
// links as warnings.
func BuildFullAudit(g model.Graph, interventions []Intervention, questions []Question, generatedAt time.Time, b *report.Builder) FullAudit {
	b.Require(RefUserGraph)
	b.Require(RefInterventions)
	b.Require(RefQuestions)

	full := FullAudit{GeneratedAt: generatedAt.UTC()}
	full.Graph = model.Graph{
		Nodes: append([]model.Node(nil), g.Nodes...),
		Edges: identity.AssignIDs(g.Edges),
	}

	nodeSet := make(map[string]struct{}, len(full.Graph.Nodes))
	for _, n := range full.Graph.Nodes {
		nodeSet[n.ID] = struct{}{}
		full.Nodes = append(full.Nodes, NodeRow{
			ID:            n.ID,
			Label:         n.Label,
			StyleClass:    n.StyleClass,
			Tier:          n.Tier,
			IsDeactivated: n.IsDeactivated,
			SourceRef:     RefUserGraph,
		})
	}

	edgeIDs := make(map[string]struct{}, len(full.Graph.Edges))
	for _, e := range full.Graph.Edges {
		edgeIDs[e.ID] = struct{}{}
		row := EdgeRow{
			ID:        e.ID,
			Source:    e.Source,
			Target:    e.Target,
			EdgeType:  e.EdgeType,
			Label:     e.Label,
			SourceRef: RefUserGraph,
		}
		for _, endpoint := range []string{e.Source, e.Target} {
			if _, ok := nodeSet[endpoint]; !ok {
				row.MissingEndpoints = append(row.MissingEndpoints, endpoint)
			}
		}
		if len(row.MissingEndpoints) > 0 {
			b.AddError("edge_endpoint_missing",
				"edge "+e.ID+" references missing node(s) "+strings.Join(row.MissingEndpoints, ","),
				"graph_audit", RefUserGraph)
		}
		full.Edges = append(full.Edges, row)
	}

	for _, iv := range interventions {
		row := HabitRow{
			Key:              iv.Key,
			Title:            iv.Title,
			GraphNodeID:      iv.GraphNodeID,
			TargetNodeIDs:    sortedCopy(iv.TargetNodeIDs),
			Pillars:          sortedCopy(iv.Pillars),
			GraphEdgeIDs:     sortedCopy(iv.GraphEdgeIDs),
			SourceEdgesExist: true,
			SourceRef:        RefInterventions,
		}
		if iv.GraphNodeID != "" {
			_, row.NodeExists = nodeSet[iv.GraphNodeID]
		}
		for _, edgeID := range iv.GraphEdgeIDs {
			if _, ok := edgeIDs[edgeID]; !ok {
				row.SourceEdgesExist = false
				row.MissingGraphEdgeIDs = append(row.MissingGraphEdgeIDs, edgeID)
			}
		}
		sort.Strings(row.MissingGraphEdgeIDs)
		if !row.SourceEdgesExist {
			b.AddWarning("habit_edge_links_missing",
				"intervention "+iv.Key+" references absent edge(s) "+strings.Join(row.MissingGraphEdgeIDs, ","),
				"graph_audit", RefInterventions)
		}
		full.Habits = append(full.Habits, row)
	}

	for _, q := range questions {
		full.Questions = append(full.Questions, QuestionRow{
			Key:       q.Key,
			Prompt:    q.Prompt,
			Kind:      q.Kind,
			SourceRef: RefQuestions,
		})
	}

	sortRows(&full)
	b.CiteSection("graph_nodes", RefUserGraph)
	b.CiteSection("graph_edges", RefUserGraph)
	b.CiteSection("habits", RefInterventions)
	b.CiteSection("questions", RefQuestions)
	return full
}

func sortRows(full *FullAudit) {
	sort.Slice(full.Nodes, func(i, j int) bool { return full.Nodes[i].ID < full.Nodes[j].ID })
	sort.Slice(full.Edges, func(i, j int) bool { return full.Edges[i].ID < full.Edges[j].ID })
	sort.Slice(full.Habits, func(i, j int) bool { return full.Habits[i].Key < full.Habits[j].Key })
	sort.Slice(full.Questions, func(i, j int) bool { return full.Questions[i].Key < full.Questions[j].Key })
}

func sortedCopy(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
