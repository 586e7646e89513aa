package merge

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/yungbote/causalmap-backend/internal/modules/graph/model"
)

// ComputeGraphVersion returns the content fingerprint of a graph: nodes
// sorted by id, edges sorted by (source, target, edgeType, label,
// strength), serialized to a canonical string form and hashed with
// xxhash64. Same content, same fingerprint, regardless of input order.
// Callers use it as the idempotence key gating writes and regeneration
// of derived state.
func ComputeGraphVersion(g model.Graph) string {
	nodes := make([]model.Node, len(g.Nodes))
	copy(nodes, g.Nodes)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	edges := make([]model.Edge, len(g.Edges))
	copy(edges, g.Edges)
	sort.Slice(edges, func(i, j int) bool {
		return edgeSortKey(edges[i]) < edgeSortKey(edges[j])
	})

	var b strings.Builder
	for _, n := range nodes {
		tier := ""
		if n.Tier != nil {
			tier = strconv.Itoa(*n.Tier)
		}
		parents := append([]string(nil), n.ParentIDs...)
		sort.Strings(parents)
		fmt.Fprintf(&b, "n|%s|%s|%s|%s|%t|%s\n",
			n.ID, n.Label, n.StyleClass, tier, n.IsDeactivated, strings.Join(parents, ","))
	}
	for _, e := range edges {
		fmt.Fprintf(&b, "e|%s\n", edgeSortKey(e))
	}

	return fmt.Sprintf("%016x", xxhash.Sum64String(b.String()))
}

func edgeSortKey(e model.Edge) string {
	return strings.Join([]string{
		e.Source,
		e.Target,
		e.EdgeType,
		e.Label,
		strconv.FormatFloat(e.Strength, 'g', -1, 64),
	}, "|")
}
