// Package identity gives edges a stable, collision-resistant identity even
// when the source document never persisted one. Signature equality is the
// "same relationship" check used by the canonical merge: cosmetic fields
// (color, strength, tooltips) never block a match.
package identity

import (
	"strconv"
	"strings"

	"github.com/yungbote/causalmap-backend/internal/modules/graph/model"
)

const derivedPrefix = "edge:"

// Signature returns the normalized source|target|edgeType|label tuple,
// lowercased and whitespace-trimmed per component.
func Signature(e model.Edge) string {
	return SignatureOf(e.Source, e.Target, e.EdgeType, e.Label)
}

// SignatureOf builds a signature from the raw tuple components.
func SignatureOf(source, target, edgeType, label string) string {
	parts := []string{source, target, edgeType, label}
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return strings.Join(parts, "|")
}

// DeriveID returns the deterministic id for an edge with no persisted id.
// Ordinals are zero-based per signature and assigned in encounter order;
// the caller owns the ordinal map so the computation stays reentrant.
func DeriveID(e model.Edge, ordinals map[string]int) string {
	sig := Signature(e)
	ordinal := ordinals[sig]
	ordinals[sig] = ordinal + 1
	return derivedPrefix + sig + "#" + strconv.Itoa(ordinal)
}

// AssignIDs fills in derived ids for every edge missing one, in encounter
// order, and returns a new slice. Edges with persisted ids keep them and
// do not consume ordinals: only the derived-id population competes for
// the per-signature counter, which keeps append-only growth stable.
func AssignIDs(edges []model.Edge) []model.Edge {
	out := make([]model.Edge, len(edges))
	ordinals := map[string]int{}
	for i, e := range edges {
		if strings.TrimSpace(e.ID) == "" {
			e.ID = DeriveID(e, ordinals)
		}
		out[i] = e
	}
	return out
}

// SignatureSet indexes a graph's edges by signature for membership checks.
func SignatureSet(edges []model.Edge) map[string]struct{} {
	set := make(map[string]struct{}, len(edges))
	for _, e := range edges {
		set[Signature(e)] = struct{}{}
	}
	return set
}
