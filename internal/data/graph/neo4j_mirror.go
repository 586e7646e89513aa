// Package graph mirrors merged user graphs into Neo4j for downstream
// query tooling. The mirror is a projection of the Postgres-held truth:
// writes here are never load bearing and failures must not fail a merge.
package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/causalmap-backend/internal/modules/graph/model"
	"github.com/yungbote/causalmap-backend/internal/platform/logger"
	"github.com/yungbote/causalmap-backend/internal/platform/neo4jdb"
)

// MirrorUserGraph upserts a user's nodes and edges under CausalNode /
// CAUSAL_EDGE. Nodes are keyed (user_id, node_id); stale elements from
// earlier versions are detached by graph_version mismatch.
func MirrorUserGraph(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, userID uuid.UUID, g model.Graph, graphVersion string) error {
	if client == nil || client.Driver == nil {
		return nil
	}
	if userID == uuid.Nil {
		return fmt.Errorf("neo4j graph mirror: missing userID")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	uid := userID.String()

	nodes := make([]map[string]any, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			continue
		}
		tier := int64(-1)
		if n.Tier != nil {
			tier = int64(*n.Tier)
		}
		nodes = append(nodes, map[string]any{
			"key":            uid + "|" + n.ID,
			"user_id":        uid,
			"node_id":        n.ID,
			"label":          n.Label,
			"style_class":    n.StyleClass,
			"tier":           tier,
			"is_deactivated": n.IsDeactivated,
			"graph_version":  graphVersion,
			"synced_at":      now,
		})
	}

	rels := make([]map[string]any, 0, len(g.Edges))
	for _, e := range g.Edges {
		if e.Source == "" || e.Target == "" {
			continue
		}
		rels = append(rels, map[string]any{
			"id":             e.ID,
			"from_key":       uid + "|" + e.Source,
			"to_key":         uid + "|" + e.Target,
			"edge_type":      e.EdgeType,
			"label":          e.Label,
			"strength":       e.Strength,
			"is_deactivated": e.IsDeactivated,
			"graph_version":  graphVersion,
			"synced_at":      now,
		})
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	// Schema helpers are best effort; restricted users may not create them.
	if res, err := session.Run(ctx, `CREATE CONSTRAINT causal_node_key_unique IF NOT EXISTS FOR (n:CausalNode) REQUIRE n.key IS UNIQUE`, nil); err != nil {
		if log != nil {
			log.Warn("neo4j schema init failed (continuing)", "error", err)
		}
	} else {
		_, _ = res.Consume(ctx)
	}
	if res, err := session.Run(ctx, `CREATE INDEX causal_node_user_idx IF NOT EXISTS FOR (n:CausalNode) ON (n.user_id)`, nil); err != nil {
		if log != nil {
			log.Warn("neo4j schema init failed (continuing)", "error", err)
		}
	} else {
		_, _ = res.Consume(ctx)
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if len(nodes) > 0 {
			res, err := tx.Run(ctx, `
UNWIND $nodes AS n
MERGE (c:CausalNode {key: n.key})
SET c += n
`, map[string]any{"nodes": nodes})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}

		if len(rels) > 0 {
			res, err := tx.Run(ctx, `
UNWIND $rels AS r
MATCH (a:CausalNode {key: r.from_key})
MATCH (b:CausalNode {key: r.to_key})
MERGE (a)-[e:CAUSAL_EDGE {id: r.id}]->(b)
SET e.edge_type = r.edge_type,
    e.label = r.label,
    e.strength = r.strength,
    e.is_deactivated = r.is_deactivated,
    e.graph_version = r.graph_version,
    e.synced_at = r.synced_at
`, map[string]any{"rels": rels})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}

		// Drop elements no newer version touched.
		res, err := tx.Run(ctx, `
MATCH (c:CausalNode {user_id: $user_id})
WHERE c.graph_version <> $graph_version
DETACH DELETE c
`, map[string]any{"user_id": uid, "graph_version": graphVersion})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}
		res, err = tx.Run(ctx, `
MATCH (:CausalNode {user_id: $user_id})-[e:CAUSAL_EDGE]->()
WHERE e.graph_version <> $graph_version
DELETE e
`, map[string]any{"user_id": uid, "graph_version": graphVersion})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("neo4j graph mirror: %w", err)
	}
	if log != nil {
		log.Debug("mirrored user graph", "user_id", uid, "nodes", len(nodes), "edges", len(rels), "graph_version", graphVersion)
	}
	return nil
}
