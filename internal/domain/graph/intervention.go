package graph

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// InterventionRecord links a habit/treatment entity to the graph: its
// primary node, the edges it is understood to cause, and zero or more
// pillar tags. GraphEdgeIDs, Pillars and PlanningTags are JSON string
// arrays; the ids are soft external references, not foreign keys.
type InterventionRecord struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Key          string         `gorm:"column:key;not null;uniqueIndex:idx_intervention_key" json:"key"`
	Title        string         `gorm:"column:title;not null" json:"title"`
	GraphNodeID  string         `gorm:"column:graph_node_id;index" json:"graph_node_id,omitempty"`
	GraphEdgeIDs datatypes.JSON `gorm:"column:graph_edge_ids;type:jsonb" json:"graph_edge_ids,omitempty"`
	TargetNodes  datatypes.JSON `gorm:"column:target_nodes;type:jsonb" json:"target_nodes,omitempty"`
	Pillars      datatypes.JSON `gorm:"column:pillars;type:jsonb" json:"pillars,omitempty"`
	PlanningTags datatypes.JSON `gorm:"column:planning_tags;type:jsonb" json:"planning_tags,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (InterventionRecord) TableName() string { return "intervention_record" }
