package graph

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GraphAuditReport persists one pillar-scoped (or whole-graph, when
// PillarKey is empty) audit report envelope. Payload is the full nested
// report JSON; Status mirrors validation.status for cheap querying.
type GraphAuditReport struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID       uuid.UUID      `gorm:"type:uuid;column:user_id;not null;index:idx_graph_audit_report_user" json:"user_id"`
	PillarKey    string         `gorm:"column:pillar_key;index:idx_graph_audit_report_pillar" json:"pillar_key,omitempty"`
	GraphVersion string         `gorm:"column:graph_version;index" json:"graph_version,omitempty"`
	Status       string         `gorm:"column:status;not null;default:'pass'" json:"status"`
	Payload      datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (GraphAuditReport) TableName() string { return "graph_audit_report" }
