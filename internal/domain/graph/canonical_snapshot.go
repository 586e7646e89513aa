package graph

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CanonicalSnapshot is a registered version of the shared canonical graph.
// Snapshots are read-only inputs to merges and audits; at most one should
// be active at a time.
type CanonicalSnapshot struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Label     string         `gorm:"column:label;not null;uniqueIndex:idx_canonical_snapshot_label" json:"label"`
	Source    string         `gorm:"column:source" json:"source,omitempty"`
	Payload   datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	Active    bool           `gorm:"column:active;not null;default:false;index" json:"active"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CanonicalSnapshot) TableName() string { return "canonical_snapshot" }
