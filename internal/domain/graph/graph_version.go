package graph

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GraphVersionRecord is the fingerprint ledger: one row per observed
// content fingerprint of a user's graph. Callers use it to decide whether
// derived state (generated questions, mirrors) needs regeneration.
type GraphVersionRecord struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID       uuid.UUID      `gorm:"type:uuid;column:user_id;not null;index:idx_graph_version_user" json:"user_id"`
	GraphVersion string         `gorm:"column:graph_version;not null;index" json:"graph_version"`
	Status       string         `gorm:"column:status;not null;default:'active'" json:"status"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (GraphVersionRecord) TableName() string { return "graph_version_record" }
