package graph

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RollbackEvent records a recommendation (or execution) of rolling the
// active canonical snapshot back after sustained audit degradation.
type RollbackEvent struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SnapshotLabel string         `gorm:"column:snapshot_label;not null;index" json:"snapshot_label"`
	Trigger       string         `gorm:"column:trigger;not null" json:"trigger"`
	Status        string         `gorm:"column:status;not null;default:'recommended'" json:"status"`
	Notes         datatypes.JSON `gorm:"column:notes;type:jsonb" json:"notes,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (RollbackEvent) TableName() string { return "rollback_event" }
