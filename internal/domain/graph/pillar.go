package graph

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PillarRecord is one entry of the externally defined pillar taxonomy
// (e.g. "sleep"). Ownership of nodes/edges by a pillar is derived at
// audit time, never stored here.
type PillarRecord struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Key       string         `gorm:"column:key;not null;uniqueIndex:idx_pillar_key" json:"key"`
	Title     string         `gorm:"column:title;not null" json:"title"`
	Rank      int            `gorm:"column:rank;not null;default:0" json:"rank"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (PillarRecord) TableName() string { return "pillar_record" }
