package graph

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserGraphDoc is the opaque per-user causal graph row. Payload holds the
// raw {nodes, edges} JSON document exactly as the mobile clients wrote it;
// the core parses it tolerantly and never rewrites it unless GraphVersion
// actually changed.
type UserGraphDoc struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID       uuid.UUID      `gorm:"type:uuid;column:user_id;not null;uniqueIndex:idx_user_graph_doc_user" json:"user_id"`
	GraphVersion string         `gorm:"column:graph_version;index" json:"graph_version,omitempty"`
	Payload      datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (UserGraphDoc) TableName() string { return "user_graph_doc" }
