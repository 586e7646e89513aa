package graph

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QuestionRecord is an outcome or progress question. Pillar membership is
// by key convention: a question belongs to pillar P iff Key == "pillar."+P.
type QuestionRecord struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Key       string         `gorm:"column:key;not null;uniqueIndex:idx_question_key" json:"key"`
	Prompt    string         `gorm:"column:prompt;type:text" json:"prompt,omitempty"`
	Kind      string         `gorm:"column:kind;not null;default:'outcome'" json:"kind"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (QuestionRecord) TableName() string { return "question_record" }
