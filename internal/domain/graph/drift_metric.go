package graph

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GraphDriftMetric is one windowed audit health metric (fail rate,
// missing-edge-link rate, ...) with its threshold and evaluated status.
type GraphDriftMetric struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	MetricName  string         `gorm:"column:metric_name;not null;index" json:"metric_name"`
	WindowStart time.Time      `gorm:"column:window_start;not null" json:"window_start"`
	WindowEnd   time.Time      `gorm:"column:window_end;not null" json:"window_end"`
	Value       float64        `gorm:"column:value;not null" json:"value"`
	Threshold   float64        `gorm:"column:threshold;not null;default:0" json:"threshold"`
	Status      string         `gorm:"column:status;not null;default:'ok'" json:"status"`
	Metadata    datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (GraphDriftMetric) TableName() string { return "graph_drift_metric" }
