package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/causalmap-backend/internal/data/repos/graph"
	"github.com/yungbote/causalmap-backend/internal/platform/logger"
)

type UserGraphRepo = graph.UserGraphRepo
type CanonicalSnapshotRepo = graph.CanonicalSnapshotRepo
type InterventionRepo = graph.InterventionRepo
type PillarRepo = graph.PillarRepo
type QuestionRepo = graph.QuestionRepo
type AuditReportRepo = graph.AuditReportRepo
type GraphVersionRepo = graph.GraphVersionRepo
type DriftMetricRepo = graph.DriftMetricRepo
type RollbackRepo = graph.RollbackRepo

func NewUserGraphRepo(db *gorm.DB, baseLog *logger.Logger) UserGraphRepo {
	return graph.NewUserGraphRepo(db, baseLog)
}
func NewCanonicalSnapshotRepo(db *gorm.DB, baseLog *logger.Logger) CanonicalSnapshotRepo {
	return graph.NewCanonicalSnapshotRepo(db, baseLog)
}
func NewInterventionRepo(db *gorm.DB, baseLog *logger.Logger) InterventionRepo {
	return graph.NewInterventionRepo(db, baseLog)
}
func NewPillarRepo(db *gorm.DB, baseLog *logger.Logger) PillarRepo {
	return graph.NewPillarRepo(db, baseLog)
}
func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return graph.NewQuestionRepo(db, baseLog)
}
func NewAuditReportRepo(db *gorm.DB, baseLog *logger.Logger) AuditReportRepo {
	return graph.NewAuditReportRepo(db, baseLog)
}
func NewGraphVersionRepo(db *gorm.DB, baseLog *logger.Logger) GraphVersionRepo {
	return graph.NewGraphVersionRepo(db, baseLog)
}
func NewDriftMetricRepo(db *gorm.DB, baseLog *logger.Logger) DriftMetricRepo {
	return graph.NewDriftMetricRepo(db, baseLog)
}
func NewRollbackRepo(db *gorm.DB, baseLog *logger.Logger) RollbackRepo {
	return graph.NewRollbackRepo(db, baseLog)
}
