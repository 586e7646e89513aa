package app

import (
	"gorm.io/gorm"

	repos "github.com/yungbote/causalmap-backend/internal/data/repos"
	"github.com/yungbote/causalmap-backend/internal/platform/logger"
)

type Repos struct {
	UserGraphs    repos.UserGraphRepo
	Snapshots     repos.CanonicalSnapshotRepo
	Interventions repos.InterventionRepo
	Pillars       repos.PillarRepo
	Questions     repos.QuestionRepo
	Reports       repos.AuditReportRepo
	Versions      repos.GraphVersionRepo
	DriftMetrics  repos.DriftMetricRepo
	Rollbacks     repos.RollbackRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		UserGraphs:    repos.NewUserGraphRepo(db, log),
		Snapshots:     repos.NewCanonicalSnapshotRepo(db, log),
		Interventions: repos.NewInterventionRepo(db, log),
		Pillars:       repos.NewPillarRepo(db, log),
		Questions:     repos.NewQuestionRepo(db, log),
		Reports:       repos.NewAuditReportRepo(db, log),
		Versions:      repos.NewGraphVersionRepo(db, log),
		DriftMetrics:  repos.NewDriftMetricRepo(db, log),
		Rollbacks:     repos.NewRollbackRepo(db, log),
	}
}
