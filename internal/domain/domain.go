package domain

import (
	"github.com/yungbote/causalmap-backend/internal/domain/graph"
)

type UserGraphDoc = graph.UserGraphDoc
type CanonicalSnapshot = graph.CanonicalSnapshot
type InterventionRecord = graph.InterventionRecord
type PillarRecord = graph.PillarRecord
type QuestionRecord = graph.QuestionRecord
type GraphAuditReport = graph.GraphAuditReport
type GraphVersionRecord = graph.GraphVersionRecord
type GraphDriftMetric = graph.GraphDriftMetric
type RollbackEvent = graph.RollbackEvent
