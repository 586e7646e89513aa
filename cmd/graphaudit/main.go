package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/causalmap-backend/internal/app"
	"github.com/yungbote/causalmap-backend/internal/modules/graph"
	"github.com/yungbote/causalmap-backend/internal/modules/graph/drift"
	"github.com/yungbote/causalmap-backend/internal/modules/graph/report"
	"github.com/yungbote/causalmap-backend/internal/platform/dbctx"
)

type idList []string

func (l *idList) String() string { return strings.Join(*l, ",") }
func (l *idList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

func main() {
	var users idList
	var pillar string
	var persist bool
	var limit int
	var skipUnchanged bool
	var runDrift bool
	flag.Var(&users, "user", "user_id to audit (repeatable; default all users)")
	flag.StringVar(&pillar, "pillar", "", "pillar key to audit (default all registered pillars)")
	flag.BoolVar(&persist, "persist", false, "store audit reports")
	flag.IntVar(&limit, "limit", 0, "limit number of users processed")
	flag.BoolVar(&skipUnchanged, "skip-unchanged", false, "skip users whose graph version is already audited")
	flag.BoolVar(&runDrift, "drift", false, "compute windowed drift metrics after auditing")
	flag.Parse()

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx := context.Background()

	ids, err := resolveUsers(ctx, application, users, limit)
	if err != nil {
		fmt.Printf("resolve users: %v\n", err)
		os.Exit(1)
	}
	if len(ids) == 0 {
		fmt.Println("no users to audit")
		return
	}

	failedReports, failedUsers := 0, 0
	for _, id := range ids {
		reports, err := auditUser(ctx, application, id, pillar, persist, skipUnchanged)
		if err != nil {
			failedUsers++
			fmt.Printf("user=%s error=%v\n", id, err)
			continue
		}
		for _, rep := range reports {
			if rep.SkippedUnchanged {
				fmt.Printf("user=%s pillar=%s skipped (unchanged)\n", id, rep.PillarKey)
				continue
			}
			fmt.Printf("user=%s pillar=%s status=%s nodes=%d edges=%d habits=%d questions=%d persisted=%t\n",
				id, rep.PillarKey, rep.Status,
				rep.Report.Metrics.NodeCount, rep.Report.Metrics.EdgeCount,
				rep.Report.Metrics.HabitCount, rep.Report.Metrics.QuestionCount, rep.Persisted)
			if rep.Status == report.StatusFail {
				failedReports++
				for _, v := range rep.Envelope.Validation.Violations {
					fmt.Printf("  violation severity=%s code=%s subsystem=%s %s\n", v.Severity, v.Code, v.Subsystem, v.Message)
				}
			}
		}
	}

	fmt.Printf("audited %d users (%d user errors, %d failed reports)\n", len(ids), failedUsers, failedReports)

	if runDrift {
		cfg := drift.LoadConfigFromEnv()
		if pillar != "" {
			cfg.PillarKey = pillar
		}
		out, err := application.Usecases.ComputeDrift(ctx, cfg)
		if err != nil {
			fmt.Printf("drift: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("drift snapshot=%s reports=%d metrics=%d alerts=%d recommendation=%t\n",
			out.SnapshotLabel, out.ReportsSeen, out.MetricsWritten, len(out.Alerts), out.RecommendationWritten)
	}

	if failedUsers > 0 || failedReports > 0 {
		os.Exit(1)
	}
}

func auditUser(ctx context.Context, application *app.App, id uuid.UUID, pillar string, persist, skipUnchanged bool) ([]graph.PillarAuditOutput, error) {
	if pillar != "" {
		rep, err := application.Usecases.AuditPillar(ctx, graph.PillarAuditInput{
			UserID:        id,
			PillarKey:     pillar,
			Persist:       persist,
			SkipUnchanged: skipUnchanged,
		})
		if err != nil {
			return nil, err
		}
		return []graph.PillarAuditOutput{rep}, nil
	}
	out, err := application.Usecases.AuditAllPillars(ctx, graph.AllPillarsInput{
		UserID:        id,
		Persist:       persist,
		SkipUnchanged: skipUnchanged,
	})
	if err != nil {
		return nil, err
	}
	return out.Reports, nil
}

func resolveUsers(ctx context.Context, application *app.App, users idList, limit int) ([]uuid.UUID, error) {
	if len(users) > 0 {
		ids := make([]uuid.UUID, 0, len(users))
		for _, s := range users {
			id, err := uuid.Parse(strings.TrimSpace(s))
			if err != nil {
				return nil, fmt.Errorf("invalid user id %q: %w", s, err)
			}
			ids = append(ids, id)
		}
		if limit > 0 && len(ids) > limit {
			ids = ids[:limit]
		}
		return ids, nil
	}
	return application.Repos.UserGraphs.ListUserIDs(dbctx.Context{Ctx: ctx}, limit)
}
