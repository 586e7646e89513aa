// Package app is the composition root: it loads configuration, opens
// Postgres, wires repos and optional infrastructure, and hands back the
// graph usecases.
package app

import (
	"context"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/yungbote/causalmap-backend/internal/clients/redis"
	"github.com/yungbote/causalmap-backend/internal/db"
	"github.com/yungbote/causalmap-backend/internal/modules/graph"
	"github.com/yungbote/causalmap-backend/internal/observability"
	"github.com/yungbote/causalmap-backend/internal/platform/logger"
	"github.com/yungbote/causalmap-backend/internal/platform/neo4jdb"
	"github.com/yungbote/causalmap-backend/internal/platform/snapshot"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    Repos
	Usecases graph.Usecases

	Cache  redis.VersionCache
	Mirror *neo4jdb.Client

	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg := LoadConfig()

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "causalmap",
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	pg, err := db.NewFromEnv(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	reposet := wireRepos(theDB, log)

	deps := graph.Deps{
		DB:            theDB,
		Log:           log,
		UserGraphs:    reposet.UserGraphs,
		Snapshots:     reposet.Snapshots,
		Interventions: reposet.Interventions,
		Pillars:       reposet.Pillars,
		Questions:     reposet.Questions,
		Reports:       reposet.Reports,
		Versions:      reposet.Versions,
		DriftMetrics:  reposet.DriftMetrics,
		Rollbacks:     reposet.Rollbacks,
	}

	a := &App{Log: log, DB: theDB, Cfg: cfg, Repos: reposet, otelShutdown: otelShutdown}

	if cfg.SnapshotLocation != "" {
		src, err := snapshot.NewSource(log, cfg.SnapshotLocation)
		if err != nil {
			log.Sync()
			return nil, fmt.Errorf("init snapshot source: %w", err)
		}
		deps.SnapshotSource = src
	}

	if cache, err := redis.NewVersionCache(log); err != nil {
		log.Warn("version cache unavailable (continuing without)", "error", err)
	} else {
		a.Cache = cache
		deps.Cache = cache
	}

	mirror, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		log.Warn("graph mirror unavailable (continuing without)", "error", err)
	} else if mirror != nil {
		a.Mirror = mirror
		deps.Mirror = mirror
	}

	a.Usecases = graph.New(deps)
	return a, nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Cache != nil {
		_ = a.Cache.Close()
	}
	if a.Mirror != nil {
		_ = a.Mirror.Close(context.Background())
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
