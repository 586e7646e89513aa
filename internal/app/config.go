package app

import (
	"github.com/yungbote/causalmap-backend/internal/platform/envutil"
)

type Config struct {
	// SnapshotLocation points at the canonical graph document used as a
	// fallback when no snapshot row is active. Local path or gs:// URL.
	SnapshotLocation string
	// RulesPath overrides the compiled-in required-set rules. Optional.
	RulesPath string
	// Environment tags logs and traces (development, staging, production).
	Environment string
	Version     string
}

func LoadConfig() Config {
	return Config{
		SnapshotLocation: envutil.String("CANONICAL_SNAPSHOT_LOCATION", ""),
		RulesPath:        envutil.String("GRAPH_RULES_PATH", ""),
		Environment:      envutil.String("APP_ENV", "development"),
		Version:          envutil.String("APP_VERSION", "dev"),
	}
}
