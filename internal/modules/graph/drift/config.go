package drift

import (
	"os"
	"strings"

	"github.com/yungbote/causalmap-backend/internal/platform/envutil"
)

type Config struct {
	Disabled bool

	PillarKey   string
	WindowHours int
	MinSamples  int
	MaxSamples  int

	FailRateWarnMax float64
	FailRateCritMax float64

	MissingLinkRateWarnMax float64
	MissingLinkRateCritMax float64

	DisconnectedRateWarnMax float64
	DisconnectedRateCritMax float64

	ChurnRateWarnMax float64
	ChurnRateCritMax float64

	AlertOnWarn bool

	RecommendationStatus        string
	RecommendationCooldownHours int

	SnapshotLabel              string
	AllowFallbackSnapshotLabel bool
}

func LoadConfigFromEnv() Config {
	cfg := Config{
		Disabled:                    !envutil.Bool("AUDIT_DRIFT_ENABLED", true),
		PillarKey:                   strings.TrimSpace(os.Getenv("AUDIT_DRIFT_PILLAR_KEY")),
		WindowHours:                 envutil.Int("AUDIT_DRIFT_WINDOW_HOURS", 168),
		MinSamples:                  envutil.Int("AUDIT_DRIFT_MIN_SAMPLES", 20),
		MaxSamples:                  envutil.Int("AUDIT_DRIFT_MAX_SAMPLES", 5000),
		FailRateWarnMax:             envutil.Float("AUDIT_DRIFT_FAIL_RATE_WARN_MAX", 0.05),
		FailRateCritMax:             envutil.Float("AUDIT_DRIFT_FAIL_RATE_CRIT_MAX", 0),
		MissingLinkRateWarnMax:      envutil.Float("AUDIT_DRIFT_MISSING_LINK_RATE_WARN_MAX", 0.1),
		MissingLinkRateCritMax:      envutil.Float("AUDIT_DRIFT_MISSING_LINK_RATE_CRIT_MAX", 0),
		DisconnectedRateWarnMax:     envutil.Float("AUDIT_DRIFT_DISCONNECTED_RATE_WARN_MAX", 0.15),
		DisconnectedRateCritMax:     envutil.Float("AUDIT_DRIFT_DISCONNECTED_RATE_CRIT_MAX", 0),
		ChurnRateWarnMax:            envutil.Float("AUDIT_DRIFT_CHURN_RATE_WARN_MAX", 2),
		ChurnRateCritMax:            envutil.Float("AUDIT_DRIFT_CHURN_RATE_CRIT_MAX", 0),
		AlertOnWarn:                 envutil.Bool("AUDIT_DRIFT_ALERT_ON_WARN", true),
		RecommendationStatus:        strings.TrimSpace(os.Getenv("AUDIT_DRIFT_RECOMMENDATION_STATUS")),
		RecommendationCooldownHours: envutil.Int("AUDIT_DRIFT_RECOMMENDATION_COOLDOWN_HOURS", 24),
		SnapshotLabel:               strings.TrimSpace(os.Getenv("AUDIT_DRIFT_SNAPSHOT_LABEL")),
		AllowFallbackSnapshotLabel:  envutil.Bool("AUDIT_DRIFT_ALLOW_FALLBACK_SNAPSHOT_LABEL", true),
	}
	if cfg.RecommendationStatus == "" {
		cfg.RecommendationStatus = "recommended"
	}
	cfg.ensureCritDefaults()
	return cfg
}

func (c *Config) ensureCritDefaults() {
	c.FailRateCritMax = ensureCritMax(c.FailRateWarnMax, c.FailRateCritMax)
	c.MissingLinkRateCritMax = ensureCritMax(c.MissingLinkRateWarnMax, c.MissingLinkRateCritMax)
	c.DisconnectedRateCritMax = ensureCritMax(c.DisconnectedRateWarnMax, c.DisconnectedRateCritMax)
	c.ChurnRateCritMax = ensureCritMax(c.ChurnRateWarnMax, c.ChurnRateCritMax)
}

func ensureCritMax(warn, crit float64) float64 {
	if crit > 0 {
		return crit
	}
	if warn <= 0 {
		return 0
	}
	return warn * 2
}

func (c Config) Input() ComputeInput {
	return ComputeInput{
		PillarKey:                   c.PillarKey,
		WindowHours:                 c.WindowHours,
		MinSamples:                  c.MinSamples,
		MaxSamples:                  c.MaxSamples,
		FailRateWarnMax:             c.FailRateWarnMax,
		FailRateCritMax:             c.FailRateCritMax,
		MissingLinkRateWarnMax:      c.MissingLinkRateWarnMax,
		MissingLinkRateCritMax:      c.MissingLinkRateCritMax,
		DisconnectedRateWarnMax:     c.DisconnectedRateWarnMax,
		DisconnectedRateCritMax:     c.DisconnectedRateCritMax,
		ChurnRateWarnMax:            c.ChurnRateWarnMax,
		ChurnRateCritMax:            c.ChurnRateCritMax,
		AlertOnWarn:                 c.AlertOnWarn,
		RecommendationStatus:        c.RecommendationStatus,
		RecommendationCooldownHours: c.RecommendationCooldownHours,
		SnapshotLabel:               c.SnapshotLabel,
		AllowFallbackSnapshotLabel:  c.AllowFallbackSnapshotLabel,
	}
}
