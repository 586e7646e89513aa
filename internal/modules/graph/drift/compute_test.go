package drift

import (
	"encoding/json"
	"testing"

	"gorm.io/datatypes"

	types "github.com/yungbote/causalmap-backend/internal/domain"
)

func envelopePayload(t *testing.T, status string, metrics map[string]any) datatypes.JSON {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"validation": map[string]any{"status": status},
		"details":    map[string]any{"metrics": metrics},
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return datatypes.JSON(raw)
}

func TestEvalStatus(t *testing.T) {
	cases := []struct {
		value, warn, crit float64
		direction         string
		want              string
	}{
		{0.01, 0.05, 0.1, "max", "ok"},
		{0.05, 0.05, 0.1, "max", "warn"},
		{0.2, 0.05, 0.1, "max", "critical"},
		{0.5, 0, 0, "max", "ok"},
		{0.2, 0.15, 0.05, "min", "ok"},
		{0.1, 0.15, 0.05, "min", "warn"},
		{0.04, 0.15, 0.05, "min", "critical"},
	}
	for _, tc := range cases {
		got := evalStatus(tc.value, tc.warn, tc.crit, tc.direction)
		if got != tc.want {
			t.Fatalf("evalStatus(%v, %v, %v, %q) = %q, want %q", tc.value, tc.warn, tc.crit, tc.direction, got, tc.want)
		}
	}
}

func TestBuildRateMetric_InsufficientSamples(t *testing.T) {
	m := buildRateMetric("audit_fail_rate", 1.0, 0.05, 0.1, 5, 20, "max")
	if m.Status != "insufficient" {
		t.Fatalf("5 samples under min 20 must be insufficient, got %q", m.Status)
	}
	m = buildRateMetric("audit_fail_rate", 1.0, 0.05, 0.1, 25, 20, "max")
	if m.Status != "critical" {
		t.Fatalf("expected critical, got %q", m.Status)
	}
}

func TestCollectAlerts(t *testing.T) {
	metrics := []metricResult{
		{Name: "a", Status: "ok"},
		{Name: "b", Status: "warn"},
		{Name: "c", Status: "critical"},
		{Name: "d", Status: "insufficient"},
	}
	got := collectAlerts(metrics, false)
	if len(got) != 1 || got[0] != "c" {
		t.Fatalf("alerts without warn = %v", got)
	}
	got = collectAlerts(metrics, true)
	if len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Fatalf("alerts with warn = %v", got)
	}
}

func TestExtractReportFacts(t *testing.T) {
	payload := envelopePayload(t, "fail", map[string]any{
		"node_count":                      10,
		"habit_count":                     4,
		"habits_missing_edge_links_count": 1,
		"disconnected_node_ids":           []string{"A", "B"},
	})
	facts, ok := extractReportFacts("pass", payload)
	if !ok {
		t.Fatalf("expected facts from valid payload")
	}
	// The envelope's own validation status wins over the row column.
	if !facts.Failed {
		t.Fatalf("envelope says fail, facts.Failed must be true")
	}
	if facts.NodeCount != 10 || facts.HabitCount != 4 || facts.MissingLinkHabits != 1 || facts.DisconnectedNodes != 2 {
		t.Fatalf("unexpected facts %+v", facts)
	}
}

func TestExtractReportFacts_EmptyPayloadFallsBackToColumn(t *testing.T) {
	facts, ok := extractReportFacts("fail", nil)
	if ok {
		t.Fatalf("nil payload must not report ok")
	}
	if !facts.Failed {
		t.Fatalf("row status fail must carry over")
	}
}

func TestAnalyzeReports(t *testing.T) {
	reports := []*types.GraphAuditReport{
		{Status: "pass", Payload: envelopePayload(t, "pass", map[string]any{"node_count": 6, "habit_count": 3})},
		{Status: "fail", Payload: envelopePayload(t, "fail", map[string]any{
			"node_count":                      4,
			"habit_count":                     2,
			"habits_missing_edge_links_count": 2,
			"disconnected_node_ids":           []string{"X"},
		})},
		nil,
	}
	agg := analyzeReports(reports)
	if agg.reportCount != 2 || agg.failCount != 1 {
		t.Fatalf("unexpected aggregate %+v", agg)
	}
	if agg.failRate() != 0.5 {
		t.Fatalf("fail rate = %v", agg.failRate())
	}
	if agg.missingLinkRate() != 0.4 {
		t.Fatalf("missing link rate = %v", agg.missingLinkRate())
	}
	if agg.disconnectedRate() != 0.1 {
		t.Fatalf("disconnected rate = %v", agg.disconnectedRate())
	}
}

func TestConfigCritDefaults(t *testing.T) {
	cfg := Config{FailRateWarnMax: 0.05}
	cfg.ensureCritDefaults()
	if cfg.FailRateCritMax != 0.1 {
		t.Fatalf("crit default = %v, want 2x warn", cfg.FailRateCritMax)
	}
	cfg = Config{FailRateWarnMax: 0.05, FailRateCritMax: 0.3}
	cfg.ensureCritDefaults()
	if cfg.FailRateCritMax != 0.3 {
		t.Fatalf("explicit crit must win, got %v", cfg.FailRateCritMax)
	}
}
