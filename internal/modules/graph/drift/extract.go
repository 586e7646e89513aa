package drift

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/datatypes"
)

// reportFacts are the counters pulled out of one persisted audit report
// envelope. Extraction is tolerant: envelopes written by older builds may
// lack fields, so anything missing reads as zero.
type reportFacts struct {
	Failed            bool
	HabitCount        int
	MissingLinkHabits int
	NodeCount         int
	DisconnectedNodes int
}

func extractReportFacts(status string, raw datatypes.JSON) (reportFacts, bool) {
	facts := reportFacts{
		Failed: strings.EqualFold(strings.TrimSpace(status), "fail"),
	}
	val := decodeJSON(raw)
	if val == nil {
		return facts, false
	}
	envelope, ok := val.(map[string]any)
	if !ok {
		return facts, false
	}

	if validation, ok := envelope["validation"].(map[string]any); ok {
		if s := stringFromAny(validation["status"]); s != "" {
			facts.Failed = strings.EqualFold(strings.TrimSpace(s), "fail")
		}
	}

	metrics := findMetrics(envelope, 0)
	if metrics == nil {
		return facts, true
	}
	facts.HabitCount = intFromAny(metrics["habit_count"], 0)
	facts.MissingLinkHabits = intFromAny(metrics["habits_missing_edge_links_count"], 0)
	facts.NodeCount = intFromAny(metrics["node_count"], 0)
	if ids, ok := metrics["disconnected_node_ids"].([]any); ok {
		facts.DisconnectedNodes = len(ids)
	}
	return facts, true
}

// findMetrics locates the metrics object inside an envelope without
// assuming where the details payload nested it.
func findMetrics(v any, depth int) map[string]any {
	if depth > 4 {
		return nil
	}
	switch t := v.(type) {
	case map[string]any:
		if m, ok := t["metrics"].(map[string]any); ok {
			if _, has := m["node_count"]; has {
				return m
			}
		}
		for _, val := range t {
			if m := findMetrics(val, depth+1); m != nil {
				return m
			}
		}
	case []any:
		for _, item := range t {
			if m := findMetrics(item, depth+1); m != nil {
				return m
			}
		}
	}
	return nil
}

func mustJSON(v any) []byte {
	if v == nil {
		return nil
	}
	b, _ := json.Marshal(v)
	return b
}

func decodeJSON(raw datatypes.JSON) any {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

func stringFromAny(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func intFromAny(v any, def int) int {
	if v == nil {
		return def
	}
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case int64:
		return int(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i)
		}
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	if s == "" {
		return def
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return def
}
