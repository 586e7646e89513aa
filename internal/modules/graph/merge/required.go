package merge

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EdgeRule names one canonical edge a user graph must contain, by its
// identity tuple. Cosmetic fields come from the canonical edge at copy
// time, never from the rule.
type EdgeRule struct {
	Source   string `yaml:"source" json:"source"`
	Target   string `yaml:"target" json:"target"`
	EdgeType string `yaml:"edge_type" json:"edge_type"`
	Label    string `yaml:"label" json:"label"`
}

// RequiredSet is the fixed canonical subgraph a feature needs present in
// every user graph.
type RequiredSet struct {
	NodeIDs   []string   `yaml:"node_ids" json:"node_ids"`
	EdgeRules []EdgeRule `yaml:"edge_rules" json:"edge_rules"`
}

func (r RequiredSet) Empty() bool {
	return len(r.NodeIDs) == 0 && len(r.EdgeRules) == 0
}

// LoadRequiredSet reads a rule file:
//
//	node_ids: [BRUXISM, JAW_TENSION]
//	edge_rules:
//	  - {source: BRUXISM, target: JAW_TENSION, edge_type: forward, label: ""}
func LoadRequiredSet(path string) (RequiredSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RequiredSet{}, fmt.Errorf("merge: read rules %s: %w", path, err)
	}
	var set RequiredSet
	if err := yaml.Unmarshal(raw, &set); err != nil {
		return RequiredSet{}, fmt.Errorf("merge: parse rules %s: %w", path, err)
	}
	return set, nil
}

// DefaultRequiredSet is the compiled-in rule set for the symptom-tracking
// feature: the core symptom/treatment nodes and the causal edges between
// them.
func DefaultRequiredSet() RequiredSet {
	return RequiredSet{
		NodeIDs: []string{
			"BRUXISM",
			"JAW_TENSION",
			"SLEEP_QUALITY",
			"STRESS_LEVEL",
			"MOUTHGUARD_USE",
		},
		EdgeRules: []EdgeRule{
			{Source: "STRESS_LEVEL", Target: "BRUXISM", EdgeType: "forward"},
			{Source: "BRUXISM", Target: "JAW_TENSION", EdgeType: "forward"},
			{Source: "JAW_TENSION", Target: "SLEEP_QUALITY", EdgeType: "feedback"},
			{Source: "MOUTHGUARD_USE", Target: "BRUXISM", EdgeType: "protective"},
		},
	}
}
