package identity

import (
	"testing"

	"github.com/yungbote/causalmap-backend/internal/modules/graph/model"
)

func TestSignature_NormalizesCaseAndWhitespace(t *testing.T) {
	a := model.Edge{Source: " Stress ", Target: "SLEEP", EdgeType: "Forward", Label: " Raises "}
	b := model.Edge{Source: "stress", Target: "sleep", EdgeType: "forward", Label: "raises"}
	if Signature(a) != Signature(b) {
		t.Fatalf("expected equal signatures, got %q vs %q", Signature(a), Signature(b))
	}
	if Signature(a) != "stress|sleep|forward|raises" {
		t.Fatalf("unexpected signature %q", Signature(a))
	}
}

func TestSignature_IgnoresCosmeticFields(t *testing.T) {
	a := model.Edge{Source: "A", Target: "B", EdgeType: "forward", EdgeColor: "#f00", Strength: 0.9}
	b := model.Edge{Source: "A", Target: "B", EdgeType: "forward", EdgeColor: "#00f", Strength: 0.1}
	if Signature(a) != Signature(b) {
		t.Fatalf("cosmetic fields must not affect the signature")
	}
}

func TestDeriveID_DuplicatesGetDistinctOrdinals(t *testing.T) {
	e := model.Edge{Source: "A", Target: "B", EdgeType: "forward"}
	ordinals := map[string]int{}
	first := DeriveID(e, ordinals)
	second := DeriveID(e, ordinals)
	if first != "edge:a|b|forward|#0" {
		t.Fatalf("unexpected first id %q", first)
	}
	if second != "edge:a|b|forward|#1" {
		t.Fatalf("unexpected second id %q", second)
	}
}

func TestAssignIDs_DeterministicAcrossRuns(t *testing.T) {
	edges := []model.Edge{
		{Source: "A", Target: "B", EdgeType: "forward"},
		{ID: "persisted-1", Source: "A", Target: "B", EdgeType: "forward"},
		{Source: "A", Target: "B", EdgeType: "forward"},
		{Source: "B", Target: "C", EdgeType: "feedback"},
	}
	first := AssignIDs(edges)
	second := AssignIDs(edges)
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("run disagreement at %d: %q vs %q", i, first[i].ID, second[i].ID)
		}
	}
	if first[1].ID != "persisted-1" {
		t.Fatalf("persisted id overwritten: %q", first[1].ID)
	}
	// Persisted ids do not consume ordinals, so the two derived duplicates
	// get #0 and #1 regardless of the persisted row between them.
	if first[0].ID != "edge:a|b|forward|#0" || first[2].ID != "edge:a|b|forward|#1" {
		t.Fatalf("unexpected derived ids %q / %q", first[0].ID, first[2].ID)
	}
}

func TestAssignIDs_StableUnderAppend(t *testing.T) {
	edges := []model.Edge{
		{Source: "A", Target: "B", EdgeType: "forward"},
		{Source: "B", Target: "C", EdgeType: "forward"},
	}
	before := AssignIDs(edges)
	grown := append(append([]model.Edge{}, edges...), model.Edge{Source: "A", Target: "B", EdgeType: "forward"})
	after := AssignIDs(grown)
	for i := range before {
		if before[i].ID != after[i].ID {
			t.Fatalf("append perturbed existing id at %d: %q vs %q", i, before[i].ID, after[i].ID)
		}
	}
	if after[2].ID != "edge:a|b|forward|#1" {
		t.Fatalf("appended duplicate should take the next ordinal, got %q", after[2].ID)
	}
}
