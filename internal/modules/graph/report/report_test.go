package report

import (
	"testing"
	"time"
)

func TestValidation_FailOnAnyError(t *testing.T) {
	b := NewBuilder()
	b.RegisterSource("store.user_graph_doc", Source{Table: "user_graph_doc"})
	b.AddWarning("node_disconnected", "node X has no edges", "pillar_audit", "store.user_graph_doc")
	if got := b.Validation().Status; got != StatusPass {
		t.Fatalf("warnings alone must pass, got %q", got)
	}
	b.AddError("edge_endpoint_missing", "edge e1 references missing node", "pillar_audit", "store.user_graph_doc")
	if got := b.Validation().Status; got != StatusFail {
		t.Fatalf("any error must fail, got %q", got)
	}
}

func TestValidation_StableOrder(t *testing.T) {
	b := NewBuilder()
	b.RegisterSource("ref", Source{Table: "t"})
	b.AddWarning("b_code", "m", "s", "ref")
	b.AddWarning("a_code", "m2", "s", "ref")
	b.AddWarning("a_code", "m1", "s", "ref")
	v := b.Validation()
	if v.Violations[0].Code != "a_code" || v.Violations[0].Message != "m1" || v.Violations[2].Code != "b_code" {
		t.Fatalf("violations not sorted: %+v", v.Violations)
	}
}

func TestUnregisteredRefPanics(t *testing.T) {
	b := NewBuilder()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unregistered ref")
		}
	}()
	b.AddError("code", "msg", "sub", "never.registered")
}

func TestCiteSectionPanicsOnUnknownRef(t *testing.T) {
	b := NewBuilder()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unknown section ref")
		}
	}()
	b.CiteSection("graph_nodes", "missing")
}

func TestBuildEnvelope(t *testing.T) {
	b := NewBuilder()
	b.RegisterSource("catalog.intervention_record", Source{Table: "intervention_record", UpdatedAt: time.Unix(0, 0)})
	b.CiteSection("habits", "catalog.intervention_record")
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	env := b.Build(at, map[string]int{"habits": 1}, []string{"row"})
	if !env.GeneratedAt.Equal(at) {
		t.Fatalf("unexpected generated_at %v", env.GeneratedAt)
	}
	if env.Validation.Status != StatusPass {
		t.Fatalf("empty violations should pass")
	}
	if got := env.Provenance.Sections["habits"]; len(got) != 1 || got[0] != "catalog.intervention_record" {
		t.Fatalf("unexpected section refs %v", got)
	}
}
