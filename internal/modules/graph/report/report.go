// Package report assembles validation violations and provenance metadata
// into the envelope consumed by CLIs and tests. Provenance is a
// closed-world check: every emitted row and violation must cite a
// source ref registered up front; citing an unknown ref is a programming
// error and panics instead of producing an untrustworthy report.
package report

import (
	"fmt"
	"sort"
	"time"
)

const (
	SeverityError   = "error"
	SeverityWarning = "warning"

	StatusPass = "pass"
	StatusFail = "fail"
)

// Violation is one structural problem found while building a report.
type Violation struct {
	Severity  string `json:"severity"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Subsystem string `json:"subsystem"`
	SourceRef string `json:"source_ref"`
}

// Source describes where an underlying fact came from.
type Source struct {
	Table     string    `json:"table"`
	Selector  string    `json:"selector,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
	Fallback  bool      `json:"fallback,omitempty"`
}

// Validation is the rollup: fail iff any error-severity violation.
type Validation struct {
	Status     string      `json:"status"`
	Violations []Violation `json:"violations"`
}

// Provenance is the registered ref table plus per-section ref lists.
type Provenance struct {
	Refs     map[string]Source   `json:"refs"`
	Sections map[string][]string `json:"sections,omitempty"`
}

// Envelope is the single structured report object.
type Envelope struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Summary     map[string]int `json:"summary"`
	Details     any            `json:"details"`
	Provenance  Provenance     `json:"provenance"`
	Validation  Validation     `json:"validation"`
}

// Builder collects sources, section citations, and violations.
type Builder struct {
	sources    map[string]Source
	sections   map[string]map[string]struct{}
	violations []Violation
}

func NewBuilder() *Builder {
	return &Builder{
		sources:  map[string]Source{},
		sections: map[string]map[string]struct{}{},
	}
}

// RegisterSource declares a provenance ref. Registering the same ref
// twice overwrites, which lets callers refresh UpdatedAt.
func (b *Builder) RegisterSource(ref string, src Source) {
	if ref == "" {
		panic("report: empty source ref")
	}
	b.sources[ref] = src
}

// Registered reports whether a ref is known.
func (b *Builder) Registered(ref string) bool {
	_, ok := b.sources[ref]
	return ok
}

// Require panics if ref was never registered. Data rows cite refs
// directly, so row producers call this once per ref they emit.
func (b *Builder) Require(ref string) {
	if !b.Registered(ref) {
		panic(fmt.Sprintf("report: unregistered source ref %q", ref))
	}
}

// CiteSection records that a report section is backed by a ref.
func (b *Builder) CiteSection(section, ref string) {
	b.Require(ref)
	if b.sections[section] == nil {
		b.sections[section] = map[string]struct{}{}
	}
	b.sections[section][ref] = struct{}{}
}

// AddViolation appends a violation after checking its ref.
func (b *Builder) AddViolation(v Violation) {
	b.Require(v.SourceRef)
	if v.Severity != SeverityError && v.Severity != SeverityWarning {
		panic(fmt.Sprintf("report: invalid severity %q", v.Severity))
	}
	b.violations = append(b.violations, v)
}

func (b *Builder) AddError(code, message, subsystem, ref string) {
	b.AddViolation(Violation{Severity: SeverityError, Code: code, Message: message, Subsystem: subsystem, SourceRef: ref})
}

func (b *Builder) AddWarning(code, message, subsystem, ref string) {
	b.AddViolation(Violation{Severity: SeverityWarning, Code: code, Message: message, Subsystem: subsystem, SourceRef: ref})
}

// Validation returns the rollup with violations in a stable order.
func (b *Builder) Validation() Validation {
	out := make([]Violation, len(b.violations))
	copy(out, b.violations)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		if out[i].Subsystem != out[j].Subsystem {
			return out[i].Subsystem < out[j].Subsystem
		}
		return out[i].Message < out[j].Message
	})
	status := StatusPass
	for _, v := range out {
		if v.Severity == SeverityError {
			status = StatusFail
			break
		}
	}
	return Validation{Status: status, Violations: out}
}

// Provenance returns the ref table and sorted per-section ref lists.
func (b *Builder) Provenance() Provenance {
	refs := make(map[string]Source, len(b.sources))
	for k, v := range b.sources {
		refs[k] = v
	}
	sections := make(map[string][]string, len(b.sections))
	for section, set := range b.sections {
		list := make([]string, 0, len(set))
		for ref := range set {
			list = append(list, ref)
		}
		sort.Strings(list)
		sections[section] = list
	}
	return Provenance{Refs: refs, Sections: sections}
}

// Build assembles the final envelope.
func (b *Builder) Build(generatedAt time.Time, summary map[string]int, details any) Envelope {
	return Envelope{
		GeneratedAt: generatedAt.UTC(),
		Summary:     summary,
		Details:     details,
		Provenance:  b.Provenance(),
		Validation:  b.Validation(),
	}
}
