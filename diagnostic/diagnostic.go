// Package diagnostic defines the shared diagnostics channel that every
// pipeline stage (lexer, preprocessor, parser, checker, emitter) reports
// into. Diagnostics are append-only and ordered by the sequence stages
// produce them, per stage source order.
package diagnostic

import "fmt"

// Range is a half-open byte-index span into the original source text.
type Range struct {
	Start int
	End   int
}

// Covers reports whether r fully contains other.
func (r Range) Covers(other Range) bool {
	return r.Start <= other.Start && other.End <= r.End
}

func (r Range) String() string {
	return fmt.Sprintf("%d:%d", r.Start, r.End)
}

// Kind is implemented by every stage-specific error/diagnostic payload.
// Stage is one of "lexer", "parser", "compiler" per the three disjoint
// taxonomies named in the error handling design, or "preprocessor" for
// the preprocessor's import diagnostics.
type Kind interface {
	error
	Stage() string
	Code() string
}

// Diagnostic pairs a stage-specific Kind with the source Range it was
// raised at.
type Diagnostic struct {
	Kind  Kind
	Range Range
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%s: %s", d.Range, d.Kind.Code(), d.Kind.Error())
}

// Bag is the ordered, append-only diagnostics channel threaded through
// the whole pipeline. A single Bag is created per compile call and
// never shared across calls (see the concurrency model).
type Bag struct {
	items []Diagnostic
}

// Add records a diagnostic, preserving insertion order.
func (b *Bag) Add(kind Kind, r Range) {
	b.items = append(b.items, Diagnostic{Kind: kind, Range: r})
}

// Empty reports whether no diagnostics have been recorded. The emitter
// consults this before finalizing module bytes.
func (b *Bag) Empty() bool {
	return len(b.items) == 0
}

// All returns every diagnostic recorded so far, in production order.
func (b *Bag) All() []Diagnostic {
	return b.items
}

// Merge appends every diagnostic from other onto b, preserving the
// order stages were run in — used by the driver to thread one
// combined Bag across lexer/preprocessor/parser/checker/emitter calls
// that each build their own.
func (b *Bag) Merge(other Bag) {
	b.items = append(b.items, other.items...)
}

// HasStage reports whether any diagnostic came from the named stage.
func (b *Bag) HasStage(stage string) bool {
	for _, d := range b.items {
		if d.Kind.Stage() == stage {
			return true
		}
	}
	return false
}

func (b *Bag) Error() string {
	if b.Empty() {
		return ""
	}
	msg := ""
	for i, d := range b.items {
		if i > 0 {
			msg += "\n"
		}
		msg += d.String()
	}
	return msg
}
