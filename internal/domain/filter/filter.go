// Package filter composes boolean filter expressions over scalar metadata
// fields, in the vector store's expression syntax.
package filter

import (
	"fmt"
	"strings"
)

// Builder conjoins equality constraints and raw sub-expressions into a single
// filter expression. Zero-value Builder is ready to use.
//
// Equality values are quoted as opaque strings but not escaped against
// expression-syntax metacharacters; callers must not pass untrusted values
// containing double quotes. Known limitation.
type Builder struct {
	clauses []string
}

// New returns an empty Builder.
func New() *Builder { return &Builder{} }

// Eq adds an exact-match constraint on a scalar field, rendered as
// field == "value". Empty values are skipped so optional constraints can be
// passed through unconditionally.
func (b *Builder) Eq(field, value string) *Builder {
	if field != "" && value != "" {
		b.clauses = append(b.clauses, fmt.Sprintf(`%s == "%s"`, field, value))
	}
	return b
}

// Raw conjoins a caller-supplied sub-expression verbatim.
func (b *Builder) Raw(expr string) *Builder {
	if expr != "" {
		b.clauses = append(b.clauses, expr)
	}
	return b
}

// Build returns the conjunction of all supplied constraints, joined with &&.
// ok is false when nothing was supplied, meaning "no filter".
func (b *Builder) Build() (expr string, ok bool) {
	if len(b.clauses) == 0 {
		return "", false
	}
	return strings.Join(b.clauses, " && "), true
}
