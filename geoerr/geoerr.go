// Package geoerr defines the taxonomic error kinds shared by every stage of
// the compiler and generator pipeline. Each kind is declared once, at
// package scope, with gopkg.in/src-d/go-errors.v1's NewKind/New idiom so
// call sites read as `geoerr.ErrName.New(ident)` and comparisons read
// as `geoerr.ErrName.Is(err)`.
package geoerr

import (
	"fmt"

	"gopkg.in/src-d/go-errors.v1"
)

// Span is a byte range into the source text an error was raised from.
// Pretty-printing a Span against source text is the CLI's job; the core
// only carries the range.
type Span struct {
	Start int
	End   int
}

func (s Span) String() string {
	return fmt.Sprintf("[%d:%d]", s.Start, s.End)
}

// Kinds, one per taxonomic category in the error handling design. Prefer
// the most specific kind available; fall back to ErrInternal only for
// invariant violations that indicate a bug in the pipeline itself.
var (
	ErrLex        = errors.NewKind("lex error: %s")
	ErrParse      = errors.NewKind("parse error: %s")
	ErrName       = errors.NewKind("name error: %s")
	ErrOverload   = errors.NewKind("overload error: %s")
	ErrType       = errors.NewKind("type error: %s")
	ErrIteration  = errors.NewKind("iteration error: %s")
	ErrProperty   = errors.NewKind("property error: %s")
	ErrRuleForm   = errors.NewKind("rule form error: %s")
	ErrConvergence = errors.NewKind("convergence error: %s")
	ErrInternal   = errors.NewKind("internal error: %s")
)

// WithSpan annotates err, assumed to be produced by one of this package's
// Kinds, with a source span. The span is carried as a formatted suffix
// since go-errors.v1 kinds do not support structured fields; a CLI doing
// pretty-printing can still recover Start/End by re-wrapping at the call
// site with SpannedError instead of this helper when it needs the raw
// ints.
func WithSpan(err error, span Span) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w %s", err, span)
}

// SpannedError pairs an underlying taxonomic error with the byte range in
// source text that produced it. Front-end passes (parser, unroll) collect
// these into a *multierror.Error so a compilation unit can report every error found
// in one pass instead of stopping at the first.
type SpannedError struct {
	Err  error
	Span Span
}

func (e *SpannedError) Error() string {
	return fmt.Sprintf("%s %s", e.Err, e.Span)
}

func (e *SpannedError) Unwrap() error {
	return e.Err
}

// New wraps err with span into a *SpannedError.
func New(err error, span Span) *SpannedError {
	return &SpannedError{Err: err, Span: span}
}
