package contracts

import (
	"errors"
	"fmt"
)

// StructuralErrorKind classifies the fatal input problems.
type StructuralErrorKind string

const (
	ErrKindMissingColumn StructuralErrorKind = "MISSING_COLUMN"
	ErrKindBadDate       StructuralErrorKind = "BAD_DATE"
	ErrKindBadNumber     StructuralErrorKind = "BAD_NUMBER"
	ErrKindEmptyInput    StructuralErrorKind = "EMPTY_INPUT"
)

// StructuralError aborts a run. Missing values, eligibility exclusions,
// join gaps and degenerate aggregations are normal operation and never
// surface as errors.
// ⭐ SSOT: 파이프라인을 중단시키는 유일한 에러 유형
type StructuralError struct {
	Kind   StructuralErrorKind `json:"kind"`
	Source string              `json:"source"`
	Column string              `json:"column,omitempty"`
	Row    int                 `json:"row,omitempty"` // 1-based data row, 0 if not row specific
	Cause  error               `json:"-"`
}

// Error implements the error interface
func (e *StructuralError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Source)
	if e.Column != "" {
		msg += fmt.Sprintf(" column %q", e.Column)
	}
	if e.Row > 0 {
		msg += fmt.Sprintf(" row %d", e.Row)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *StructuralError) Unwrap() error {
	return e.Cause
}

// NewMissingColumn reports a required column absent from a source.
func NewMissingColumn(source, column string) *StructuralError {
	return &StructuralError{Kind: ErrKindMissingColumn, Source: source, Column: column}
}

// NewBadDate reports an unparseable date cell.
func NewBadDate(source, column string, row int, cause error) *StructuralError {
	return &StructuralError{Kind: ErrKindBadDate, Source: source, Column: column, Row: row, Cause: cause}
}

// NewBadNumber reports an unparseable numeric cell.
func NewBadNumber(source, column string, row int, cause error) *StructuralError {
	return &StructuralError{Kind: ErrKindBadNumber, Source: source, Column: column, Row: row, Cause: cause}
}

// NewEmptyInput reports a source with no rows.
func NewEmptyInput(source string) *StructuralError {
	return &StructuralError{Kind: ErrKindEmptyInput, Source: source}
}

// IsStructural reports whether err (or anything it wraps) is a StructuralError.
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}

// ErrNotFound is returned by result stores when nothing has been computed yet.
var ErrNotFound = errors.New("not found")
