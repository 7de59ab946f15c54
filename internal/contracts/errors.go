package contracts

import (
	"errors"
	"fmt"
)

// Domain errors shared by decoder, filter and chart
var (
	ErrTypeCoercion      = errors.New("type coercion failed")
	ErrInvalidDirective  = errors.New("invalid filter directive")
	ErrUnknownColumn     = errors.New("unknown column")
	ErrMissingFeature    = errors.New("feature column missing from dataset")
	ErrFeatureNotNumeric = errors.New("feature column is not numeric")
	ErrSchemaMismatch    = errors.New("schema mismatch")
	ErrNoDataset         = errors.New("no dataset loaded")
)

// CoercionError reports a cell (or directive value) that could not be
// converted to its column type. Row is 1-based over data rows; 0 means the
// value did not come from a row (e.g. a filter directive).
type CoercionError struct {
	Column Column
	Row    int
	Value  string
	Err    error
}

func (e *CoercionError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: cannot convert %q to %s for column %q: %v",
			e.Row, e.Value, e.Column.Kind(), e.Column, e.Err)
	}
	return fmt.Sprintf("cannot convert %q to %s for column %q: %v",
		e.Value, e.Column.Kind(), e.Column, e.Err)
}

func (e *CoercionError) Unwrap() error {
	return e.Err
}

// Is makes every CoercionError match ErrTypeCoercion
func (e *CoercionError) Is(target error) bool {
	return target == ErrTypeCoercion
}
