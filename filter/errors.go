package filter

import "errors"

var (
	// ErrUnknownOp is returned when a schema names an operation kind the
	// engine does not implement.
	ErrUnknownOp = errors.New("unknown filter operation")

	// ErrInvalidSchema is returned when a schema fails validation.
	ErrInvalidSchema = errors.New("invalid filter schema")
)
