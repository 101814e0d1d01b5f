package remote

import "errors"

var (
	// ErrUnsupportedAttribute is returned when a catalog attribute has a
	// JSON type the attribute union cannot represent.
	ErrUnsupportedAttribute = errors.New("unsupported attribute type")

	// ErrBadStatus is returned when the catalog service answers with a
	// non-success HTTP status.
	ErrBadStatus = errors.New("unexpected catalog status")

	// ErrEmptyBaseURL is returned when an HTTP source is created without
	// a base URL.
	ErrEmptyBaseURL = errors.New("base URL required")
)
