package errors

import "errors"

var (
	ErrEmptyProductIDs   = errors.New("at least one product id is required")
	ErrTooManyProductIDs = errors.New("too many product ids")
)
