package model

import "errors"

// Terminal failures of an optimization request. Callers match them with errors.Is;
// the returned error always wraps one of these with the offending item.
var (
	ErrInvalidDimension     = errors.New("invalid dimension")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrInsufficientMaterial = errors.New("insufficient material")
	ErrInvalidSettings      = errors.New("invalid settings")
)
