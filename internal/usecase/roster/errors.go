package roster

import "errors"

// Sentinel errors used by roster usecases.
var ErrInvalidInput = errors.New("invalid input")
