package project

import "errors"

// Sentinel errors used by project usecases.
var ErrInvalidInput = errors.New("invalid input")
