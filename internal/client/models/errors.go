package models

import "errors"

// ErrValidation is wrapped by every draft validation failure.
var ErrValidation = errors.New("validation error")
