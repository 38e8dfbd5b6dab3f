package workflow

import "errors"

var (
	ErrValidation             = errors.New("workflow validation failed")
	ErrNotFound               = errors.New("workflow record not found")
	ErrInvalidTransition      = errors.New("invalid step approval transition")
	ErrConcurrentModification = errors.New("step approval was modified concurrently")
)
