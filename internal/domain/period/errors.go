package period

import "errors"

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("period not found")
	ErrInvalidPhaseOrder = errors.New("phase may only advance forward")
	ErrPeriodClosed      = errors.New("period is closed")
)
