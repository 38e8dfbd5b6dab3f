package evaluation

import "errors"

var (
	ErrValidation       = errors.New("evaluation validation failed")
	ErrNotFound         = errors.New("evaluation record not found")
	ErrDuplicateMapping = errors.New("stage mapping already exists for key")
	ErrRevisionOpen     = errors.New("evaluation cannot be submitted while a revision is open")
	ErrLocked           = errors.New("evaluation is locked for editing")
)
