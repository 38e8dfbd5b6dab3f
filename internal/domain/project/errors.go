package project

import "errors"

var (
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("not found")
	ErrDuplicateAssignment = errors.New("assignment already exists")
)
