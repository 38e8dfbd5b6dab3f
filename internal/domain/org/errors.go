package org

import "errors"

var (
	ErrValidation     = errors.New("validation error")
	ErrNotFound       = errors.New("employee not found")
	ErrDuplicateEmail = errors.New("email already in use")
)
