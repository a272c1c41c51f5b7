package service

import "errors"

var (
	ErrValidation      = errors.New("validation failed")
	ErrProjectNotFound = errors.New("project not found")
	ErrPersistence     = errors.New("persistence failure")
)
