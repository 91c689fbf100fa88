package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrCodec         = errors.New("image encoding failed")
	ErrGeneration    = errors.New("generation failed")
	ErrSafetyBlocked = errors.New("blocked by safety filters")
	ErrCredential    = errors.New("credential required")
)
