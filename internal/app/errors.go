package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrEmptyQuestion    = errors.New("question is required")
	ErrQuestionTooLong  = errors.New("question is too long")
	ErrStoreUnavailable = errors.New("store unavailable")
)
