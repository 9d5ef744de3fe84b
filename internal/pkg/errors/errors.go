package errors

import "errors"

var (
	// ErrNotFound is returned when a pattern, question or transaction does not
	// exist or does not belong to the requesting user.
	ErrNotFound = errors.New("not found")
	// ErrInvalidIdentifier is returned when a user or resource id fails uuid
	// parsing on a write path. Read paths treat the same condition as an
	// empty result instead.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrAlreadyAnswered is returned when an answer is submitted against a
	// question that has already been answered.
	ErrAlreadyAnswered = errors.New("question already answered")
)
