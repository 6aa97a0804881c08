package bucketgate

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no object exists for a key
	ErrNotFound = errors.New("not found")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned when authentication fails
	ErrUnauthorized = errors.New("unauthorized")
	// ErrBadRequest is returned when a request body lacks a required part
	ErrBadRequest = errors.New("bad request")
	// ErrMethodNotAllowed is returned for methods outside PUT, GET and DELETE
	ErrMethodNotAllowed = errors.New("method not allowed")
)

var (
	// ErrMissingToken is returned when the Authorization header carries no bearer token.
	ErrMissingToken = fmt.Errorf("%w: missing token", ErrUnauthorized)
	// ErrIncorrectToken is returned when the bearer token does not match the secret.
	ErrIncorrectToken = fmt.Errorf("%w: incorrect token", ErrUnauthorized)
)
