package keybackend

import "errors"

var (
	// ErrNoSecret is returned when no source is configured or the configured
	// source yields an empty secret.
	ErrNoSecret = errors.New("no secret configured")
	// ErrMultipleSources is returned when more than one source is configured.
	ErrMultipleSources = errors.New("only one secret source may be configured")
)
