package domain

import "errors"

var (
	// ErrInvalidMode marks a brief mode that is ill-formed.
	ErrInvalidMode = errors.New("invalid brief mode")
	// ErrProfileCorrupt marks persisted profile data that cannot be decoded.
	ErrProfileCorrupt = errors.New("profile data is corrupt")
	// ErrUnknownAction marks an engagement action outside the supported set.
	ErrUnknownAction = errors.New("unknown engagement action")
)
