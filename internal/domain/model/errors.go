package model

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrNoFrames marks a motion whose frames field is absent entirely.
	ErrNoFrames = errors.New("motion has no frames field")
)
