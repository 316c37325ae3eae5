package config

import (
	"errors"
)

// Sentinel error kinds for this package, matchable with errors.Is from
// callers.
var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrLoadConfig    = errors.New("configuration load failed")
)
