package config

import "errors"

var (
	ErrParsingConfig   = errors.New("failed to parse config from environment")
	ErrConfigNotLoaded = errors.New("config was not loaded")
	ErrNilPointer      = errors.New("config target must be a non-nil pointer")
)
