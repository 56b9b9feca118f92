package config

import "errors"

// Catalog validation errors.
var (
	ErrAgentNameRequired  = errors.New("agent name required")
	ErrCommandRequired    = errors.New("command required")
	ErrDuplicateAgentName = errors.New("duplicate agent name")
	ErrInvalidAgentName   = errors.New("invalid agent name")
	ErrInvalidEnv         = errors.New("invalid env")
)
