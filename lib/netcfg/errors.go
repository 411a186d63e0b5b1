package netcfg

import "errors"

// Errors returned by Config.Validate.
var (
	ErrMissingHost    = errors.New("netcfg: host is required")
	ErrInvalidPort    = errors.New("netcfg: port must be in [0, 65535]")
	ErrInvalidTimeout = errors.New("netcfg: timeout must be non-negative")
	ErrInvalidLimit   = errors.New("netcfg: limit must be positive")
)
