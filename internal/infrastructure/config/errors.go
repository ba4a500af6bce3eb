package config

import "errors"

// ErrInvalidConfig is the sentinel for configuration validation failures
// (spec.md §7's ConfigError): a missing mandatory field or an out-of-range
// value, detected before any external connection is opened.
var ErrInvalidConfig = errors.New("config: invalid configuration")
