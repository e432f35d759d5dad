package templates

import "errors"

var (
	// ErrUnknownUsage is returned for usage tags outside the known set.
	ErrUnknownUsage = errors.New("unknown usage tag")

	// ErrEmptyPools is returned when saving an override with no blocks.
	ErrEmptyPools = errors.New("template pools are empty")

	// ErrOverridesUnavailable is returned when no override store is configured.
	ErrOverridesUnavailable = errors.New("template overrides unavailable")
)
