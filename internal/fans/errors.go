package fans

import "errors"

var (
	// ErrFanNotFound is returned when a fan does not exist for the creator
	ErrFanNotFound = errors.New("fan not found")

	// ErrMissingCreatorID is returned when a lookup has no creator scope
	ErrMissingCreatorID = errors.New("creator id is required")

	// ErrInvalidStage is returned when writing a stage outside the vocabulary
	ErrInvalidStage = errors.New("invalid stage")
)
