package engine

import "errors"

var (
	// ErrValidation indicates conflicting or unknown run modifiers.
	ErrValidation = errors.New("validation failed")

	// ErrGlobalHook indicates the beforeAll or afterAll hook failed.
	ErrGlobalHook = errors.New("global hook failed")

	// ErrRoomsFailed indicates at least one room errored during the run.
	ErrRoomsFailed = errors.New("errors occurred during roomservice")
)
