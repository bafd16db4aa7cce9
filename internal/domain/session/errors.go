package session

import "errors"

var (
	ErrNotFound = errors.New("session not found")
	ErrCorrupt  = errors.New("persisted session is malformed")
)
