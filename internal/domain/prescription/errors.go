package prescription

import "errors"

var (
	ErrPrescriptionNotFound = errors.New("prescription not found")
	ErrNotRefillable        = errors.New("prescription has no refills remaining or is not active")
	ErrInvalidStatus        = errors.New("invalid prescription status")
)
