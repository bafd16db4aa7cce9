package directory

import "errors"

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("a user with this email already exists")
	ErrPhoneTaken   = errors.New("a user with this phone number already exists")
	ErrInvalidRole  = errors.New("invalid role value")
)
