package nav

import "errors"

var ErrUnknownRole = errors.New("unrecognized role")
