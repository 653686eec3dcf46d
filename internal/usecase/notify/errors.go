package notify

import "errors"

// ErrInvalidAlert is returned for an alert without a representative URL.
var ErrInvalidAlert = errors.New("invalid alert: representative url is required")
