package bounded

import "errors"

// ErrPanic wraps a value recovered from a panicking call.
var ErrPanic = errors.New("bounded call panicked")
