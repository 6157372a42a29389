package serialport

import "errors"

// ErrTimeout is returned by ReadUntil when the armed timer fires before
// the terminator byte arrives.
var ErrTimeout = errors.New("serialport: read timed out")
