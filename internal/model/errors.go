package model

import "errors"

// ErrNotRegistered aborts business account construction when the company
// cannot be verified against the external registry. It is the only fatal
// domain error; everything else is a boolean rejection.
var ErrNotRegistered = errors.New("entity not registered")
