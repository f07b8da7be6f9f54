package source

import "errors"

// ErrProvider wraps every failure returned by an event provider.
var ErrProvider = errors.New("event provider failed")
