package calendar

import "errors"

// ErrNotFound is returned when deleting an entry the store does not hold.
var ErrNotFound = errors.New("scheduled entry not found")
