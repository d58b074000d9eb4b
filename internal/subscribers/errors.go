package subscribers

import (
	"errors"
	"fmt"
)

// ErrPageLimit is wrapped by the BackendError returned when a scan needs more
// pages than the Scanner allows.
var ErrPageLimit = errors.New("scan page limit reached")

// ErrInvalidAddress is returned for strings that are not mail addresses.
var ErrInvalidAddress = errors.New("invalid email address")

const (
	opScan = "scan"
	opPut  = "put"
)

// BackendError reports a failed read or write against the subscribers table.
type BackendError struct {
	Op    string
	Table string
	// Page is the 1-based scan page that failed, or 0 for writes.
	Page int
	Err  error
}

func (e *BackendError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("%s %s (page %d): %v", e.Op, e.Table, e.Page, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
