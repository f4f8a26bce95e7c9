// Package errorspkg provides common app errors.
package errorspkg

import "errors"

// ErrInternal indicates internal server error.
var ErrInternal = errors.New("internal")

// ErrProcessing is the generic detail recorded on a transfer that failed
// because of an unexpected fault.
var ErrProcessing = errors.New("processing error")
