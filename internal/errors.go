package internal

import "fmt"

// ValidationError reports a missing or malformed field detected before any
// remote call was issued.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

type RemoteReadError struct {
	Op  string
	Err error
}

func (e *RemoteReadError) Error() string {
	return fmt.Sprintf("remote read %s: %v", e.Op, e.Err)
}

func (e *RemoteReadError) Unwrap() error { return e.Err }

// RemoteWriteError aborts the rest of a batched write. Committed counts the
// records already written by earlier batches; those are not rolled back.
type RemoteWriteError struct {
	Op        string
	Batch     int
	Committed int
	Err       error
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("remote write %s failed at batch %d (%d records committed): %v", e.Op, e.Batch, e.Committed, e.Err)
}

func (e *RemoteWriteError) Unwrap() error { return e.Err }
