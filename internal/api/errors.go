package api

import (
	"context"
	"errors"
	"fmt"
)

// TransportError means the backend could not be reached or the exchange broke
// before a complete response arrived.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: backend unreachable: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is a response with a non-2xx status code.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// AppError is an application error carried inside a successful response,
// e.g. {"erreur": "..."} from the listing endpoint. Message is shown to the user as is.
type AppError struct {
	Message string
}

func (e *AppError) Error() string { return e.Message }

// IsCanceled reports whether err comes from a request whose context was canceled.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
