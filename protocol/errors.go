package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRequest is returned when the connection delivered no data.
	ErrNoRequest = errors.New("received no request from client")
	// ErrUnrecognized is returned for any request line that isn't a get or set
	// request. Callers drop the connection without replying.
	ErrUnrecognized = errors.New("unrecognized request")
)

// Code identifies why a recognized request couldn't be parsed.
type Code int

// Malformed request reason codes.
const (
	CodeGetSegments    Code = 1
	CodeSetSegments    Code = 2
	CodeSetPair        Code = 3
	CodeSetMissingPair Code = 4
	CodeMissingKey     Code = 5
)

var codeReasons = map[Code]string{
	CodeGetSegments:    "expected exactly one 'key=' in get request",
	CodeSetSegments:    "expected exactly one 'set?' in set request",
	CodeSetPair:        "expected a single key=value pair",
	CodeSetMissingPair: "no key=value pair found",
	CodeMissingKey:     "no key found in request",
}

// MalformedError is returned for get or set requests that don't follow the
// expected format.
type MalformedError struct {
	Code Code
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed request (code %d): %s", e.Code, e.Reason())
}

// Reason returns the human readable description of the error code.
func (e *MalformedError) Reason() string {
	if r, ok := codeReasons[e.Code]; ok {
		return r
	}
	return "unknown"
}

func malformed(c Code) error {
	return &MalformedError{Code: c}
}
