package errors

// WithCause is implemented by errors that wrap an underlying error, which is
// reported separately from the main message.
type WithCause interface{ Cause() error }

// WithHint is implemented by errors that can suggest a fix to the user.
type WithHint interface{ Hint() string }

// Runtime is an error that occurred while running a command.
type Runtime struct {
	msg   string
	cause error
	hint  string
}

// NewRuntimeError returns a new Runtime error. cause and hint are optional.
func NewRuntimeError(msg string, cause error, hint string) Runtime {
	return Runtime{msg: msg, cause: cause, hint: hint}
}

func (e Runtime) Error() string {
	return e.msg
}

func (e Runtime) Cause() error {
	return e.cause
}

func (e Runtime) Unwrap() error {
	return e.cause
}

func (e Runtime) Hint() string {
	return e.hint
}
